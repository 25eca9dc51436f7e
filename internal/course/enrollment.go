package course

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-courses/internal/notify"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// Enroll registers the actor in a published course.
func (e *Engine) Enroll(ctx context.Context, a Actor, courseID string) (Enrollment, error) {
	if err := e.authorize(a, rbac.PermEnrollmentCreate); err != nil {
		return Enrollment{}, err
	}
	course, err := e.store.FindCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, lookup(err, ReasonCourseNotFound, "course: find course")
	}
	if !course.Published {
		return Enrollment{}, notFound(ReasonCourseNotFound)
	}
	_, err = e.store.FindEnrollment(ctx, a.ID, courseID)
	switch {
	case err == nil:
		return Enrollment{}, conflict(ReasonAlreadyEnrolled)
	case !errors.Is(err, ErrNoRecord):
		return Enrollment{}, errors.Wrap(err, "course: find enrollment")
	}

	enr, err := e.store.CreateEnrollment(ctx, Enrollment{
		ID:         uuid.NewString(),
		StudentID:  a.ID,
		CourseID:   courseID,
		Status:     StatusActive,
		EnrolledAt: e.now(),
	})
	if errors.Is(err, ErrDuplicate) {
		return Enrollment{}, conflict(ReasonAlreadyEnrolled)
	}
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "course: create enrollment")
	}

	e.emit(ctx, a.ID, notify.Enrolled, fmt.Sprintf("Successfully enrolled in '%s'", course.Title), map[string]interface{}{
		"course_id":    course.ID,
		"course_title": course.Title,
	})
	return enr, nil
}

// MyCourses lists the actor's enrollments with completion derived from the
// latest passed quiz attempt.
func (e *Engine) MyCourses(ctx context.Context, a Actor) ([]EnrolledCourse, error) {
	if err := e.authorize(a, rbac.PermCourseView); err != nil {
		return nil, err
	}
	enrs, err := e.store.ListEnrollments(ctx, a.ID)
	if err != nil {
		return nil, errors.Wrap(err, "course: list enrollments")
	}
	out := make([]EnrolledCourse, 0, len(enrs))
	for _, enr := range enrs {
		c, err := e.store.FindCourse(ctx, enr.CourseID)
		if errors.Is(err, ErrNoRecord) {
			continue // course deactivated
		}
		if err != nil {
			return nil, errors.Wrap(err, "course: find course")
		}
		ec := EnrolledCourse{
			CourseID:    c.ID,
			Title:       c.Title,
			Description: c.Description,
			EnrolledAt:  enr.EnrolledAt,
		}
		att, err := e.store.FindLatestPassedAttempt(ctx, a.ID, c.ID)
		switch {
		case err == nil:
			ec.Completed = true
			at := att.AttemptedAt
			ec.CompletionDate = &at
		case !errors.Is(err, ErrNoRecord):
			return nil, errors.Wrap(err, "course: latest passed attempt")
		}
		out = append(out, ec)
	}
	return out, nil
}

// QuizResults lists the actor's attempts for a quiz, newest first.
func (e *Engine) QuizResults(ctx context.Context, a Actor, quizID string) ([]QuizAttempt, error) {
	if err := e.authorize(a, rbac.PermQuizResults); err != nil {
		return nil, err
	}
	if _, err := e.store.FindQuiz(ctx, quizID); err != nil {
		return nil, lookup(err, ReasonQuizNotFound, "course: find quiz")
	}
	out, err := e.store.ListQuizAttempts(ctx, a.ID, quizID)
	if err != nil {
		return nil, errors.Wrap(err, "course: list attempts")
	}
	return out, nil
}
