package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// CanAttemptQuiz reports whether the actor may submit an attempt for the
// quiz. A nil error means go; it never creates an attempt.
func (e *Engine) CanAttemptQuiz(ctx context.Context, a Actor, quizID string) error {
	if err := e.authorize(a, rbac.PermQuizAttempt); err != nil {
		return err
	}
	_, _, err := e.checkAttempt(ctx, e.store, a, quizID)
	return err
}

// checkAttempt runs the gate preconditions in order against s; the first
// failure wins.
func (e *Engine) checkAttempt(ctx context.Context, s Store, a Actor, quizID string) (Quiz, Enrollment, error) {
	quiz, err := s.FindQuiz(ctx, quizID)
	if err != nil {
		return Quiz{}, Enrollment{}, lookup(err, ReasonQuizNotFound, "course: find quiz")
	}
	enr, err := s.FindEnrollment(ctx, a.ID, quiz.CourseID)
	if err != nil {
		return Quiz{}, Enrollment{}, lookup(err, ReasonEnrollmentNotFound, "course: find enrollment")
	}
	lessons, err := s.ListLessons(ctx, quiz.CourseID)
	if err != nil {
		return Quiz{}, Enrollment{}, errors.Wrap(err, "course: list lessons")
	}
	if len(lessons) == 0 {
		return Quiz{}, Enrollment{}, badRequest(ReasonNoLessons)
	}
	done, err := s.CompletedLessonIDs(ctx, enr.ID)
	if err != nil {
		return Quiz{}, Enrollment{}, errors.Wrap(err, "course: completed lessons")
	}
	if !done[lessons[len(lessons)-1].ID] {
		return Quiz{}, Enrollment{}, forbidden(ReasonPrerequisite)
	}
	passed, err := s.HasPassedAttempt(ctx, a.ID, quiz.ID)
	if err != nil {
		return Quiz{}, Enrollment{}, errors.Wrap(err, "course: passed attempt")
	}
	if passed {
		return Quiz{}, Enrollment{}, forbidden(ReasonAlreadyPassed)
	}
	return quiz, enr, nil
}
