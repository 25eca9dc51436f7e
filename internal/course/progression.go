package course

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-courses/internal/notify"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// LessonsWithState lists a course's lessons in order with their lock and
// completion flags for the actor. Without an enrollment every lesson reads
// as incomplete, so only the first one is unlocked.
func (e *Engine) LessonsWithState(ctx context.Context, a Actor, courseID string) ([]LessonState, error) {
	if err := e.authorize(a, rbac.PermLessonView); err != nil {
		return nil, err
	}
	if _, err := e.store.FindCourse(ctx, courseID); err != nil {
		return nil, lookup(err, ReasonCourseNotFound, "course: find course")
	}
	lessons, err := e.store.ListLessons(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "course: list lessons")
	}

	done := map[string]bool{}
	enr, err := e.store.FindEnrollment(ctx, a.ID, courseID)
	switch {
	case err == nil:
		if done, err = e.store.CompletedLessonIDs(ctx, enr.ID); err != nil {
			return nil, errors.Wrap(err, "course: completed lessons")
		}
	case !errors.Is(err, ErrNoRecord):
		return nil, errors.Wrap(err, "course: find enrollment")
	}

	return lessonStates(lessons, done), nil
}

// lessonStates walks lessons (ascending order) keeping a single frontier:
// once one lesson is incomplete every later lesson is locked, whatever its
// own progress row says.
func lessonStates(lessons []Lesson, done map[string]bool) []LessonState {
	out := make([]LessonState, 0, len(lessons))
	prevCompleted := true
	for i, l := range lessons {
		completed := done[l.ID]
		out = append(out, LessonState{
			ID:        l.ID,
			Title:     l.Title,
			Order:     l.Order,
			Completed: completed,
			Locked:    !prevCompleted,
			Final:     i == len(lessons)-1,
		})
		if !completed {
			prevCompleted = false
		}
	}
	return out
}

// CompleteLesson marks a lesson completed for the actor's enrollment.
// Completing an already completed lesson refreshes its timestamp.
func (e *Engine) CompleteLesson(ctx context.Context, a Actor, lessonID string) (LessonProgress, error) {
	if err := e.authorize(a, rbac.PermLessonComplete); err != nil {
		return LessonProgress{}, err
	}
	lesson, err := e.store.FindLesson(ctx, lessonID)
	if err != nil {
		return LessonProgress{}, lookup(err, ReasonLessonNotFound, "course: find lesson")
	}
	enr, err := e.store.FindEnrollment(ctx, a.ID, lesson.CourseID)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return LessonProgress{}, forbidden(ReasonNotEnrolled)
		}
		return LessonProgress{}, errors.Wrap(err, "course: find enrollment")
	}

	prev, err := e.store.FindLessonByOrder(ctx, lesson.CourseID, lesson.Order-1)
	hasPrev := err == nil
	if err != nil && !errors.Is(err, ErrNoRecord) {
		return LessonProgress{}, errors.Wrap(err, "course: find previous lesson")
	}
	if hasPrev {
		done, err := e.store.CompletedLessonIDs(ctx, enr.ID)
		if err != nil {
			return LessonProgress{}, errors.Wrap(err, "course: completed lessons")
		}
		if !done[prev.ID] {
			return LessonProgress{}, forbidden(ReasonSequence)
		}
		if e.opts.StrictQuizGate {
			if err := e.quizGate(ctx, a, prev); err != nil {
				return LessonProgress{}, err
			}
		}
	}

	var progress LessonProgress
	err = e.store.InTx(ctx, func(tx Store) error {
		var err error
		progress, err = tx.UpsertLessonProgress(ctx, enr.ID, lesson.ID, e.now())
		return err
	})
	if err != nil {
		return LessonProgress{}, errors.Wrap(err, "course: save progress")
	}

	e.emit(ctx, a.ID, notify.LessonComplete, fmt.Sprintf("You completed %q!", lesson.Title), map[string]interface{}{
		"lesson_id": lesson.ID,
		"course_id": lesson.CourseID,
	})
	return progress, nil
}

// quizGate rejects progress past the final lesson until the course quiz
// has a passed attempt.
func (e *Engine) quizGate(ctx context.Context, a Actor, prev Lesson) error {
	lessons, err := e.store.ListLessons(ctx, prev.CourseID)
	if err != nil {
		return errors.Wrap(err, "course: list lessons")
	}
	if len(lessons) == 0 || lessons[len(lessons)-1].ID != prev.ID {
		return nil
	}
	quiz, err := e.store.FindQuizByCourse(ctx, prev.CourseID)
	if errors.Is(err, ErrNoRecord) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "course: find quiz")
	}
	passed, err := e.store.HasPassedAttempt(ctx, a.ID, quiz.ID)
	if err != nil {
		return errors.Wrap(err, "course: passed attempt")
	}
	if !passed {
		return forbidden(ReasonQuizGate)
	}
	return nil
}
