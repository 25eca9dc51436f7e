package course

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-courses/internal/grading"
	"github.com/mind-engage/mindengage-courses/internal/notify"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

const courseCompleteSubject = "🎉 Course Completed Successfully!"

// SubmitQuizAttempt grades answers against the quiz's questions and records
// one attempt. The score is the percentage of correct answers; 50 or more
// passes.
func (e *Engine) SubmitQuizAttempt(ctx context.Context, a Actor, quizID string, answers Answers) (GradedAttempt, error) {
	if err := e.authorize(a, rbac.PermQuizAttempt); err != nil {
		return GradedAttempt{}, err
	}
	quiz, _, err := e.checkAttempt(ctx, e.store, a, quizID)
	if err != nil {
		return GradedAttempt{}, err
	}
	if answers == nil {
		return GradedAttempt{}, badRequest(ReasonMalformedAnswers)
	}
	questions, err := e.store.ListQuestions(ctx, quiz.ID)
	if err != nil {
		return GradedAttempt{}, errors.Wrap(err, "course: list questions")
	}
	if len(questions) == 0 {
		return GradedAttempt{}, badRequest(ReasonNoQuestions)
	}

	qs := make([]grading.Q, 0, len(questions))
	for _, q := range questions {
		qs = append(qs, grading.Q{ID: q.ID, Type: grading.TypeMCQ, Points: 1, AnswerKey: []string{q.CorrectOption}})
	}
	score, err := grading.ScoreQuiz(ctx, e.opts.Grader, qs, answers)
	if err != nil {
		return GradedAttempt{}, errors.Wrap(err, "course: grade")
	}

	attempt := QuizAttempt{
		ID:          uuid.NewString(),
		StudentID:   a.ID,
		QuizID:      quiz.ID,
		Score:       score.Percent,
		Passed:      score.Passed,
		AttemptedAt: e.now(),
	}
	err = e.store.InTx(ctx, func(tx Store) error {
		// re-check inside the transaction; the partial unique index covers
		// whatever still slips through
		passed, err := tx.HasPassedAttempt(ctx, a.ID, quiz.ID)
		if err != nil {
			return err
		}
		if passed {
			return forbidden(ReasonAlreadyPassed)
		}
		attempt, err = tx.CreateQuizAttempt(ctx, attempt)
		return err
	})
	switch {
	case errors.Is(err, ErrDuplicate):
		return GradedAttempt{}, forbidden(ReasonAlreadyPassed)
	case KindOf(err) != KindInternal:
		return GradedAttempt{}, err
	case err != nil:
		return GradedAttempt{}, errors.Wrap(err, "course: save attempt")
	}

	e.afterGrading(ctx, a, quiz, attempt)
	return GradedAttempt{Attempt: attempt, CorrectAnswers: score.Correct, TotalQuestions: score.Total}, nil
}

func (e *Engine) afterGrading(ctx context.Context, a Actor, quiz Quiz, attempt QuizAttempt) {
	title := ""
	if c, err := e.store.FindCourse(ctx, quiz.CourseID); err == nil {
		title = c.Title
	} else {
		e.log.Warn("course lookup after grading failed", err, map[string]interface{}{"course_id": quiz.CourseID})
	}

	outcome := "Try again"
	if attempt.Passed {
		outcome = "Passed!"
	}
	e.emit(ctx, a.ID, notify.QuizGraded, fmt.Sprintf("Quiz graded: %.0f%% - %s", attempt.Score, outcome), map[string]interface{}{
		"quiz_id":      quiz.ID,
		"course_id":    quiz.CourseID,
		"course_title": title,
		"score":        attempt.Score,
		"is_passed":    attempt.Passed,
	})
	if !attempt.Passed {
		return
	}

	e.emit(ctx, a.ID, notify.CourseComplete, fmt.Sprintf("You completed %q!", title), map[string]interface{}{
		"course_id": quiz.CourseID,
		"quiz_id":   quiz.ID,
	})
	e.email(ctx, a.ID, courseCompleteSubject, fmt.Sprintf(
		"Congratulations! You passed the quiz for the course '%s'.\n\nScore: %.0f%%\n\nKeep learning!\n- %s\n",
		title, attempt.Score, e.opts.AppName))
}
