package course

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-courses/internal/notify"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// ImportCourse stores a whole course bundle. Missing ids are generated and
// the importing actor becomes the instructor unless an admin names one.
// Re-importing an existing course requires owning it (or being admin).
func (e *Engine) ImportCourse(ctx context.Context, a Actor, b Bundle) (Bundle, error) {
	if err := e.authorize(a, rbac.PermCourseImport); err != nil {
		return Bundle{}, err
	}
	if b.Course.ID != "" {
		existing, err := e.store.FindCourseAnyStatus(ctx, b.Course.ID)
		switch {
		case err == nil:
			if err := e.owns(a, existing); err != nil {
				return Bundle{}, err
			}
			if b.Course.InstructorID == "" {
				b.Course.InstructorID = existing.InstructorID
			}
			b.Course.CreatedAt = existing.CreatedAt
		case !errors.Is(err, ErrNoRecord):
			return Bundle{}, errors.Wrap(err, "course: find course")
		}
	}
	if err := normalizeBundle(&b, a, e.now()); err != nil {
		return Bundle{}, err
	}
	if err := e.store.PutBundle(ctx, b); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Bundle{}, conflict(ReasonIDInUse)
		}
		return Bundle{}, errors.Wrap(err, "course: put bundle")
	}
	if b.Course.Published {
		e.emit(ctx, b.Course.InstructorID, notify.NewCourse, fmt.Sprintf("Course '%s' is now published", b.Course.Title), map[string]interface{}{
			"course_id":    b.Course.ID,
			"course_title": b.Course.Title,
		})
	}
	return b, nil
}

func normalizeBundle(b *Bundle, a Actor, now time.Time) error {
	c := &b.Course
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return badRequest("course title is required")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.InstructorID == "" || a.Role != rbac.RoleAdmin {
		c.InstructorID = a.ID
	}
	c.Status = StatusActive
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}

	seen := map[int]bool{}
	for i := range b.Lessons {
		l := &b.Lessons[i]
		if strings.TrimSpace(l.Title) == "" {
			return badRequest(fmt.Sprintf("lesson %d: title is required", i))
		}
		if seen[l.Order] {
			return badRequest(fmt.Sprintf("lesson %d: duplicate lesson_order %d", i, l.Order))
		}
		seen[l.Order] = true
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		l.CourseID = c.ID
		l.Status = StatusActive
	}

	if b.Quiz == nil {
		if len(b.Questions) > 0 {
			return badRequest("questions require a quiz")
		}
		return nil
	}
	q := b.Quiz
	if q.TotalMarks <= 0 {
		return badRequest("quiz total_marks must be positive")
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.CourseID = c.ID
	q.Status = StatusActive
	for i := range b.Questions {
		qu := &b.Questions[i]
		if strings.TrimSpace(qu.Text) == "" || qu.OptionA == "" || qu.OptionB == "" {
			return badRequest(fmt.Sprintf("question %d: text and options A and B are required", i))
		}
		qu.CorrectOption = strings.ToUpper(strings.TrimSpace(qu.CorrectOption))
		switch qu.CorrectOption {
		case "A", "B":
		case "C":
			if qu.OptionC == "" {
				return badRequest(fmt.Sprintf("question %d: correct option C is empty", i))
			}
		case "D":
			if qu.OptionD == "" {
				return badRequest(fmt.Sprintf("question %d: correct option D is empty", i))
			}
		default:
			return badRequest(fmt.Sprintf("question %d: correct_option must be one of A-D", i))
		}
		if qu.ID == "" {
			qu.ID = uuid.NewString()
		}
		qu.QuizID = q.ID
		qu.Status = StatusActive
	}
	return nil
}
