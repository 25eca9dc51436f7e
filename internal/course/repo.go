package course

import (
	"context"
	"time"

	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// Store is the entity store the engine runs against. Lookups return
// ErrNoRecord when nothing active matches and ErrDuplicate when a
// uniqueness constraint rejects a write.
type Store interface {
	FindCourse(ctx context.Context, id string) (Course, error)
	// FindCourseAnyStatus also returns inactive courses.
	FindCourseAnyStatus(ctx context.Context, id string) (Course, error)
	SetCourseStatus(ctx context.Context, id string, st Status) error
	SetCoursePublished(ctx context.Context, id string, published bool) error
	ListLessons(ctx context.Context, courseID string) ([]Lesson, error) // lesson_order ascending
	FindLesson(ctx context.Context, id string) (Lesson, error)
	FindLessonByOrder(ctx context.Context, courseID string, order int) (Lesson, error)

	FindEnrollment(ctx context.Context, studentID, courseID string) (Enrollment, error)
	CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
	ListEnrollments(ctx context.Context, studentID string) ([]Enrollment, error)

	CompletedLessonIDs(ctx context.Context, enrollmentID string) (map[string]bool, error)
	UpsertLessonProgress(ctx context.Context, enrollmentID, lessonID string, completedAt time.Time) (LessonProgress, error)

	FindQuiz(ctx context.Context, id string) (Quiz, error)
	FindQuizByCourse(ctx context.Context, courseID string) (Quiz, error)
	ListQuestions(ctx context.Context, quizID string) ([]Question, error)

	HasPassedAttempt(ctx context.Context, studentID, quizID string) (bool, error)
	CreateQuizAttempt(ctx context.Context, a QuizAttempt) (QuizAttempt, error)
	ListQuizAttempts(ctx context.Context, studentID, quizID string) ([]QuizAttempt, error) // newest first
	FindLatestPassedAttempt(ctx context.Context, studentID, courseID string) (QuizAttempt, error)

	CreateRating(ctx context.Context, r Rating) (Rating, error)
	ListRatings(ctx context.Context, courseID string) ([]Rating, error) // newest first

	FindUser(ctx context.Context, id string) (User, error)
	FindUserByUsername(ctx context.Context, username string) (User, error)
	FindUserAnyStatus(ctx context.Context, id string) (User, error)
	SetUserStatus(ctx context.Context, id string, st Status) error
	// UpsertUser matches on id or username; created reports an insert.
	UpsertUser(ctx context.Context, u User) (created bool, err error)
	ListUsers(ctx context.Context, role rbac.Role) ([]User, error) // by username; empty role lists all
	SetPasswordHash(ctx context.Context, userID, hash string) error

	// PutBundle inserts or replaces a course with its lessons, quiz and
	// questions. Lessons, quizzes and questions left out are retired. A
	// lesson, quiz or question id already owned by another parent yields
	// ErrDuplicate and nothing is written.
	PutBundle(ctx context.Context, b Bundle) error

	// InTx runs fn against a store bound to one transaction. fn's error
	// rolls the transaction back.
	InTx(ctx context.Context, fn func(Store) error) error
}
