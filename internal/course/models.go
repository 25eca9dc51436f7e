package course

import (
	"time"

	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// Status is the lifecycle state of a stored entity. Stores only ever
// return StatusActive rows.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	ID   string    `json:"id"`
	Role rbac.Role `json:"role"`
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	Role         rbac.Role `json:"role"`
	PasswordHash string    `json:"-"`
	Status       Status    `json:"status"`
}

type Course struct {
	ID           string    `json:"id"`
	InstructorID string    `json:"instructor_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Published    bool      `json:"is_published"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type Lesson struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
	Content  string `json:"content,omitempty"`
	Order    int    `json:"lesson_order"`
	Status   Status `json:"status"`
}

type Enrollment struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	Status     Status    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// LessonProgress exists lazily; a nil CompletedAt means not completed.
type LessonProgress struct {
	ID           string     `json:"id"`
	EnrollmentID string     `json:"enrollment_id"`
	LessonID     string     `json:"lesson_id"`
	CompletedAt  *time.Time `json:"completed_at"`
}

func (p LessonProgress) Completed() bool { return p.CompletedAt != nil }

type Quiz struct {
	ID         string `json:"id"`
	CourseID   string `json:"course_id"`
	TotalMarks int    `json:"total_marks"`
	PassMarks  *int   `json:"pass_marks,omitempty"` // informational; pass/fail is percentage based
	Status     Status `json:"status"`
}

type Question struct {
	ID            string `json:"id"`
	QuizID        string `json:"quiz_id"`
	Text          string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c,omitempty"`
	OptionD       string `json:"option_d,omitempty"`
	CorrectOption string `json:"correct_option,omitempty"`
	Status        Status `json:"status"`
}

// QuizAttempt is append-only.
type QuizAttempt struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	QuizID      string    `json:"quiz_id"`
	Score       float64   `json:"score"`
	Passed      bool      `json:"is_passed"`
	AttemptedAt time.Time `json:"attempted_at"`
}

type Rating struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CourseID  string    `json:"course_id"`
	Rating    int       `json:"rating"`
	Feedback  string    `json:"feedback,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LessonState is one row of the student-facing lesson list.
type LessonState struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Order     int    `json:"lesson_order"`
	Completed bool   `json:"is_completed"`
	Locked    bool   `json:"is_locked"`
	Final     bool   `json:"is_final"`
}

// Answers maps a question id to the submitted option, already stringified.
type Answers map[string]string

// GradedAttempt is what SubmitQuizAttempt returns.
type GradedAttempt struct {
	Attempt        QuizAttempt `json:"data"`
	CorrectAnswers int         `json:"correct_answers"`
	TotalQuestions int         `json:"total_questions"`
}

// Certificate carries what an external certificate renderer needs.
type Certificate struct {
	CourseID    string    `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	StudentID   string    `json:"student_id"`
	AttemptID   string    `json:"attempt_id"`
	Score       float64   `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

type EnrolledCourse struct {
	CourseID       string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	EnrolledAt     time.Time  `json:"enrolled_at"`
	Completed      bool       `json:"is_completed"`
	CompletionDate *time.Time `json:"completion_date"`
}

type RatingSummary struct {
	CourseID      string   `json:"course_id"`
	CourseTitle   string   `json:"course_title"`
	AverageRating float64  `json:"average_rating"`
	TotalRatings  int      `json:"total_ratings"`
	Ratings       []Rating `json:"ratings"`
}

// Bundle is a full course upload: the course, its lessons and an optional quiz.
type Bundle struct {
	Course    Course     `json:"course"`
	Lessons   []Lesson   `json:"lessons"`
	Quiz      *Quiz      `json:"quiz,omitempty"`
	Questions []Question `json:"questions,omitempty"`
}
