package notify

import "time"

type EventType string

const (
	Enrolled       EventType = "ENROLLED"
	LessonComplete EventType = "LESSON_COMPLETE"
	QuizGraded     EventType = "QUIZ_GRADED"
	CourseComplete EventType = "COURSE_COMPLETE"
	NewCourse      EventType = "NEW_COURSE"
)

// Event is a user-facing notification emitted by the engine.
type Event struct {
	UserID  string
	Type    EventType
	Message string
	Data    map[string]interface{}
}

// Notification is a persisted Event.
type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Type      EventType              `json:"notification_type"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	Read      bool                   `json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
}
