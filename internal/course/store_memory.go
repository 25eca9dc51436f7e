package course

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

type memoryStore struct {
	txMu sync.Mutex // serializes InTx callers
	mu   sync.RWMutex

	users       map[string]User
	courses     map[string]Course
	lessons     map[string]Lesson
	enrollments map[string]Enrollment
	progress    map[string]LessonProgress // key: enrollment|lesson
	quizzes     map[string]Quiz
	questions   map[string][]Question // by quiz
	attempts    []QuizAttempt
	ratings     []Rating
}

// NewInMemoryStore returns a Store for tests and single-process demos.
// InTx serializes callers but does not roll back.
func NewInMemoryStore() Store {
	return &memoryStore{
		users:       map[string]User{},
		courses:     map[string]Course{},
		lessons:     map[string]Lesson{},
		enrollments: map[string]Enrollment{},
		progress:    map[string]LessonProgress{},
		quizzes:     map[string]Quiz{},
		questions:   map[string][]Question{},
	}
}

func isActive(s Status) bool { return s == "" || s == StatusActive }

func (m *memoryStore) FindCourse(_ context.Context, id string) (Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[id]
	if !ok || !isActive(c.Status) {
		return Course{}, ErrNoRecord
	}
	return c, nil
}

func (m *memoryStore) ListLessons(_ context.Context, courseID string) ([]Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Lesson{}
	for _, l := range m.lessons {
		if l.CourseID == courseID && isActive(l.Status) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *memoryStore) FindLesson(_ context.Context, id string) (Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lessons[id]
	if !ok || !isActive(l.Status) {
		return Lesson{}, ErrNoRecord
	}
	return l, nil
}

func (m *memoryStore) FindLessonByOrder(_ context.Context, courseID string, order int) (Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.lessons {
		if l.CourseID == courseID && l.Order == order && isActive(l.Status) {
			return l, nil
		}
	}
	return Lesson{}, ErrNoRecord
}

func (m *memoryStore) FindEnrollment(_ context.Context, studentID, courseID string) (Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID && isActive(e.Status) {
			return e, nil
		}
	}
	return Enrollment{}, ErrNoRecord
}

func (m *memoryStore) CreateEnrollment(_ context.Context, e Enrollment) (Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.enrollments {
		if x.StudentID == e.StudentID && x.CourseID == e.CourseID {
			return Enrollment{}, ErrDuplicate
		}
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = StatusActive
	}
	m.enrollments[e.ID] = e
	return e, nil
}

func (m *memoryStore) ListEnrollments(_ context.Context, studentID string) ([]Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Enrollment{}
	for _, e := range m.enrollments {
		if e.StudentID == studentID && isActive(e.Status) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrolledAt.After(out[j].EnrolledAt) })
	return out, nil
}

func progressKey(enrollmentID, lessonID string) string { return enrollmentID + "|" + lessonID }

func (m *memoryStore) CompletedLessonIDs(_ context.Context, enrollmentID string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]bool{}
	for _, p := range m.progress {
		if p.EnrollmentID == enrollmentID && p.Completed() {
			out[p.LessonID] = true
		}
	}
	return out, nil
}

func (m *memoryStore) UpsertLessonProgress(_ context.Context, enrollmentID, lessonID string, completedAt time.Time) (LessonProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := progressKey(enrollmentID, lessonID)
	p, ok := m.progress[k]
	if !ok {
		p = LessonProgress{ID: uuid.NewString(), EnrollmentID: enrollmentID, LessonID: lessonID}
	}
	at := completedAt
	p.CompletedAt = &at
	m.progress[k] = p
	return p, nil
}

func (m *memoryStore) FindQuiz(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok || !isActive(q.Status) {
		return Quiz{}, ErrNoRecord
	}
	return q, nil
}

func (m *memoryStore) FindQuizByCourse(_ context.Context, courseID string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, q := range m.quizzes {
		if q.CourseID == courseID && isActive(q.Status) {
			return q, nil
		}
	}
	return Quiz{}, ErrNoRecord
}

func (m *memoryStore) ListQuestions(_ context.Context, quizID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Question{}
	for _, q := range m.questions[quizID] {
		if isActive(q.Status) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memoryStore) HasPassedAttempt(_ context.Context, studentID, quizID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasPassedLocked(studentID, quizID), nil
}

func (m *memoryStore) hasPassedLocked(studentID, quizID string) bool {
	for _, a := range m.attempts {
		if a.StudentID == studentID && a.QuizID == quizID && a.Passed {
			return true
		}
	}
	return false
}

func (m *memoryStore) CreateQuizAttempt(_ context.Context, a QuizAttempt) (QuizAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.Passed && m.hasPassedLocked(a.StudentID, a.QuizID) {
		return QuizAttempt{}, ErrDuplicate
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m.attempts = append(m.attempts, a)
	return a, nil
}

func (m *memoryStore) ListQuizAttempts(_ context.Context, studentID, quizID string) ([]QuizAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []QuizAttempt{}
	for _, a := range m.attempts {
		if a.StudentID == studentID && a.QuizID == quizID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AttemptedAt.After(out[j].AttemptedAt) })
	return out, nil
}

func (m *memoryStore) FindLatestPassedAttempt(_ context.Context, studentID, courseID string) (QuizAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		best  QuizAttempt
		found bool
	)
	for _, a := range m.attempts {
		q, ok := m.quizzes[a.QuizID]
		if !ok || q.CourseID != courseID || a.StudentID != studentID || !a.Passed {
			continue
		}
		if !found || a.AttemptedAt.After(best.AttemptedAt) {
			best, found = a, true
		}
	}
	if !found {
		return QuizAttempt{}, ErrNoRecord
	}
	return best, nil
}

func (m *memoryStore) CreateRating(_ context.Context, r Rating) (Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.ratings {
		if x.StudentID == r.StudentID && x.CourseID == r.CourseID {
			return Rating{}, ErrDuplicate
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	m.ratings = append(m.ratings, r)
	return r, nil
}

func (m *memoryStore) ListRatings(_ context.Context, courseID string) ([]Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Rating{}
	for _, r := range m.ratings {
		if r.CourseID == courseID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) FindUser(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok || !isActive(u.Status) {
		return User{}, ErrNoRecord
	}
	return u, nil
}

func (m *memoryStore) FindUserByUsername(_ context.Context, username string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username && isActive(u.Status) {
			return u, nil
		}
	}
	return User{}, ErrNoRecord
}

func (m *memoryStore) UpsertUser(_ context.Context, u User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, x := range m.users {
		if id == u.ID || x.Username == u.Username {
			x.Username, x.Role = u.Username, u.Role
			if u.Email != "" {
				x.Email = u.Email
			}
			if u.PasswordHash != "" {
				x.PasswordHash = u.PasswordHash
			}
			m.users[id] = x
			return false, nil
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	m.users[u.ID] = u
	return true, nil
}

func (m *memoryStore) ListUsers(_ context.Context, role rbac.Role) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []User{}
	for _, u := range m.users {
		if isActive(u.Status) && (role == "" || u.Role == role) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memoryStore) SetPasswordHash(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNoRecord
	}
	u.PasswordHash = hash
	m.users[userID] = u
	return nil
}

func (m *memoryStore) PutBundle(_ context.Context, b Bundle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cid := b.Course.ID
	for _, l := range b.Lessons {
		if x, ok := m.lessons[l.ID]; ok && x.CourseID != cid {
			return ErrDuplicate
		}
	}
	quizID := ""
	if b.Quiz != nil {
		quizID = b.Quiz.ID
		if x, ok := m.quizzes[quizID]; ok && x.CourseID != cid {
			return ErrDuplicate
		}
		for _, q := range b.Questions {
			for qid, qs := range m.questions {
				if qid == quizID {
					continue
				}
				for _, x := range qs {
					if x.ID == q.ID {
						return ErrDuplicate
					}
				}
			}
		}
	}

	m.courses[cid] = b.Course
	for id, l := range m.lessons {
		if l.CourseID == cid {
			delete(m.lessons, id)
		}
	}
	for _, l := range b.Lessons {
		m.lessons[l.ID] = l
	}
	for id, q := range m.quizzes {
		if q.CourseID == cid && id != quizID {
			q.Status = StatusInactive
			m.quizzes[id] = q
		}
	}
	if b.Quiz != nil {
		m.quizzes[quizID] = *b.Quiz
		m.questions[quizID] = append([]Question(nil), b.Questions...)
	}
	return nil
}

func (m *memoryStore) FindCourseAnyStatus(_ context.Context, id string) (Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[id]
	if !ok {
		return Course{}, ErrNoRecord
	}
	return c, nil
}

func (m *memoryStore) SetCourseStatus(_ context.Context, id string, st Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return ErrNoRecord
	}
	c.Status = st
	m.courses[id] = c
	return nil
}

func (m *memoryStore) SetCoursePublished(_ context.Context, id string, published bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok || !isActive(c.Status) {
		return ErrNoRecord
	}
	c.Published = published
	m.courses[id] = c
	return nil
}

func (m *memoryStore) FindUserAnyStatus(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNoRecord
	}
	return u, nil
}

func (m *memoryStore) SetUserStatus(_ context.Context, id string, st Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNoRecord
	}
	u.Status = st
	m.users[id] = u
	return nil
}

func (m *memoryStore) InTx(_ context.Context, fn func(Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}
