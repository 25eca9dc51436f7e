package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-courses/internal/notify"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

var (
	rival = Actor{ID: "t2", Role: rbac.RoleInstructor}
	admin = Actor{ID: "root", Role: rbac.RoleAdmin}
)

func TestImportCannotTakeOverCourse(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.eng.ImportCourse(f.ctx, rival, Bundle{
		Course:  Course{ID: "c1", Title: "Mine now", Published: true},
		Lessons: []Lesson{{Title: "only", Order: 1}},
	})
	requireKind(t, err, KindForbidden, ReasonNotOwner)

	c, err := f.store.FindCourse(f.ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "t1", c.InstructorID)
	assert.Equal(t, "Go Basics", c.Title)
	lessons, err := f.store.ListLessons(f.ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, lessons, 3)

	b, err := f.eng.ImportCourse(f.ctx, admin, Bundle{
		Course:  Course{ID: "c1", Title: "Go Basics v2", Published: true},
		Lessons: []Lesson{{ID: "l1", Title: "Intro", Order: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", b.Course.InstructorID)

	_, err = f.eng.ImportCourse(f.ctx, instructor, Bundle{
		Course: Course{ID: "c1", Title: "Go Basics v3", Published: true},
	})
	require.NoError(t, err)
}

func TestImportRejectsIDsOwnedElsewhere(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.eng.ImportCourse(f.ctx, rival, Bundle{
		Course:  Course{ID: "c9", Title: "Rival"},
		Lessons: []Lesson{{ID: "l1", Title: "stolen", Order: 1}},
	})
	requireKind(t, err, KindConflict, ReasonIDInUse)

	_, err = f.eng.ImportCourse(f.ctx, rival, Bundle{
		Course: Course{ID: "c9", Title: "Rival"},
		Quiz:   &Quiz{ID: "q1", TotalMarks: 1},
	})
	requireKind(t, err, KindConflict, ReasonIDInUse)

	_, err = f.eng.ImportCourse(f.ctx, rival, Bundle{
		Course:    Course{ID: "c9", Title: "Rival"},
		Quiz:      &Quiz{ID: "q9", TotalMarks: 1},
		Questions: []Question{{ID: "1", Text: "x", OptionA: "a", OptionB: "b", CorrectOption: "A"}},
	})
	requireKind(t, err, KindConflict, ReasonIDInUse)

	l, err := f.store.FindLesson(f.ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "c1", l.CourseID)
	assert.Equal(t, "Intro", l.Title)
	q, err := f.store.FindQuizByCourse(f.ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "q1", q.ID)
	qs, err := f.store.ListQuestions(f.ctx, "q1")
	require.NoError(t, err)
	assert.Len(t, qs, 2)
	_, err = f.store.FindCourseAnyStatus(f.ctx, "c9")
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestReimportReplacesCourseQuiz(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.eng.ImportCourse(f.ctx, instructor, Bundle{
		Course:    Course{ID: "c1", Title: "Go Basics", Published: true},
		Lessons:   []Lesson{{ID: "l1", Title: "Intro", Order: 1}},
		Quiz:      &Quiz{ID: "q2", TotalMarks: 1},
		Questions: []Question{{ID: "3", Text: "third?", OptionA: "a", OptionB: "b", CorrectOption: "B"}},
	})
	require.NoError(t, err)

	q, err := f.store.FindQuizByCourse(f.ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "q2", q.ID)
	_, err = f.store.FindQuiz(f.ctx, "q1")
	assert.ErrorIs(t, err, ErrNoRecord)

	_, err = f.eng.ImportCourse(f.ctx, instructor, Bundle{
		Course:  Course{ID: "c1", Title: "Go Basics", Published: true},
		Lessons: []Lesson{{ID: "l1", Title: "Intro", Order: 1}},
	})
	require.NoError(t, err)
	_, err = f.store.FindQuizByCourse(f.ctx, "c1")
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestSetCourseStatus(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.eng.SetCourseStatus(f.ctx, student, "c1", false)
	requireKind(t, err, KindForbidden, "")
	_, err = f.eng.SetCourseStatus(f.ctx, rival, "c1", false)
	requireKind(t, err, KindForbidden, ReasonNotOwner)
	_, err = f.eng.SetCourseStatus(f.ctx, instructor, "nope", false)
	requireKind(t, err, KindNotFound, ReasonCourseNotFound)

	c, err := f.eng.SetCourseStatus(f.ctx, instructor, "c1", false)
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, c.Status)

	_, err = f.eng.LessonsWithState(f.ctx, student, "c1")
	requireKind(t, err, KindNotFound, ReasonCourseNotFound)
	_, err = f.eng.Enroll(f.ctx, student, "c1")
	requireKind(t, err, KindNotFound, ReasonCourseNotFound)

	c, err = f.eng.SetCourseStatus(f.ctx, admin, "c1", true)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, c.Status)
	_, err = f.eng.Enroll(f.ctx, student, "c1")
	require.NoError(t, err)
}

func TestSetCoursePublished(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.eng.SetCoursePublished(f.ctx, student, "draft", true)
	requireKind(t, err, KindForbidden, "")
	_, err = f.eng.SetCoursePublished(f.ctx, rival, "draft", true)
	requireKind(t, err, KindForbidden, ReasonNotOwner)

	_, err = f.eng.Enroll(f.ctx, student, "draft")
	requireKind(t, err, KindNotFound, ReasonCourseNotFound)

	c, err := f.eng.SetCoursePublished(f.ctx, instructor, "draft", true)
	require.NoError(t, err)
	assert.True(t, c.Published)
	assert.Equal(t, []notify.EventType{notify.NewCourse}, f.rec.types())

	_, err = f.eng.Enroll(f.ctx, student, "draft")
	require.NoError(t, err)

	_, err = f.eng.SetCoursePublished(f.ctx, instructor, "draft", true)
	require.NoError(t, err)
	assert.Equal(t, []notify.EventType{notify.NewCourse, notify.Enrolled}, f.rec.types())

	_, err = f.eng.SetCoursePublished(f.ctx, instructor, "c1", false)
	require.NoError(t, err)
	_, err = f.eng.Enroll(f.ctx, other, "c1")
	requireKind(t, err, KindNotFound, ReasonCourseNotFound)
}

func TestCertificateRequiresPublishedCourse(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.eng.Enroll(f.ctx, student, "c1")
	require.NoError(t, err)
	f.completeAll(t, student)
	_, err = f.eng.SubmitQuizAttempt(f.ctx, student, "q1", Answers{"1": "A", "2": "C"})
	require.NoError(t, err)

	_, err = f.eng.CertificateEligibility(f.ctx, student, "c1")
	require.NoError(t, err)

	require.NoError(t, f.store.SetCoursePublished(f.ctx, "c1", false))
	_, err = f.eng.CertificateEligibility(f.ctx, student, "c1")
	requireKind(t, err, KindNotFound, ReasonCourseNotFound)
}

func TestSetUserStatus(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.store.UpsertUser(f.ctx, User{ID: "root", Username: "root", Role: rbac.RoleAdmin})
	require.NoError(t, err)

	_, err = f.eng.SetUserStatus(f.ctx, instructor, "s2", false)
	requireKind(t, err, KindForbidden, "")
	_, err = f.eng.SetUserStatus(f.ctx, admin, "ghost", false)
	requireKind(t, err, KindNotFound, ReasonUserNotFound)
	_, err = f.eng.SetUserStatus(f.ctx, admin, "root", false)
	requireKind(t, err, KindForbidden, ReasonAdminStatus)
	_, err = f.eng.SetUserStatus(f.ctx, admin, "s2", true)
	requireKind(t, err, KindBadRequest, ReasonUserAlreadyActive)

	u, err := f.eng.SetUserStatus(f.ctx, admin, "s2", false)
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, u.Status)
	_, err = f.store.FindUser(f.ctx, "s2")
	assert.ErrorIs(t, err, ErrNoRecord)
	_, err = f.store.FindUserByUsername(f.ctx, "bob")
	assert.ErrorIs(t, err, ErrNoRecord)

	u, err = f.eng.SetUserStatus(f.ctx, admin, "s2", true)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, u.Status)
	_, err = f.store.FindUser(f.ctx, "s2")
	require.NoError(t, err)
}
