package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	"github.com/mind-engage/mindengage-courses/internal/notify"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

type testServer struct {
	t     *testing.T
	srv   *httptest.Server
	auth  *authmw.AuthService
	store course.Store
	notes notify.Store
	disp  *notify.Dispatcher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	log := logger.Discard()
	store := course.NewInMemoryStore()
	notes := notify.NewInMemoryStore()
	disp := notify.NewDispatcher(notes, notify.NewConsoleMailer(log, "Test", "noreply@localhost"), log, 64)
	disp.Start(ctx)
	t.Cleanup(disp.Close)

	hash, err := bcrypt.GenerateFromPassword([]byte("old-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = store.UpsertUser(ctx, course.User{ID: "s1", Username: "ann", Email: "ann@example.com", Role: rbac.RoleStudent, PasswordHash: string(hash)})
	require.NoError(t, err)
	require.NoError(t, store.PutBundle(ctx, course.Bundle{
		Course: course.Course{ID: "c1", InstructorID: "t1", Title: "Go Basics", Published: true},
		Lessons: []course.Lesson{
			{ID: "l1", CourseID: "c1", Title: "Intro", Order: 1},
			{ID: "l2", CourseID: "c1", Title: "Wrap up", Order: 2},
		},
		Quiz: &course.Quiz{ID: "q1", CourseID: "c1", TotalMarks: 2},
		Questions: []course.Question{
			{ID: "1", QuizID: "q1", Text: "?", OptionA: "a", OptionB: "b", CorrectOption: "A"},
			{ID: "2", QuizID: "q1", Text: "?", OptionA: "a", OptionB: "b", OptionC: "c", CorrectOption: "C"},
		},
	}))

	checker := rbac.NewChecker(nil)
	eng := course.New(store, disp, checker, log, course.Options{})
	auth := authmw.NewAuthService("test-secret")

	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(auth))
		(&CourseAPI{Engine: eng, Log: log}).Mount(pr)
		(&NotificationsAPI{Store: notes, Log: log}).Mount(pr)
		users := &UsersAPI{Store: store, Engine: eng, Log: log, Cost: bcrypt.MinCost}
		pr.With(checker.Require(rbac.PermUsersManage)).Post("/users/bulk", users.BulkUpsert())
		pr.With(checker.RequireAny(rbac.PermUsersManage, rbac.PermUsersList)).Get("/users", users.List())
		pr.With(checker.Require(rbac.PermUsersManage)).Patch("/users/{userID}/status", users.SetStatus())
		pr.Post("/users/change-password", users.ChangePassword())
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv, auth: auth, store: store, notes: notes, disp: disp}
}

func (s *testServer) token(sub string, role rbac.Role) string {
	tok, err := s.auth.IssueJWT(sub, role)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path, tok, contentType string, body []byte) (*http.Response, []byte) {
	s.t.Helper()
	req, err := http.NewRequest(method, s.srv.URL+path, bytes.NewReader(body))
	require.NoError(s.t, err)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func (s *testServer) json(method, path, tok, body string) (int, map[string]interface{}) {
	s.t.Helper()
	resp, raw := s.do(method, path, tok, "application/json", []byte(body))
	out := map[string]interface{}{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestStudentFlow(t *testing.T) {
	s := newTestServer(t)
	tok := s.token("s1", rbac.RoleStudent)

	code, _ := s.json(http.MethodPost, "/courses/c1/enroll", tok, "")
	require.Equal(t, http.StatusCreated, code)
	code, body := s.json(http.MethodPost, "/courses/c1/enroll", tok, "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, course.ReasonAlreadyEnrolled, body["error"])

	resp, raw := s.do(http.MethodGet, "/courses/c1/lessons", tok, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var states []course.LessonState
	require.NoError(t, json.Unmarshal(raw, &states))
	require.Len(t, states, 2)
	assert.True(t, states[1].Locked)

	code, body = s.json(http.MethodPost, "/lessons/l2/complete", tok, "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, course.ReasonSequence, body["error"])

	code, body = s.json(http.MethodGet, "/quizzes/q1/eligibility", tok, "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, course.ReasonPrerequisite, body["error"])

	for _, id := range []string{"l1", "l2"} {
		code, _ = s.json(http.MethodPost, "/lessons/"+id+"/complete", tok, "")
		require.Equal(t, http.StatusOK, code)
	}
	code, body = s.json(http.MethodGet, "/quizzes/q1/eligibility", tok, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["eligible"])

	code, body = s.json(http.MethodPost, "/quizzes/q1/attempt", tok, `{"answers":["A","C"]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, course.ReasonMalformedAnswers, body["error"])

	code, body = s.json(http.MethodPost, "/quizzes/q1/attempt", tok, `{"answers":{"1":0,"2":"c"}}`)
	require.Equal(t, http.StatusCreated, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, 100.0, data["score"])
	assert.Equal(t, true, data["is_passed"])

	code, body = s.json(http.MethodPost, "/quizzes/q1/attempt", tok, `{"answers":{"1":"A","2":"C"}}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, course.ReasonAlreadyPassed, body["error"])

	code, body = s.json(http.MethodGet, "/certificates/c1", tok, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Go Basics", body["course_title"])

	resp, raw = s.do(http.MethodGet, "/quizzes/q1/results", tok, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var attempts []course.QuizAttempt
	require.NoError(t, json.Unmarshal(raw, &attempts))
	assert.Len(t, attempts, 1)

	code, _ = s.json(http.MethodPost, "/courses/c1/rate", tok, `{"rating":5,"feedback":"great"}`)
	assert.Equal(t, http.StatusCreated, code)
	code, _ = s.json(http.MethodPost, "/courses/c1/rate", tok, `{"rating":9}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, body = s.json(http.MethodGet, "/courses/c1/ratings", tok, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 5.0, body["average_rating"])

	resp, raw = s.do(http.MethodGet, "/my-courses", tok, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []course.EnrolledCourse
	require.NoError(t, json.Unmarshal(raw, &mine))
	require.Len(t, mine, 1)
	assert.True(t, mine[0].Completed)
}

func TestNotificationsEndpoints(t *testing.T) {
	s := newTestServer(t)
	tok := s.token("s1", rbac.RoleStudent)

	code, _ := s.json(http.MethodPost, "/courses/c1/enroll", tok, "")
	require.Equal(t, http.StatusCreated, code)
	code, _ = s.json(http.MethodPost, "/lessons/l1/complete", tok, "")
	require.Equal(t, http.StatusOK, code)
	s.disp.Close() // drain

	resp, raw := s.do(http.MethodGet, "/notifications", tok, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []notify.Notification
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 2)
	types := []notify.EventType{list[0].Type, list[1].Type}
	assert.ElementsMatch(t, []notify.EventType{notify.Enrolled, notify.LessonComplete}, types)

	code, body := s.json(http.MethodGet, "/notifications/unread-count", tok, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2.0, body["unread_count"])

	code, _ = s.json(http.MethodPost, "/notifications/"+list[0].ID+"/read", tok, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.json(http.MethodPost, "/notifications/missing/read", tok, "")
	assert.Equal(t, http.StatusNotFound, code)
	code, body = s.json(http.MethodPost, "/notifications/read-all", tok, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["updated"])
}

func TestAuthAndRoles(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.json(http.MethodGet, "/my-courses", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := s.json(http.MethodPost, "/lessons/l1/complete", s.token("t1", rbac.RoleInstructor), "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, body["error"], "may not")

	code, _ = s.json(http.MethodPost, "/users/bulk", s.token("s1", rbac.RoleStudent), `[]`)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestImportCourseEndpoint(t *testing.T) {
	s := newTestServer(t)
	tok := s.token("t1", rbac.RoleInstructor)

	code, body := s.json(http.MethodPost, "/courses/import", tok, `{
		"course": {"title": "Rust", "is_published": true},
		"lessons": [{"title": "one", "lesson_order": 1}],
		"quiz": {"total_marks": 1},
		"questions": [{"question_text": "?", "option_a": "x", "option_b": "y", "correct_option": "b"}]
	}`)
	require.Equal(t, http.StatusCreated, code)
	c := body["course"].(map[string]interface{})
	assert.Equal(t, "t1", c["instructor_id"])

	code, _ = s.json(http.MethodPost, "/courses/import", tok, `{"course": {"title": ""}}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUsersEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.token("admin", rbac.RoleAdmin)

	code, body := s.json(http.MethodPost, "/users/bulk", admin,
		`[{"username":"bob","role":"student","password":"pw1","email":"bob@example.com"},{"username":"ann","role":"instructor"}]`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["inserted"])
	assert.Equal(t, 1.0, body["updated"])

	code, _ = s.json(http.MethodPost, "/users/bulk", admin, `[{"username":"eve","role":"wizard","password":"x"}]`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.json(http.MethodPost, "/users/bulk", admin, `[{"username":"nopass"}]`)
	assert.Equal(t, http.StatusBadRequest, code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "users.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("username,role,email,password\ncarl,student,carl@example.com,pw\n"))
	require.NoError(t, mw.Close())
	resp, raw := s.do(http.MethodPost, "/users/bulk", admin, mw.FormDataContentType(), buf.Bytes())
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = s.do(http.MethodGet, "/users?role=student", admin, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []userView
	require.NoError(t, json.Unmarshal(raw, &users))
	names := []string{}
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.Equal(t, []string{"bob", "carl"}, names)

	tok := s.token("s1", rbac.RoleStudent)
	code, _ = s.json(http.MethodPost, "/users/change-password", tok, `{"old_password":"wrong","new_password":"new-secret"}`)
	assert.Equal(t, http.StatusForbidden, code)
	resp, _ = s.do(http.MethodPost, "/users/change-password", tok, "application/json",
		[]byte(`{"old_password":"old-secret","new_password":"new-secret"}`))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	u, err := s.store.FindUser(context.Background(), "s1")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("new-secret")))
}

func TestStringifyAnswers(t *testing.T) {
	got, err := stringifyAnswers(map[string]interface{}{"1": 2.0, "2": " b "})
	require.NoError(t, err)
	assert.Equal(t, course.Answers{"1": "2", "2": " b "}, got)

	_, err = stringifyAnswers(map[string]interface{}{"1": 1.5})
	assert.Error(t, err)
	_, err = stringifyAnswers(map[string]interface{}{"1": true})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "question 1"))
}

func TestCourseLifecycleEndpoints(t *testing.T) {
	s := newTestServer(t)
	owner := s.token("t1", rbac.RoleInstructor)
	stud := s.token("s1", rbac.RoleStudent)

	code, body := s.json(http.MethodPatch, "/courses/c1/publish", s.token("t2", rbac.RoleInstructor), `{"is_published": false}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, course.ReasonNotOwner, body["error"])
	code, _ = s.json(http.MethodPatch, "/courses/c1/publish", owner, `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.json(http.MethodPatch, "/courses/c1/publish", owner, `{"is_published": false}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["is_published"])
	assert.Equal(t, "Course unpublished", body["message"])
	code, _ = s.json(http.MethodPost, "/courses/c1/enroll", stud, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.json(http.MethodPatch, "/courses/c1/publish", owner, `{"is_published": true}`)
	require.Equal(t, http.StatusOK, code)

	code, body = s.json(http.MethodPatch, "/courses/c1/status", owner, `{"is_active": false}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "inactive", body["status"])
	code, _ = s.json(http.MethodGet, "/courses/c1/lessons", stud, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.json(http.MethodPatch, "/courses/c1/status", stud, `{"is_active": true}`)
	assert.Equal(t, http.StatusForbidden, code)
	code, body = s.json(http.MethodPatch, "/courses/c1/status", s.token("root", rbac.RoleAdmin), `{"is_active": true}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "active", body["status"])
	code, _ = s.json(http.MethodPost, "/courses/c1/enroll", stud, "")
	assert.Equal(t, http.StatusCreated, code)
}

func TestUserStatusEndpoint(t *testing.T) {
	s := newTestServer(t)
	admin := s.token("root", rbac.RoleAdmin)

	code, _ := s.json(http.MethodPatch, "/users/s1/status", s.token("t1", rbac.RoleInstructor), `{"is_active": false}`)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.json(http.MethodPatch, "/users/ghost/status", admin, `{"is_active": false}`)
	assert.Equal(t, http.StatusNotFound, code)
	code, body := s.json(http.MethodPatch, "/users/s1/status", admin, `{"is_active": true}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, course.ReasonUserAlreadyActive, body["error"])

	code, body = s.json(http.MethodPatch, "/users/s1/status", admin, `{"is_active": false}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "s1", body["user_id"])
	assert.Equal(t, "inactive", body["status"])
	_, err := s.store.FindUserByUsername(context.Background(), "ann")
	assert.ErrorIs(t, err, course.ErrNoRecord)
}

func TestClearNotificationsEndpoint(t *testing.T) {
	s := newTestServer(t)
	tok := s.token("s1", rbac.RoleStudent)

	code, _ := s.json(http.MethodPost, "/courses/c1/enroll", tok, "")
	require.Equal(t, http.StatusCreated, code)
	s.disp.Close() // drain

	resp, _ := s.do(http.MethodDelete, "/notifications", tok, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	code, body := s.json(http.MethodGet, "/notifications/unread-count", tok, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, body["unread_count"])
}
