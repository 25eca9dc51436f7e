package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

func hash(t *testing.T, pw string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

func newUsers(t *testing.T) course.Store {
	t.Helper()
	s := course.NewInMemoryStore()
	_, err := s.UpsertUser(context.Background(), course.User{ID: "u1", Username: "ann", Role: rbac.RoleStudent, PasswordHash: hash(t, "pw")})
	require.NoError(t, err)
	return s
}

func login(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	return rr
}

func TestLoginAndMiddleware(t *testing.T) {
	a := NewAuthService("secret")
	users := newUsers(t)
	h := LoginHandler(a, LoginConfig{EnableLocalAuth: true, AdminUser: "admin", AdminPassHash: hash(t, "root")}, users)

	rr := login(t, h, `{"username":"ann","password":"pw"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp loginResp
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, rbac.RoleStudent, resp.Role)

	var got course.Actor
	protected := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ActorFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/my-courses", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, course.Actor{ID: "u1", Role: rbac.RoleStudent}, got)

	rr = login(t, h, `{"username":"admin","password":"root"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, http.StatusUnauthorized, login(t, h, `{"username":"ann","password":"nope"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, login(t, h, `{"username":"ghost","password":"pw"}`).Code)
	assert.Equal(t, http.StatusBadRequest, login(t, h, `{"username":"ann"}`).Code)
}

func TestJWTMiddlewareRejects(t *testing.T) {
	a := NewAuthService("secret")
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	forged, err := NewAuthService("other").IssueJWT("u1", rbac.RoleAdmin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAttachRoleFromStore(t *testing.T) {
	users := newUsers(t)
	var role rbac.Role
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { role = rbac.RoleFromContext(r.Context()) })

	serve := func(sub string, claim rbac.Role, fallback bool) int {
		ctx := rbac.WithRole(WithSubject(context.Background(), sub), claim)
		rr := httptest.NewRecorder()
		AttachRoleFromStore(users, "admin", fallback)(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
		return rr.Code
	}

	// stored role wins over an inflated claim
	assert.Equal(t, http.StatusOK, serve("u1", rbac.RoleAdmin, false))
	assert.Equal(t, rbac.RoleStudent, role)

	assert.Equal(t, http.StatusOK, serve("admin", rbac.RoleAdmin, false))
	assert.Equal(t, rbac.RoleAdmin, role)

	assert.Equal(t, http.StatusForbidden, serve("ghost", rbac.RoleStudent, false))
	assert.Equal(t, http.StatusOK, serve("ghost", rbac.RoleStudent, true))
}
