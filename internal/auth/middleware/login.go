package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// UserFinder is the part of course.Store the auth layer reads.
type UserFinder interface {
	FindUser(ctx context.Context, id string) (course.User, error)
	FindUserByUsername(ctx context.Context, username string) (course.User, error)
}

type LoginConfig struct {
	EnableLocalAuth bool
	AdminUser       string
	AdminPassHash   string // bcrypt
}

type loginResp struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	Role        rbac.Role `json:"role"`
}

// POST /auth/login  { "username": "...", "password": "..." }
func LoginHandler(a *AuthService, cfg LoginConfig, users UserFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.EnableLocalAuth {
			http.Error(w, "local auth disabled", http.StatusForbidden)
			return
		}
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			http.Error(w, "username and password required", http.StatusBadRequest)
			return
		}

		var sub string
		var role rbac.Role
		if cfg.AdminUser != "" && req.Username == cfg.AdminUser {
			if bcrypt.CompareHashAndPassword([]byte(cfg.AdminPassHash), []byte(req.Password)) != nil {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			sub, role = cfg.AdminUser, rbac.RoleAdmin
		} else {
			u, err := users.FindUserByUsername(r.Context(), req.Username)
			if errors.Is(err, course.ErrNoRecord) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			if err != nil {
				http.Error(w, "login failed", http.StatusInternalServerError)
				return
			}
			if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			sub, role = u.ID, u.Role
		}

		tok, err := a.IssueJWT(sub, role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(loginResp{AccessToken: tok, UserID: sub, Role: role})
	}
}
