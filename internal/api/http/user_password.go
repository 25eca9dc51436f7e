package http

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	authmw "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/course"
)

type changePasswordReq struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// POST /users/change-password
func (a *UsersAPI) ChangePassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req changePasswordReq
		if err := decode(r, &req); err != nil {
			writeError(w, a.Log, r, err)
			return
		}

		u, err := a.Store.FindUser(r.Context(), userID)
		if errors.Is(err, course.ErrNoRecord) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			writeError(w, a.Log, r, err)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.OldPassword)) != nil {
			http.Error(w, "incorrect old password", http.StatusForbidden)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), a.cost())
		if err != nil {
			writeError(w, a.Log, r, err)
			return
		}
		if err := a.Store.SetPasswordHash(r.Context(), userID, string(hash)); err != nil {
			writeError(w, a.Log, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
