package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

const bcryptCost = 12

type userRow struct {
	ID       string `json:"id"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"omitempty,oneof=student instructor admin"`
	Password string `json:"password,omitempty"` // plaintext optional (LAN-only)
}

type userView struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
	Role     rbac.Role `json:"role"`
}

// UsersAPI manages accounts in the users table.
type UsersAPI struct {
	Store  course.Store
	Engine *course.Engine
	Log    logger.Logger
	Cost   int // bcrypt cost; 0 means bcryptCost
}

func (a *UsersAPI) cost() int {
	if a.Cost == 0 {
		return bcryptCost
	}
	return a.Cost
}

// POST /users/bulk  JSON array, or multipart file= holding CSV or JSON.
func (a *UsersAPI) BulkUpsert() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			// sniff CSV vs JSON by the first byte
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				http.Error(w, "empty file", http.StatusBadRequest)
				return
			}
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				http.Error(w, "unreadable file", http.StatusBadRequest)
				return
			}
			if buf[0] == '[' || buf[0] == '{' {
				if err := json.NewDecoder(f).Decode(&rows); err != nil {
					http.Error(w, "bad json", http.StatusBadRequest)
					return
				}
			} else {
				rs, err := parseCSV(f)
				if err != nil {
					http.Error(w, "bad csv: "+err.Error(), http.StatusBadRequest)
					return
				}
				rows = rs
			}
		} else if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			http.Error(w, "expected JSON array or multipart file", http.StatusBadRequest)
			return
		}

		for i := range rows {
			if err := validate.Struct(&rows[i]); err != nil {
				http.Error(w, fmt.Sprintf("row %d: %s", i, validationMessage(err)), http.StatusBadRequest)
				return
			}
		}
		ins, upd, err := a.upsert(r, rows)
		if err != nil {
			var ce *course.Error
			if errors.As(err, &ce) {
				http.Error(w, ce.Reason, http.StatusBadRequest)
				return
			}
			writeError(w, a.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"inserted": ins, "updated": upd})
	}
}

func (a *UsersAPI) upsert(r *http.Request, rows []userRow) (inserted, updated int, err error) {
	ctx := r.Context()
	err = a.Store.InTx(ctx, func(tx course.Store) error {
		for _, row := range rows {
			role := rbac.Role(row.Role)
			if role == "" {
				role = rbac.RoleStudent
			}
			var phash string
			if row.Password != "" {
				b, err := bcrypt.GenerateFromPassword([]byte(row.Password), a.cost())
				if err != nil {
					return err
				}
				phash = string(b)
			}
			// new users need a password; existing ones keep theirs
			if phash == "" {
				if _, err := tx.FindUserByUsername(ctx, row.Username); errors.Is(err, course.ErrNoRecord) {
					return &course.Error{Kind: course.KindBadRequest, Reason: "password required for new user: " + row.Username}
				} else if err != nil {
					return err
				}
			}
			created, err := tx.UpsertUser(ctx, course.User{
				ID:           row.ID,
				Username:     row.Username,
				Email:        row.Email,
				Role:         role,
				PasswordHash: phash,
			})
			if err != nil {
				return err
			}
			if created {
				inserted++
			} else {
				updated++
			}
		}
		return nil
	})
	return
}

func parseCSV(r io.Reader) ([]userRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"username", "role"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	col := func(rec []string, name string) string {
		if i, ok := idx[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	var rows []userRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, userRow{
			ID:       col(rec, "id"),
			Username: col(rec, "username"),
			Email:    col(rec, "email"),
			Role:     strings.ToLower(col(rec, "role")),
			Password: col(rec, "password"),
		})
	}
	return rows, nil
}

// GET /users?role=student
func (a *UsersAPI) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := a.Store.ListUsers(r.Context(), rbac.Role(r.URL.Query().Get("role")))
		if err != nil {
			writeError(w, a.Log, r, err)
			return
		}
		out := make([]userView, 0, len(users))
		for _, u := range users {
			out = append(out, userView{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type userStatusReq struct {
	Active *bool `json:"is_active" validate:"required"`
}

// PATCH /users/{userID}/status  {"is_active": false}
func (a *UsersAPI) SetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userStatusReq
		if err := decode(r, &req); err != nil {
			writeError(w, a.Log, r, err)
			return
		}
		u, err := a.Engine.SetUserStatus(r.Context(), authmw.ActorFromContext(r.Context()), chi.URLParam(r, "userID"), *req.Active)
		if err != nil {
			writeError(w, a.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"user_id": u.ID, "status": u.Status})
	}
}
