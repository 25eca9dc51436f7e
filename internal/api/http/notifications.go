package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	authmw "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	"github.com/mind-engage/mindengage-courses/internal/notify"
)

// NotificationsAPI serves the caller's own notifications.
type NotificationsAPI struct {
	Store notify.Store
	Log   logger.Logger
}

func (a *NotificationsAPI) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := a.Store.ListNotifications(r.Context(), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, a.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (a *NotificationsAPI) UnreadCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := a.Store.UnreadCount(r.Context(), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, a.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"unread_count": n})
	}
}

func (a *NotificationsAPI) MarkRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := a.Store.MarkRead(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "id"))
		if errors.Is(err, notify.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
			return
		}
		if err != nil {
			writeError(w, a.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Marked as read"})
	}
}

func (a *NotificationsAPI) MarkAllRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := a.Store.MarkAllRead(r.Context(), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, a.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"updated": n})
	}
}

// DELETE /notifications
func (a *NotificationsAPI) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := a.Store.Clear(r.Context(), authmw.SubjectFromContext(r.Context())); err != nil {
			writeError(w, a.Log, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *NotificationsAPI) Mount(r chi.Router) {
	r.Delete("/notifications", a.Clear())
	r.Get("/notifications", a.List())
	r.Get("/notifications/unread-count", a.UnreadCount())
	r.Post("/notifications/read-all", a.MarkAllRead())
	r.Post("/notifications/{id}/read", a.MarkRead())
}
