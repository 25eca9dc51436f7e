package auth

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// AttachRoleFromStore replaces the token's role with the one stored for the
// subject, so demotions apply before the token expires. The configured
// admin has no users row and keeps its claim. allowClaimFallback=true in
// dev/offline; false in prod.
func AttachRoleFromStore(users UserFinder, adminUser string, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)
			claimRole := rbac.RoleFromContext(ctx)

			if sub != "" && sub == adminUser && claimRole == rbac.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			u, err := users.FindUser(ctx, sub)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, u.Role)))
			case allowClaimFallback && claimRole.Valid():
				next.ServeHTTP(w, r)
			case errors.Is(err, course.ErrNoRecord):
				http.Error(w, "unknown user", http.StatusForbidden)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
