package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/bloodlink/bloodlink/internal/auth"
	"github.com/bloodlink/bloodlink/internal/model"
)

// RequireRole returns middleware that enforces role requirements.
// Must be applied after Authenticate.
// If multiple roles are provided, having ANY of them is sufficient.
func RequireRole(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := auth.IdentityFromContext(r.Context())
			if id == nil {
				writeAuthError(w)
				return
			}

			if slices.Contains(required, id.Role) {
				next.ServeHTTP(w, r)
				return
			}

			writeRoleError(w, fmt.Sprintf("forbidden: requires %s role", required[0]))
		})
	}
}

// RequireAdmin is a convenience middleware for admin-only routes.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)
}

// writeRoleError writes a 403 Forbidden response.
func writeRoleError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(fmt.Sprintf(`{"message":%q}`, message)))
}
