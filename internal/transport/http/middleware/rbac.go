package middleware

import (
	"net/http"

	"hrms/internal/domain/auth"
	"hrms/internal/transport/http/api"
)

// RequireAction gates a route on the policy table. All role checks go
// through here; handlers only add owner-level constraints on top.
func RequireAction(resource, verb string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if !auth.Allowed(user.Role, resource, verb) {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
