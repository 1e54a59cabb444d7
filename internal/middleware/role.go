package middleware

import (
	"net/http"

	"github.com/biyonik/rail-booking-api/internal/http/response"
	"github.com/biyonik/rail-booking-api/pkg/auth"
)

// Role allows callers holding any of allowedRoles. It must run after Auth;
// without an identity the request is 401, with the wrong role 403.
func Role(allowedRoles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFrom(r.Context())
			if !ok {
				response.Unauthorized(w, "")
				return
			}
			if !identity.HasRole(allowedRoles...) {
				response.Forbidden(w, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Admin is Role(auth.RoleAdmin).
func Admin() Middleware {
	return Role(auth.RoleAdmin)
}
