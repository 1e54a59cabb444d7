// -----------------------------------------------------------------------------
// Authentication Middleware
// -----------------------------------------------------------------------------
// Verifies the bearer token (HS256, issuer checked) and stores the caller's
// auth.Identity in the request context. Tokens are issued elsewhere; this
// service only reads them.
//
//	api := r.Group("/tickets")
//	api.Use(middleware.Auth(cfg.JWT))
//
// Handlers read the caller with request.Identity() or auth.IdentityFrom.
// -----------------------------------------------------------------------------

package middleware

import (
	"net/http"

	"github.com/biyonik/rail-booking-api/internal/http/response"
	"github.com/biyonik/rail-booking-api/pkg/auth"
)

// Auth rejects requests without a valid token with 401.
func Auth(config auth.JWTConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractTokenFromHeader(r.Header.Get("Authorization"))
			if token == "" {
				response.Unauthorized(w, "bearer token required")
				return
			}

			claims, err := auth.ParseToken(token, config)
			if err != nil {
				response.Unauthorized(w, "invalid or expired token")
				return
			}

			identity := auth.IdentityFromClaims(claims)
			if identity.UserID == "" {
				response.Unauthorized(w, "token has no subject")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAuth attaches the identity when a valid token is present and lets
// anonymous requests through unchanged.
func OptionalAuth(config auth.JWTConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractTokenFromHeader(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(token, config)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), auth.IdentityFromClaims(claims))))
		})
	}
}
