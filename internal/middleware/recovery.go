package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/biyonik/rail-booking-api/internal/http/response"
)

// PanicRecovery turns a handler panic into a JSON 500 and logs the stack.
func PanicRecovery(logger Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Printf("❌ PANIC [%s] %s %s: %v\n%s",
						GetRequestID(r.Context()), r.Method, r.URL.Path, err, debug.Stack())
					response.ServerError(w, "")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
