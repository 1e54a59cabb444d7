// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------
// A middleware wraps an http.Handler. Global ones are installed on the router
// (request id, recovery, logging, CORS, rate limit); route ones on groups
// (auth, roles).
// -----------------------------------------------------------------------------

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type Middleware func(next http.Handler) http.Handler

// Logger is the subset of *log.Logger the middleware uses.
type Logger interface {
	Printf(format string, v ...any)
	Println(v ...any)
}

// Chain applies middlewares so that the first one runs first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestIDHeader is read from and echoed to clients.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID keeps a client supplied X-Request-ID or assigns a new UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the id assigned by RequestID.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// Logging writes one line per request with status and duration.
func Logging(logger Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			icon := "✅"
			switch {
			case status >= 500:
				icon = "❌"
			case status >= 400:
				icon = "⚠️ "
			}
			logger.Printf("%s %s %s %d %dB (%s) [%s]",
				icon, r.Method, r.URL.Path, status, rec.bytes, time.Since(start), GetRequestID(r.Context()))
		})
	}
}
