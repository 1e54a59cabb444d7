package controllers

import (
	"net/http"

	"github.com/biyonik/rail-booking-api/internal/http/request"
	"github.com/biyonik/rail-booking-api/internal/http/response"
	"github.com/biyonik/rail-booking-api/internal/middleware"
	"github.com/biyonik/rail-booking-api/pkg/auth"
)

// Logger is the subset of *log.Logger the controllers use.
type Logger interface {
	Printf(format string, v ...any)
	Println(v ...any)
}

// respondError maps err through response.DomainError and logs the ones that
// become 500s, since their details are hidden from the client.
func respondError(w http.ResponseWriter, r *request.Request, logger Logger, err error) {
	if response.StatusFor(err) == http.StatusInternalServerError {
		logger.Printf("❌ %s %s [%s]: %v", r.Method, r.URL.Path, middleware.GetRequestID(r.Context()), err)
	}
	response.DomainError(w, err)
}

// caller returns the authenticated identity or writes 401.
func caller(w http.ResponseWriter, r *request.Request) (auth.Identity, bool) {
	id, err := r.Identity()
	if err != nil {
		response.Unauthorized(w, "")
		return auth.Identity{}, false
	}
	return id, true
}

// decode parses and validates a JSON body, writing 415 or 400 on failure.
func decode(w http.ResponseWriter, r *request.Request, dest validatable) bool {
	if !r.IsJSON() {
		response.Error(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	if err := r.ParseJSON(dest); err != nil {
		response.InvalidJSON(w, err)
		return false
	}
	if err := dest.Validate(); err != nil {
		response.DomainError(w, err)
		return false
	}
	return true
}
