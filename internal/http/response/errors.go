// -----------------------------------------------------------------------------
// Error Responses
// -----------------------------------------------------------------------------
// Fixed-status helpers plus the single mapping from domain errors to HTTP
// status codes used by every controller.
// -----------------------------------------------------------------------------

package response

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/biyonik/rail-booking-api/internal/models"
)

// StatusFor maps a domain error to its HTTP status. Unknown errors are 500.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case models.IsValidation(err),
		models.IsInvalidRoute(err),
		models.IsPassengerCountMismatch(err):
		return http.StatusBadRequest
	case models.IsNotFound(err):
		return http.StatusNotFound
	case models.IsSeatConflict(err),
		models.IsAlreadyCancelled(err),
		models.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// DomainError writes err with the status of StatusFor. Server-side failures
// are reported without their internals. Seat conflicts carry the taken
// seats so clients can pick others.
func DomainError(w http.ResponseWriter, err error) int {
	status := StatusFor(err)

	if status == http.StatusInternalServerError {
		Error(w, status, "internal server error")
		return status
	}

	var conflict models.SeatConflictError
	if errors.As(err, &conflict) {
		Send(w, status, JSONResponse{
			Success: false,
			Error:   err.Error(),
			Data:    map[string]any{"seats": conflict.Seats},
		})
		return status
	}

	var invalid models.ValidationError
	if errors.As(err, &invalid) && invalid.Field != "" {
		Send(w, status, JSONResponse{
			Success: false,
			Error:   err.Error(),
			Data:    map[string][]string{invalid.Field: {invalid.Msg}},
		})
		return status
	}

	Error(w, status, err)
	return status
}

// InvalidJSON writes 400 for an undecodable body.
func InvalidJSON(w http.ResponseWriter, err error) {
	msg := "invalid JSON body"
	if err != nil {
		msg = err.Error()
	}
	Error(w, http.StatusBadRequest, msg)
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "authentication required"
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="rail-booking"`)
	Error(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "you are not allowed to perform this action"
	}
	Error(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "resource not found"
	}
	Error(w, http.StatusNotFound, message)
}

func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, http.StatusMethodNotAllowed, "method not allowed")
}

func ServerError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "internal server error"
	}
	Error(w, http.StatusInternalServerError, message)
}

// TooManyRequests writes 429 with Retry-After rounded up to whole seconds.
func TooManyRequests(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int((retryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	Error(w, http.StatusTooManyRequests, "too many requests, retry in "+strconv.Itoa(seconds)+"s")
}
