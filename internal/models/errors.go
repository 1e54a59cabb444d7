// -----------------------------------------------------------------------------
// Domain Errors
// -----------------------------------------------------------------------------
// Booking flows return typed errors so that controllers can map them to HTTP
// status codes with errors.As instead of matching message strings.
//
//	InvalidRouteError            -> 400
//	PassengerCountMismatchError  -> 400
//	ValidationError              -> 400
//	NotFoundError                -> 404
//	SeatConflictError            -> 409 (retryable with other seats)
//	AlreadyCancelledError        -> 409
//	ConflictError                -> 409
//	PersistenceError             -> 500
// -----------------------------------------------------------------------------

package models

import (
	"errors"
	"fmt"
	"strings"
)

// InvalidRouteError: from/to missing from the route, or from does not precede to.
type InvalidRouteError struct {
	From string
	To   string
}

func (e InvalidRouteError) Error() string {
	return fmt.Sprintf("invalid route: %q -> %q is not a forward segment of this train", e.From, e.To)
}

// PassengerCountMismatchError is returned when the number of selected seats
// differs from the declared passenger count.
type PassengerCountMismatchError struct {
	Seats      int
	Passengers int
}

func (e PassengerCountMismatchError) Error() string {
	return fmt.Sprintf("selected %d seat(s) for %d passenger(s)", e.Seats, e.Passengers)
}

// SeatConflictError lists the seats that were already booked or do not exist
// on the train. Nothing was persisted when it is returned.
type SeatConflictError struct {
	TrainID string
	Seats   []string
}

func (e SeatConflictError) Error() string {
	if len(e.Seats) == 0 {
		return "seat conflict"
	}
	return fmt.Sprintf("seat(s) not available: %s", strings.Join(e.Seats, ", "))
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

type AlreadyCancelledError struct {
	TicketID string
}

func (e AlreadyCancelledError) Error() string {
	return fmt.Sprintf("ticket %s is already cancelled", e.TicketID)
}

// PersistenceError wraps a storage-layer failure. It is never retried
// automatically.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("persistence failure during %s", e.Op)
	}
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	default:
		return "validation error"
	}
}

type ConflictError struct {
	Resource string
	Msg      string
}

func (e ConflictError) Error() string {
	switch {
	case e.Resource != "" && e.Msg != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func IsInvalidRoute(err error) bool {
	var target InvalidRouteError
	return errors.As(err, &target)
}

func IsPassengerCountMismatch(err error) bool {
	var target PassengerCountMismatchError
	return errors.As(err, &target)
}

func IsSeatConflict(err error) bool {
	var target SeatConflictError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsAlreadyCancelled(err error) bool {
	var target AlreadyCancelledError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target PersistenceError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}
