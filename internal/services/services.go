// -----------------------------------------------------------------------------
// Services
// -----------------------------------------------------------------------------
// Business layer between controllers and repositories. Services own the
// validation rules and the ordering of storage steps, announce state changes
// on the event dispatcher and convert raw storage failures into
// models.PersistenceError. Typed domain errors pass through untouched.
// -----------------------------------------------------------------------------

package services

import (
	"github.com/biyonik/rail-booking-api/internal/models"
)

// Logger is the subset of *log.Logger the services use.
type Logger interface {
	Printf(format string, v ...any)
	Println(v ...any)
}

// persistence wraps err as a PersistenceError unless it already carries a
// domain meaning.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case models.IsNotFound(err),
		models.IsConflict(err),
		models.IsSeatConflict(err),
		models.IsValidation(err),
		models.IsPersistence(err):
		return err
	}
	return models.PersistenceError{Op: op, Err: err}
}

// warnStraySeats logs booked seats that lie outside the train's seat space.
// The seat map leaves them out of its counters.
func warnStraySeats(logger Logger, train *models.Train) {
	if stray := train.SeatMap().OutOfRange(); len(stray) > 0 {
		logger.Printf("⚠️  Train %s has booked seats %v beyond its %d seats", train.ID, stray, train.TotalSeats)
	}
}
