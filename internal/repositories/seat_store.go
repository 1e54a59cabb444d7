// -----------------------------------------------------------------------------
// Seat Store
// -----------------------------------------------------------------------------
// Persistence for train occupancy. Every mutation is a single atomic storage
// operation: concurrent reservations are arbitrated by the store, never by a
// read-check-write cycle in Go code.
//
// Each booked seat records the ticket holding it. Release only frees seats
// still held by the given ticket, so a late or repeated cancel can never free
// a seat that another ticket has booked since.
//
// The store also owns the seat count it checks codes against. Resize and
// Reserve are atomic with respect to each other, so a booking can never land
// outside a seat space that is shrinking at the same time.
//
// Drivers:
//   - mysql:  one row per booked seat, primary key (train_id, seat_code);
//             the seat count is trains.total_seats, locked per statement
//   - redis:  one hash seat -> ticket per train plus a capacity key, Lua
//   - memory: mutex-guarded maps (tests, local development)
// -----------------------------------------------------------------------------

package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/biyonik/rail-booking-api/internal/models"
)

// SeatHold names the seats one ticket holds on one train.
type SeatHold struct {
	TrainID  string
	TicketID string
	Codes    []string

	// TotalSeats is the seat count the caller validated the codes against.
	// Drivers use it only for trains whose seat count they have not
	// recorded through Resize.
	TotalSeats int
}

// SeatStore is the seat occupancy contract shared by all drivers.
type SeatStore interface {
	// Reserve books every code for hold.TicketID or none. It returns
	// models.SeatConflictError when any code is already booked, listed
	// twice or outside the train's seat space.
	Reserve(ctx context.Context, hold SeatHold) error

	// Release frees the codes still held by hold.TicketID. Codes that are
	// free or held by another ticket are left alone.
	Release(ctx context.Context, hold SeatHold) error

	// Booked returns the current booked codes of a train.
	Booked(ctx context.Context, trainID string) ([]string, error)

	// Resize records a new seat count. It returns models.ConflictError,
	// without changes, when a booked seat lies beyond totalSeats.
	Resize(ctx context.Context, trainID string, totalSeats int) error

	// Clear drops every booking of a train (train deletion).
	Clear(ctx context.Context, trainID string) error
}

// seatsBeyond returns the codes that do not exist on a train with
// totalSeats seats, in seat order.
func seatsBeyond(totalSeats int, codes []string) []string {
	var out []string
	for _, code := range codes {
		if !models.IsValidSeatCode(totalSeats, code) {
			out = append(out, code)
		}
	}
	models.SortSeatCodes(out)
	return out
}

// resizeConflict is the error of a Resize blocked by booked seats.
func resizeConflict(totalSeats int, blocked []string) error {
	return models.ConflictError{
		Resource: "train",
		Msg:      fmt.Sprintf("seats %v are booked; totalSeats cannot drop to %d", blocked, totalSeats),
	}
}

// unavailableSeats returns the codes of a request that are listed twice,
// outside the seat space or reported taken by the driver.
func unavailableSeats(totalSeats int, codes []string, taken func(code string) bool) []string {
	var bad []string
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		_, dup := seen[code]
		if dup || !models.IsValidSeatCode(totalSeats, code) || taken(code) {
			bad = append(bad, code)
		}
		seen[code] = struct{}{}
	}
	return bad
}

// Seat store driver names accepted by NewSeatStore callers and config.
const (
	SeatStoreMySQL  = "mysql"
	SeatStoreRedis  = "redis"
	SeatStoreMemory = "memory"
)

// ValidSeatStoreDriver reports whether name is a known driver.
func ValidSeatStoreDriver(name string) bool {
	switch name {
	case SeatStoreMySQL, SeatStoreRedis, SeatStoreMemory:
		return true
	}
	return false
}

// NewSeatStore builds the configured driver. db is required for mysql,
// client for redis.
func NewSeatStore(driver string, db *sql.DB, client redis.UniversalClient, prefix string) (SeatStore, error) {
	switch driver {
	case SeatStoreMySQL:
		if db == nil {
			return nil, fmt.Errorf("seat store %q needs a database connection", driver)
		}
		return NewMySQLSeatStore(db), nil
	case SeatStoreRedis:
		if client == nil {
			return nil, fmt.Errorf("seat store %q needs a redis connection", driver)
		}
		return NewRedisSeatStore(client, prefix), nil
	case SeatStoreMemory:
		return NewMemorySeatStore(), nil
	default:
		return nil, fmt.Errorf("unknown seat store driver %q (mysql, redis or memory)", driver)
	}
}
