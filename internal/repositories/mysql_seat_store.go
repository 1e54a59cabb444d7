package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/biyonik/rail-booking-api/internal/models"
	"github.com/biyonik/rail-booking-api/pkg/database"
)

// MySQLSeatStore stores one row per booked seat in train_seats, tagged with
// the ticket holding it. The primary key (train_id, seat_code) makes a second
// booking of the same seat a duplicate-key error, and a multi-row INSERT is
// one statement, so InnoDB either inserts every row or none.
//
// The seat space is trains.total_seats. Reserve reads it under a shared row
// lock and Resize changes it under an exclusive one, so the two serialise per
// train while reservations on the same train still run side by side.
type MySQLSeatStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewMySQLSeatStore(db *sql.DB) *MySQLSeatStore {
	return &MySQLSeatStore{db: db, now: time.Now}
}

func (s *MySQLSeatStore) Reserve(ctx context.Context, hold SeatHold) error {
	if len(hold.Codes) == 0 {
		return nil
	}

	return database.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		total, err := s.totalSeats(ctx, tx, hold.TrainID, "LOCK IN SHARE MODE")
		if err != nil {
			return err
		}
		if bad := unavailableSeats(total, hold.Codes, func(string) bool { return false }); len(bad) > 0 {
			return models.SeatConflictError{TrainID: hold.TrainID, Seats: bad}
		}

		values := make([]string, 0, len(hold.Codes))
		args := make([]any, 0, len(hold.Codes)*4)
		bookedAt := s.now().UTC()
		for _, code := range hold.Codes {
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, hold.TrainID, code, hold.TicketID, bookedAt)
		}

		query := "INSERT INTO train_seats (train_id, seat_code, ticket_id, booked_at) VALUES " + strings.Join(values, ", ")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if database.IsDuplicateEntry(err) {
				return models.SeatConflictError{TrainID: hold.TrainID, Seats: conflicting(ctx, tx, hold.TrainID, hold.Codes)}
			}
			return fmt.Errorf("failed to reserve seats: %w", err)
		}
		return nil
	})
}

// totalSeats reads the seat count of a train with the given locking clause.
func (s *MySQLSeatStore) totalSeats(ctx context.Context, tx *sql.Tx, trainID, lock string) (int, error) {
	var total int
	err := tx.QueryRowContext(ctx, "SELECT total_seats FROM trains WHERE id = ? "+lock, trainID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.NotFoundError{Resource: "train", ID: trainID}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load seat count: %w", err)
	}
	return total, nil
}

// conflicting names the requested seats that are booked, for the error
// message only. The INSERT already decided the outcome.
func conflicting(ctx context.Context, db database.QueryExecutor, trainID string, codes []string) []string {
	args := make([]any, 0, len(codes)+1)
	args = append(args, trainID)
	for _, code := range codes {
		args = append(args, code)
	}

	query := "SELECT seat_code FROM train_seats WHERE train_id = ? AND seat_code IN (" + database.Placeholders(len(codes)) + ")"
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return codes
	}
	defer rows.Close()

	var taken []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return codes
		}
		taken = append(taken, code)
	}
	if len(taken) == 0 {
		return codes
	}
	models.SortSeatCodes(taken)
	return taken
}

func (s *MySQLSeatStore) Release(ctx context.Context, hold SeatHold) error {
	if len(hold.Codes) == 0 {
		return nil
	}

	args := make([]any, 0, len(hold.Codes)+2)
	args = append(args, hold.TrainID, hold.TicketID)
	for _, code := range hold.Codes {
		args = append(args, code)
	}

	query := "DELETE FROM train_seats WHERE train_id = ? AND ticket_id = ? AND seat_code IN (" + database.Placeholders(len(hold.Codes)) + ")"
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}
	return nil
}

func (s *MySQLSeatStore) Booked(ctx context.Context, trainID string) ([]string, error) {
	return bookedSeats(ctx, s.db, trainID)
}

func bookedSeats(ctx context.Context, db database.QueryExecutor, trainID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT seat_code FROM train_seats WHERE train_id = ?", trainID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked seats: %w", err)
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan seat: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load booked seats: %w", err)
	}

	models.SortSeatCodes(codes)
	return codes, nil
}

// Resize writes trains.total_seats while holding the row lock that Reserve
// waits on, after checking the booked seats still fit.
func (s *MySQLSeatStore) Resize(ctx context.Context, trainID string, totalSeats int) error {
	return database.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.totalSeats(ctx, tx, trainID, "FOR UPDATE"); err != nil {
			return err
		}

		booked, err := bookedSeats(ctx, tx, trainID)
		if err != nil {
			return err
		}
		if blocked := seatsBeyond(totalSeats, booked); len(blocked) > 0 {
			return resizeConflict(totalSeats, blocked)
		}

		if _, err := tx.ExecContext(ctx, "UPDATE trains SET total_seats = ? WHERE id = ?", totalSeats, trainID); err != nil {
			return fmt.Errorf("failed to resize train: %w", err)
		}
		return nil
	})
}

func (s *MySQLSeatStore) Clear(ctx context.Context, trainID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM train_seats WHERE train_id = ?", trainID); err != nil {
		return fmt.Errorf("failed to clear seats: %w", err)
	}
	return nil
}
