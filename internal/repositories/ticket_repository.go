package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/biyonik/rail-booking-api/internal/models"
	"github.com/biyonik/rail-booking-api/pkg/database"
)

// TicketRepository is the booking ledger.
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	FindByID(ctx context.Context, id string) (*models.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Ticket, error)
	// MarkCancelled moves a Confirmed ticket to Cancelled in one conditional
	// write. It returns models.AlreadyCancelledError when the ticket was
	// cancelled first by someone else.
	MarkCancelled(ctx context.Context, id string, at time.Time) error
	CountByStatus(ctx context.Context, status models.TicketStatus, from, to time.Time) (int, error)
}

// MySQLTicketRepository stores tickets in the tickets table. Seat codes are a
// JSON array column; occupancy itself is owned by SeatStore.
type MySQLTicketRepository struct {
	db database.QueryExecutor
}

func NewMySQLTicketRepository(db database.QueryExecutor) *MySQLTicketRepository {
	return &MySQLTicketRepository{db: db}
}

const ticketColumns = "id, user_id, train_id, from_station, to_station, seat_codes, travel_class, fare, status, created_at, updated_at"

func (r *MySQLTicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	seats, err := json.Marshal(ticket.SeatCodes)
	if err != nil {
		return fmt.Errorf("failed to encode seat codes: %w", err)
	}

	query := `
		INSERT INTO tickets (id, user_id, train_id, from_station, to_station, seat_codes,
			travel_class, fare, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		ticket.ID, ticket.UserID, ticket.TrainID, ticket.From, ticket.To, string(seats),
		ticket.Class, ticket.Fare, string(ticket.Status), ticket.CreatedAt, ticket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

func (r *MySQLTicketRepository) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE id = ?", id)

	ticket, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundError{Resource: "ticket", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ticket: %w", err)
	}
	return ticket, nil
}

func (r *MySQLTicketRepository) ListByUser(ctx context.Context, userID string) ([]*models.Ticket, error) {
	query := "SELECT " + ticketColumns + " FROM tickets WHERE user_id = ? ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	tickets := []*models.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	return tickets, nil
}

func (r *MySQLTicketRepository) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE tickets SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(models.TicketStatusCancelled), at, id, string(models.TicketStatusConfirmed),
	)
	if err != nil {
		return fmt.Errorf("failed to cancel ticket: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// Nothing changed: either no such ticket or it is no longer Confirmed.
	var status string
	err = r.db.QueryRowContext(ctx, "SELECT status FROM tickets WHERE id = ?", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NotFoundError{Resource: "ticket", ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to load ticket status: %w", err)
	}
	return models.AlreadyCancelledError{TicketID: id}
}

// CountByStatus counts tickets with status created in [from, to).
func (r *MySQLTicketRepository) CountByStatus(ctx context.Context, status models.TicketStatus, from, to time.Time) (int, error) {
	query := "SELECT COUNT(*) FROM tickets WHERE status = ? AND created_at >= ? AND created_at < ?"

	var count int
	if err := r.db.QueryRowContext(ctx, query, string(status), from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}

func scanTicket(row rowScanner) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	var seats []byte
	var status string

	err := row.Scan(
		&ticket.ID, &ticket.UserID, &ticket.TrainID, &ticket.From, &ticket.To, &seats,
		&ticket.Class, &ticket.Fare, &status, &ticket.CreatedAt, &ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(seats, &ticket.SeatCodes); err != nil {
		return nil, fmt.Errorf("failed to decode seat codes of ticket %s: %w", ticket.ID, err)
	}
	ticket.Status = models.TicketStatus(status)
	return ticket, nil
}
