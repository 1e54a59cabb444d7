package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/biyonik/rail-booking-api/internal/models"
)

// MemoryTicketRepository is the in-process ledger.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*models.Ticket
	order   map[string]int
	seq     int
}

func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets: make(map[string]*models.Ticket),
		order:   make(map[string]int),
	}
}

func (r *MemoryTicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tickets[ticket.ID]; exists {
		return models.ConflictError{Resource: "ticket", Msg: "duplicate ticket id " + ticket.ID}
	}
	r.seq++
	r.order[ticket.ID] = r.seq
	r.tickets[ticket.ID] = copyTicket(ticket)
	return nil
}

func (r *MemoryTicketRepository) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "ticket", ID: id}
	}
	return copyTicket(ticket), nil
}

// ListByUser returns newest first; tickets created in the same instant keep
// reverse insertion order.
func (r *MemoryTicketRepository) ListByUser(ctx context.Context, userID string) ([]*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickets := []*models.Ticket{}
	for _, ticket := range r.tickets {
		if ticket.UserID == userID {
			tickets = append(tickets, copyTicket(ticket))
		}
	}
	sort.Slice(tickets, func(i, j int) bool {
		if !tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
		}
		return r.order[tickets[i].ID] > r.order[tickets[j].ID]
	})
	return tickets, nil
}

func (r *MemoryTicketRepository) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return models.NotFoundError{Resource: "ticket", ID: id}
	}
	if !ticket.CanCancel() {
		return models.AlreadyCancelledError{TicketID: id}
	}
	ticket.Status = models.TicketStatusCancelled
	ticket.UpdatedAt = at
	return nil
}

func (r *MemoryTicketRepository) CountByStatus(ctx context.Context, status models.TicketStatus, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, ticket := range r.tickets {
		if ticket.Status == status && !ticket.CreatedAt.Before(from) && ticket.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func copyTicket(t *models.Ticket) *models.Ticket {
	c := *t
	c.SeatCodes = append([]string(nil), t.SeatCodes...)
	return &c
}
