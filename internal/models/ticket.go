// -----------------------------------------------------------------------------
// Ticket Model
// -----------------------------------------------------------------------------
// A ticket is created Confirmed by the booking service and can only move to
// Cancelled. Tickets are never deleted.
// -----------------------------------------------------------------------------

package models

// TicketStatus is the ledger state of a ticket.
type TicketStatus string

const (
	TicketStatusConfirmed TicketStatus = "Confirmed"
	TicketStatusCancelled TicketStatus = "Cancelled"
)

// Travel classes offered on every train.
const (
	ClassThird  = "3rd Class"
	ClassSecond = "2nd Class"
	ClassFirst  = "1st Class"
)

// MaxPassengers caps a single booking.
const MaxPassengers = 10

// Ticket is one booking of one or more seats on one train segment.
type Ticket struct {
	BaseModel
	UserID    string       `json:"userId" db:"user_id"`
	TrainID   string       `json:"trainId" db:"train_id"`
	From      string       `json:"from" db:"from_station"`
	To        string       `json:"to" db:"to_station"`
	SeatCodes []string     `json:"seatCodes" db:"seat_codes"`
	Class     string       `json:"class" db:"travel_class"`
	Fare      int64        `json:"fare" db:"fare"`
	Status    TicketStatus `json:"status" db:"status"`
}

func (t *Ticket) IsConfirmed() bool {
	return t.Status == TicketStatusConfirmed
}

// CanCancel reports whether the Confirmed -> Cancelled transition is allowed.
func (t *Ticket) CanCancel() bool {
	return t.Status == TicketStatusConfirmed
}

// IsOwnedBy reports whether userID booked this ticket.
func (t *Ticket) IsOwnedBy(userID string) bool {
	return t.UserID != "" && t.UserID == userID
}
