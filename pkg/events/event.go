// -----------------------------------------------------------------------------
// Event System - Core Interfaces
// -----------------------------------------------------------------------------
// Services announce state changes as named events; listeners react without the
// service knowing about them (pass rendering, cache invalidation, alerting).
//
//	dispatcher.Listen(events.EventTicketBooked, renderPass)
//	dispatcher.DispatchAsync(events.NewBaseEvent(events.EventTicketBooked, ticket))
// -----------------------------------------------------------------------------

package events

import (
	"time"
)

// Event is anything that can be dispatched.
type Event interface {
	// Name is the routing key, e.g. "ticket.booked".
	Name() string

	OccurredAt() time.Time

	// Payload is the event data. Listeners type-assert it.
	Payload() any
}

// BaseEvent is the default Event implementation. Embed it in custom events or
// use it directly with a payload.
type BaseEvent struct {
	name       string
	occurredAt time.Time
	payload    any
}

// NewBaseEvent creates an event stamped with the current time.
//
//	event := events.NewBaseEvent(events.EventTicketCancelled, ticket)
func NewBaseEvent(name string, payload any) *BaseEvent {
	return &BaseEvent{
		name:       name,
		occurredAt: time.Now(),
		payload:    payload,
	}
}

func (e *BaseEvent) Name() string {
	return e.name
}

func (e *BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

func (e *BaseEvent) Payload() any {
	return e.payload
}

// -----------------------------------------------------------------------------
// Event Names
// -----------------------------------------------------------------------------

const (
	// Ticket lifecycle. Payload: models.Ticket
	EventTicketBooked    = "ticket.booked"
	EventTicketCancelled = "ticket.cancelled"

	// Raised when a compensating seat release fails and occupancy is left
	// ahead of the ledger. Payload: CompensationFailure
	EventSeatsCompensationFailed = "seats.compensation_failed"

	// Train catalogue. Payload: models.Train
	EventTrainCreated = "train.created"
	EventTrainUpdated = "train.updated"
	EventTrainDeleted = "train.deleted"

	// Payload: models.Warrant
	EventWarrantSubmitted = "warrant.submitted"
)

// CompensationFailure describes seats that could not be released after a
// failed ledger write. They stay booked until an operator frees them.
type CompensationFailure struct {
	TrainID  string   `json:"trainId"`
	Seats    []string `json:"seats"`
	LedgerOp string   `json:"ledgerOp"`
	Err      string   `json:"error"`
}
