// -----------------------------------------------------------------------------
// Booking Observers
// -----------------------------------------------------------------------------
// Side effects of booking events, kept out of the services:
//
//	ticket.booked              -> queue the pass render job, refresh overview
//	ticket.cancelled           -> delete the stored pass, refresh overview
//	seats.compensation_failed  -> operator alert
//	train.* / warrant.*        -> refresh overview
//
// Every observer is an events.Listener that also names the events it wants;
// Attach subscribes them on a dispatcher.
// -----------------------------------------------------------------------------

package observer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/biyonik/rail-booking-api/internal/jobs"
	"github.com/biyonik/rail-booking-api/internal/models"
	"github.com/biyonik/rail-booking-api/internal/patterns/factory"
	"github.com/biyonik/rail-booking-api/pkg/events"
	"github.com/biyonik/rail-booking-api/pkg/queue"
	"github.com/biyonik/rail-booking-api/pkg/storage"
)

// handlerTimeout bounds the storage work of one listener call.
const handlerTimeout = 10 * time.Second

// Observer is a listener that knows its subscriptions.
type Observer interface {
	events.Listener
	GetName() string
	Events() []string
}

// Attach subscribes every observer to its events.
func Attach(dispatcher *events.Dispatcher, observers ...Observer) {
	for _, o := range observers {
		dispatcher.Subscribe(o.Events(), o)
	}
}

// Logger is the subset of *log.Logger the observers use.
type Logger interface {
	Printf(format string, v ...any)
	Println(v ...any)
}

func ticketPayload(event events.Event) (models.Ticket, error) {
	switch t := event.Payload().(type) {
	case models.Ticket:
		return t, nil
	case *models.Ticket:
		return *t, nil
	}
	return models.Ticket{}, fmt.Errorf("event %s: unexpected payload %T", event.Name(), event.Payload())
}

// -----------------------------------------------------------------------------
// Pass rendering
// -----------------------------------------------------------------------------

type PassRenderObserver struct {
	queue queue.Queue
	deps  *jobs.PassDeps
}

func NewPassRenderObserver(q queue.Queue, deps *jobs.PassDeps) *PassRenderObserver {
	return &PassRenderObserver{queue: q, deps: deps}
}

func (o *PassRenderObserver) GetName() string  { return "PassRender" }
func (o *PassRenderObserver) Events() []string { return []string{events.EventTicketBooked} }

func (o *PassRenderObserver) Handle(event events.Event) error {
	ticket, err := ticketPayload(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	return o.queue.Push(ctx, jobs.NewRenderTicketPassJob(ticket.ID, o.deps), jobs.PassQueue)
}

// -----------------------------------------------------------------------------
// Pass cleanup
// -----------------------------------------------------------------------------

type PassCleanupObserver struct {
	files  storage.Storage
	logger Logger
}

func NewPassCleanupObserver(files storage.Storage, logger Logger) *PassCleanupObserver {
	return &PassCleanupObserver{files: files, logger: logger}
}

func (o *PassCleanupObserver) GetName() string  { return "PassCleanup" }
func (o *PassCleanupObserver) Events() []string { return []string{events.EventTicketCancelled} }

func (o *PassCleanupObserver) Handle(event events.Event) error {
	ticket, err := ticketPayload(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := o.files.Delete(ctx, factory.PassPath(ticket.ID)); err != nil {
		return fmt.Errorf("failed to delete pass of ticket %s: %w", ticket.ID, err)
	}
	o.logger.Printf("🧹 Pass of cancelled ticket %s deleted", ticket.ID)
	return nil
}

// -----------------------------------------------------------------------------
// Overview cache
// -----------------------------------------------------------------------------

// OverviewInvalidator drops cached dashboard counters.
type OverviewInvalidator interface {
	Invalidate(ctx context.Context, times ...time.Time)
}

type OverviewCacheObserver struct {
	overview OverviewInvalidator
}

func NewOverviewCacheObserver(overview OverviewInvalidator) *OverviewCacheObserver {
	return &OverviewCacheObserver{overview: overview}
}

func (o *OverviewCacheObserver) GetName() string { return "OverviewCache" }

func (o *OverviewCacheObserver) Events() []string {
	return []string{
		events.EventTicketBooked,
		events.EventTicketCancelled,
		events.EventTrainCreated,
		events.EventTrainDeleted,
		events.EventWarrantSubmitted,
	}
}

func (o *OverviewCacheObserver) Handle(event events.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	// A cancellation changes the count of the day the ticket was booked.
	if ticket, err := ticketPayload(event); err == nil {
		o.overview.Invalidate(ctx, ticket.CreatedAt)
		return nil
	}
	o.overview.Invalidate(ctx)
	return nil
}

// -----------------------------------------------------------------------------
// Operator alerts
// -----------------------------------------------------------------------------

// OperatorAlertObserver reports seats left booked by a failed compensation.
type OperatorAlertObserver struct {
	logger Logger
	alerts atomic.Int64
}

func NewOperatorAlertObserver(logger Logger) *OperatorAlertObserver {
	return &OperatorAlertObserver{logger: logger}
}

func (o *OperatorAlertObserver) GetName() string { return "OperatorAlert" }

func (o *OperatorAlertObserver) Events() []string {
	return []string{events.EventSeatsCompensationFailed}
}

func (o *OperatorAlertObserver) Handle(event events.Event) error {
	failure, ok := event.Payload().(events.CompensationFailure)
	if !ok {
		return fmt.Errorf("event %s: unexpected payload %T", event.Name(), event.Payload())
	}

	n := o.alerts.Add(1)
	o.logger.Printf("🚨 OPERATOR ACTION REQUIRED (#%d): seats %v on train %s are booked without a ticket (%s failed: %s)",
		n, failure.Seats, failure.TrainID, failure.LedgerOp, failure.Err)
	return nil
}

// Alerts is the number of alerts raised since start.
func (o *OperatorAlertObserver) Alerts() int64 {
	return o.alerts.Load()
}
