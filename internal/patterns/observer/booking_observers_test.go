package observer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/biyonik/rail-booking-api/internal/jobs"
	"github.com/biyonik/rail-booking-api/internal/models"
	"github.com/biyonik/rail-booking-api/internal/patterns/factory"
	"github.com/biyonik/rail-booking-api/internal/repositories"
	"github.com/biyonik/rail-booking-api/pkg/events"
	"github.com/biyonik/rail-booking-api/pkg/queue"
	"github.com/biyonik/rail-booking-api/pkg/storage"
)

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
func (nopLogger) Println(...any)        {}

type countingInvalidator struct {
	mu    sync.Mutex
	calls [][]time.Time
}

func (c *countingInvalidator) Invalidate(ctx context.Context, times ...time.Time) {
	c.mu.Lock()
	c.calls = append(c.calls, times)
	c.mu.Unlock()
}

func setup(t *testing.T) (*events.Dispatcher, *repositories.MemoryTicketRepository, storage.Storage, *countingInvalidator, *OperatorAlertObserver) {
	t.Helper()

	files, err := storage.NewLocalStorage(t.TempDir(), nopLogger{})
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	tickets := repositories.NewMemoryTicketRepository()
	deps := &jobs.PassDeps{
		Tickets: tickets,
		Passes:  factory.NewTicketPassFactory("secret"),
		Storage: files,
		Logger:  nopLogger{},
	}

	dispatcher := events.NewDispatcher(nopLogger{})
	t.Cleanup(dispatcher.Shutdown)

	invalidator := &countingInvalidator{}
	alerts := NewOperatorAlertObserver(nopLogger{})
	Attach(dispatcher,
		NewPassRenderObserver(queue.NewSyncQueue(nopLogger{}), deps),
		NewPassCleanupObserver(files, nopLogger{}),
		NewOverviewCacheObserver(invalidator),
		alerts,
	)
	return dispatcher, tickets, files, invalidator, alerts
}

func TestPassRenderedOnBookingAndDeletedOnCancel(t *testing.T) {
	dispatcher, tickets, files, invalidator, _ := setup(t)
	ctx := context.Background()

	ticket := &models.Ticket{
		UserID: "u1", TrainID: "t1", From: "Colombo Fort", To: "Kandy",
		SeatCodes: []string{"1A"}, Class: models.ClassThird, Fare: 350,
		Status: models.TicketStatusConfirmed,
	}
	ticket.Initialize(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	if err := tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := dispatcher.Dispatch(events.NewBaseEvent(events.EventTicketBooked, *ticket)); err != nil {
		t.Fatalf("Dispatch booked: %v", err)
	}
	if ok, _ := files.Exists(ctx, factory.PassPath(ticket.ID)); !ok {
		t.Fatal("pass was not rendered into storage")
	}

	ticket.Status = models.TicketStatusCancelled
	if err := dispatcher.Dispatch(events.NewBaseEvent(events.EventTicketCancelled, *ticket)); err != nil {
		t.Fatalf("Dispatch cancelled: %v", err)
	}
	if ok, _ := files.Exists(ctx, factory.PassPath(ticket.ID)); ok {
		t.Error("pass of cancelled ticket still stored")
	}

	if len(invalidator.calls) != 2 || !invalidator.calls[0][0].Equal(ticket.CreatedAt) {
		t.Errorf("overview invalidations = %v", invalidator.calls)
	}
}

func TestRenderJobSkipsCancelledTicket(t *testing.T) {
	dispatcher, tickets, files, _, _ := setup(t)
	ctx := context.Background()

	ticket := &models.Ticket{UserID: "u1", TrainID: "t1", SeatCodes: []string{"1B"}, Status: models.TicketStatusCancelled}
	ticket.Initialize(time.Now())
	if err := tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := dispatcher.Dispatch(events.NewBaseEvent(events.EventTicketBooked, *ticket)); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if ok, _ := files.Exists(ctx, factory.PassPath(ticket.ID)); ok {
		t.Error("pass rendered for a cancelled ticket")
	}
}

func TestRenderJobFailsForUnknownTicket(t *testing.T) {
	dispatcher, _, _, _, _ := setup(t)

	ticket := models.Ticket{BaseModel: models.BaseModel{ID: "ghost"}, Status: models.TicketStatusConfirmed}
	if err := dispatcher.Dispatch(events.NewBaseEvent(events.EventTicketBooked, ticket)); err == nil {
		t.Error("expected the render job error to surface from the sync queue")
	}
}

func TestOperatorAlert(t *testing.T) {
	dispatcher, _, _, invalidator, alerts := setup(t)

	failure := events.CompensationFailure{TrainID: "t1", Seats: []string{"2C"}, LedgerOp: "create ticket", Err: "timeout"}
	if err := dispatcher.Dispatch(events.NewBaseEvent(events.EventSeatsCompensationFailed, failure)); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if alerts.Alerts() != 1 {
		t.Errorf("alerts = %d, want 1", alerts.Alerts())
	}
	if len(invalidator.calls) != 0 {
		t.Errorf("compensation failure touched the overview cache")
	}

	if err := alerts.Handle(events.NewBaseEvent(events.EventSeatsCompensationFailed, "oops")); err == nil {
		t.Error("expected payload type error")
	}
}

func TestOverviewObserverOnCatalogueEvents(t *testing.T) {
	dispatcher, _, _, invalidator, _ := setup(t)

	for _, name := range []string{events.EventTrainCreated, events.EventTrainDeleted, events.EventWarrantSubmitted} {
		if err := dispatcher.Dispatch(events.NewBaseEvent(name, fmt.Sprintf("payload of %s", name))); err != nil {
			t.Fatalf("Dispatch %s: %v", name, err)
		}
	}
	if len(invalidator.calls) != 3 {
		t.Errorf("invalidations = %d, want 3", len(invalidator.calls))
	}
	for _, call := range invalidator.calls {
		if len(call) != 0 {
			t.Errorf("catalogue event invalidated specific days: %v", call)
		}
	}
}
