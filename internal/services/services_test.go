package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/biyonik/rail-booking-api/internal/models"
	"github.com/biyonik/rail-booking-api/internal/patterns/factory"
	"github.com/biyonik/rail-booking-api/internal/repositories"
	"github.com/biyonik/rail-booking-api/pkg/auth"
	"github.com/biyonik/rail-booking-api/pkg/cache"
	"github.com/biyonik/rail-booking-api/pkg/events"
	"github.com/biyonik/rail-booking-api/pkg/storage"
)

type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *testLogger) Printf(format string, v ...any) {
	l.mu.Lock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
	l.mu.Unlock()
}

func (l *testLogger) Println(v ...any) {
	l.mu.Lock()
	l.lines = append(l.lines, fmt.Sprint(v...))
	l.mu.Unlock()
}

func (l *testLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

var (
	colomboRoute = []string{"Colombo Fort", "Kandy", "Galle"}
	fixedNow     = time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local)

	alice = auth.Identity{UserID: "u-alice", Role: auth.RolePassenger}
	bob   = auth.Identity{UserID: "u-bob", Role: auth.RolePassenger}
	admin = auth.Identity{UserID: "u-admin", Role: auth.RoleAdmin}
)

type testEnv struct {
	logger     *testLogger
	trains     *repositories.MemoryTrainRepository
	seats      repositories.SeatStore
	tickets    repositories.TicketRepository
	warrants   *repositories.MemoryWarrantRepository
	cache      *cache.MemoryCache
	files      *storage.LocalStorage
	dispatcher *events.Dispatcher

	booking  *BookingService
	trainSvc *TrainService
	overview *OverviewService
	warrant  *WarrantService
}

type envOption func(*testEnv)

func withSeats(s repositories.SeatStore) envOption {
	return func(e *testEnv) { e.seats = s }
}

func withTickets(r repositories.TicketRepository) envOption {
	return func(e *testEnv) { e.tickets = r }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	logger := &testLogger{}
	files, err := storage.NewLocalStorage(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	e := &testEnv{
		logger:     logger,
		trains:     repositories.NewMemoryTrainRepository(),
		seats:      repositories.NewMemorySeatStore(),
		tickets:    repositories.NewMemoryTicketRepository(),
		warrants:   repositories.NewMemoryWarrantRepository(),
		cache:      cache.NewMemoryCache(logger, time.Minute),
		files:      files,
		dispatcher: events.NewDispatcher(logger),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.booking = NewBookingService(BookingDeps{
		Trains:  e.trains,
		Seats:   e.seats,
		Tickets: e.tickets,
		Passes:  factory.NewTicketPassFactory("test-pass-secret"),
		Files:   e.files,
		Events:  e.dispatcher,
		Logger:  logger,
	})
	e.booking.now = func() time.Time { return fixedNow }

	e.trainSvc = NewTrainService(e.trains, e.seats, e.cache, e.dispatcher, logger)
	e.trainSvc.now = func() time.Time { return fixedNow }

	e.overview = NewOverviewService(e.trains, e.tickets, e.warrants, e.cache, logger)
	e.overview.now = func() time.Time { return fixedNow }

	e.warrant = NewWarrantService(e.warrants, e.dispatcher, logger)
	e.warrant.now = func() time.Time { return fixedNow }

	t.Cleanup(func() {
		e.dispatcher.Shutdown()
		e.cache.Close()
	})
	return e
}

// seedTrain stores a train on the Colombo Fort -> Kandy -> Galle route.
func (e *testEnv) seedTrain(t *testing.T, number string, totalSeats int) *models.Train {
	t.Helper()

	train := &models.Train{
		Name:          "Express " + number,
		TrainNumber:   number,
		Route:         append([]string(nil), colomboRoute...),
		TotalSeats:    totalSeats,
		DepartureTime: fixedNow.Add(24 * time.Hour),
	}
	train.Initialize(fixedNow)
	if err := e.trains.Create(context.Background(), train); err != nil {
		t.Fatalf("seed train: %v", err)
	}
	return train
}

func (e *testEnv) booked(t *testing.T, trainID string) []string {
	t.Helper()

	codes, err := e.seats.Booked(context.Background(), trainID)
	if err != nil {
		t.Fatalf("Booked: %v", err)
	}
	models.SortSeatCodes(codes)
	return codes
}

func reserveReq(trainID string, user auth.Identity, seats ...string) ReserveRequest {
	return ReserveRequest{
		TrainID:        trainID,
		From:           "Colombo Fort",
		To:             "Galle",
		SeatCodes:      seats,
		TravelClass:    models.ClassSecond,
		PassengerCount: len(seats),
		UserID:         user.UserID,
	}
}
