package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/biyonik/rail-booking-api/internal/models"
	"github.com/biyonik/rail-booking-api/internal/patterns/factory"
	"github.com/biyonik/rail-booking-api/internal/patterns/strategy"
	"github.com/biyonik/rail-booking-api/internal/repositories"
	"github.com/biyonik/rail-booking-api/pkg/auth"
	"github.com/biyonik/rail-booking-api/pkg/events"
	"github.com/biyonik/rail-booking-api/pkg/storage"
)

// ReserveRequest is a validated booking command. UserID comes from the
// caller's token, never from the request body.
type ReserveRequest struct {
	TrainID        string
	From           string
	To             string
	SeatCodes      []string
	TravelClass    string
	PassengerCount int
	UserID         string
}

type QuoteRequest struct {
	TrainID        string
	From           string
	To             string
	TravelClass    string
	PassengerCount int
}

type Quote struct {
	TrainID        string `json:"trainId"`
	From           string `json:"from"`
	To             string `json:"to"`
	TravelClass    string `json:"travelClass"`
	PassengerCount int    `json:"passengerCount"`
	Segments       int    `json:"segments"`
	Fare           int64  `json:"fare"`
}

// PassVerification is the answer to a scanned pass.
type PassVerification struct {
	Valid    bool                `json:"valid"`
	TicketID string              `json:"ticketId,omitempty"`
	Status   models.TicketStatus `json:"status,omitempty"`
	Claims   *factory.PassClaims `json:"claims,omitempty"`
}

type BookingDeps struct {
	Trains  repositories.TrainRepository
	Seats   repositories.SeatStore
	Tickets repositories.TicketRepository
	Fares   *strategy.FareCalculator
	Passes  *factory.TicketPassFactory
	Files   storage.Storage
	Events  events.Publisher
	Logger  Logger
}

// BookingService reserves and cancels seats. Seat occupancy is arbitrated by
// SeatStore alone and ticket status by the conditional ledger write; the
// service never decides a race from a snapshot and holds no locks, so any
// number of instances can share the same stores.
type BookingService struct {
	trains  repositories.TrainRepository
	seats   repositories.SeatStore
	tickets repositories.TicketRepository
	fares   *strategy.FareCalculator
	passes  *factory.TicketPassFactory
	files   storage.Storage
	events  events.Publisher
	logger  Logger
	now     func() time.Time
}

func NewBookingService(deps BookingDeps) *BookingService {
	fares := deps.Fares
	if fares == nil {
		fares = strategy.DefaultFareCalculator()
	}
	return &BookingService{
		trains:  deps.Trains,
		seats:   deps.Seats,
		tickets: deps.Tickets,
		fares:   fares,
		passes:  deps.Passes,
		files:   deps.Files,
		events:  deps.Events,
		logger:  deps.Logger,
		now:     time.Now,
	}
}

// Reserve books req.SeatCodes on one train segment and records a Confirmed
// ticket. Either both the seats and the ticket exist afterwards or neither
// does (see compensate for the one exception).
func (s *BookingService) Reserve(ctx context.Context, req ReserveRequest) (*models.Ticket, error) {
	// 1. Fresh train and occupancy read
	train, err := s.loadTrain(ctx, req.TrainID)
	if err != nil {
		return nil, err
	}

	// 2. Route
	if !train.CoversSegment(req.From, req.To) {
		return nil, models.InvalidRouteError{From: req.From, To: req.To}
	}

	// 3. Passengers and seats. The mismatch check runs before the range
	// check: an empty request (no seats, no passengers) passes it and fails
	// the range check below.
	codes := normalizeSeatCodes(req.SeatCodes)
	if len(codes) != req.PassengerCount {
		return nil, models.PassengerCountMismatchError{Seats: len(codes), Passengers: req.PassengerCount}
	}
	if req.PassengerCount < 1 || req.PassengerCount > models.MaxPassengers {
		return nil, models.ValidationError{Field: "passengerCount", Msg: "must be between 1 and 10"}
	}
	if strings.TrimSpace(req.TravelClass) == "" {
		return nil, models.ValidationError{Field: "travelClass", Msg: "is required"}
	}
	if bad := train.SeatMap().Unavailable(codes); len(bad) > 0 {
		return nil, models.SeatConflictError{TrainID: train.ID, Seats: bad}
	}

	// The id exists before the seats do: the store records which ticket
	// holds each seat.
	ticket := &models.Ticket{
		UserID:    req.UserID,
		TrainID:   train.ID,
		From:      req.From,
		To:        req.To,
		SeatCodes: codes,
		Class:     req.TravelClass,
		Status:    models.TicketStatusConfirmed,
	}
	ticket.Initialize(s.now())
	hold := seatHold(ticket, train.TotalSeats)

	// 4. Atomic all-or-nothing reservation, checked against the store's
	// current seat space
	if err := s.seats.Reserve(ctx, hold); err != nil {
		if models.IsSeatConflict(err) {
			s.logger.Printf("⚠️  Seat conflict on train %s: %v", train.ID, err)
			return nil, err
		}
		return nil, persistence("reserve seats", err)
	}

	// 5. Fare
	fare, err := s.fares.ComputeFare(train.Route, req.From, req.To, req.TravelClass, req.PassengerCount)
	if err != nil {
		s.compensate(ctx, hold, "compute fare", err)
		return nil, err
	}
	ticket.Fare = fare

	// 6. Ledger entry
	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.compensate(ctx, hold, "create ticket", err)
		return nil, models.PersistenceError{Op: "create ticket", Err: err}
	}

	// 7. Done
	s.logger.Printf("✅ Ticket %s booked: train %s, %s -> %s, seats %v, fare %d",
		ticket.ID, train.ID, ticket.From, ticket.To, ticket.SeatCodes, ticket.Fare)
	s.events.DispatchAsync(events.NewBaseEvent(events.EventTicketBooked, *ticket))

	return ticket, nil
}

// compensate releases seats reserved for a booking that could not be
// recorded. The release ignores request cancellation. When it fails the seats
// stay booked without a ticket and operators are alerted.
func (s *BookingService) compensate(ctx context.Context, hold repositories.SeatHold, op string, cause error) {
	ctx = context.WithoutCancel(ctx)

	s.logger.Printf("🔄 Releasing seats %v on train %s after failed %s: %v", hold.Codes, hold.TrainID, op, cause)

	err := s.seats.Release(ctx, hold)
	if err == nil {
		return
	}

	s.logger.Printf("❌ COMPENSATION FAILED train=%s seats=%v ticket=%s op=%s: %v (ledger error: %v)",
		hold.TrainID, hold.Codes, hold.TicketID, op, err, cause)

	failure := events.CompensationFailure{
		TrainID:  hold.TrainID,
		Seats:    append([]string(nil), hold.Codes...),
		LedgerOp: op,
		Err:      err.Error(),
	}
	if dErr := s.events.Dispatch(events.NewBaseEvent(events.EventSeatsCompensationFailed, failure)); dErr != nil {
		s.logger.Printf("❌ Compensation alert listener failed: %v", dErr)
	}
}

// Cancel moves a Confirmed ticket to Cancelled and frees its seats. Seats are
// released before the status changes. Passengers can only see and cancel
// their own tickets; admins can cancel any.
//
// Concurrent cancels of one ticket are safe across instances: the release
// only touches seats the ticket still holds, and only one conditional status
// write succeeds. The others get AlreadyCancelledError.
func (s *BookingService) Cancel(ctx context.Context, ticketID string, caller auth.Identity) (*models.Ticket, error) {
	// 1. Load and authorise
	ticket, err := s.ownedTicket(ctx, ticketID, caller)
	if err != nil {
		return nil, err
	}
	if !ticket.CanCancel() {
		return nil, models.AlreadyCancelledError{TicketID: ticket.ID}
	}

	// 2. Free the seats
	if err := s.seats.Release(ctx, seatHold(ticket, 0)); err != nil {
		return nil, persistence("release seats", err)
	}

	// 3. Ledger transition
	now := s.now()
	if err := s.tickets.MarkCancelled(ctx, ticket.ID, now); err != nil {
		if models.IsAlreadyCancelled(err) {
			return nil, err
		}
		s.logger.Printf("⚠️  Seats of ticket %s released but status update failed: %v", ticket.ID, err)
		return nil, persistence("cancel ticket", err)
	}
	ticket.Status = models.TicketStatusCancelled
	ticket.Touch(now)

	s.logger.Printf("✅ Ticket %s cancelled, seats %v released on train %s", ticket.ID, ticket.SeatCodes, ticket.TrainID)
	s.events.DispatchAsync(events.NewBaseEvent(events.EventTicketCancelled, *ticket))

	return ticket, nil
}

// Quote prices a journey without reserving anything.
func (s *BookingService) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	train, err := s.trains.FindByID(ctx, req.TrainID)
	if err != nil {
		return nil, persistence("load train", err)
	}

	segments, err := strategy.Segments(train.Route, req.From, req.To)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.TravelClass) == "" {
		return nil, models.ValidationError{Field: "travelClass", Msg: "is required"}
	}
	if req.PassengerCount == 0 {
		req.PassengerCount = 1
	}
	if req.PassengerCount < 1 || req.PassengerCount > models.MaxPassengers {
		return nil, models.ValidationError{Field: "passengerCount", Msg: "must be between 1 and 10"}
	}

	fare, err := s.fares.ComputeFare(train.Route, req.From, req.To, req.TravelClass, req.PassengerCount)
	if err != nil {
		return nil, err
	}

	return &Quote{
		TrainID:        train.ID,
		From:           req.From,
		To:             req.To,
		TravelClass:    req.TravelClass,
		PassengerCount: req.PassengerCount,
		Segments:       segments,
		Fare:           fare,
	}, nil
}

// Ticket returns one of the caller's tickets.
func (s *BookingService) Ticket(ctx context.Context, ticketID string, caller auth.Identity) (*models.Ticket, error) {
	return s.ownedTicket(ctx, ticketID, caller)
}

// UserTickets lists a passenger's tickets, newest first.
func (s *BookingService) UserTickets(ctx context.Context, userID string) ([]*models.Ticket, error) {
	tickets, err := s.tickets.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistence("list tickets", err)
	}
	return tickets, nil
}

// TicketPass returns the QR PNG of a confirmed ticket, from storage when the
// render job already ran, rendered on demand otherwise.
func (s *BookingService) TicketPass(ctx context.Context, ticketID string, caller auth.Identity) ([]byte, error) {
	ticket, err := s.ownedTicket(ctx, ticketID, caller)
	if err != nil {
		return nil, err
	}
	if !ticket.IsConfirmed() {
		return nil, models.ConflictError{Resource: "ticket", Msg: "cancelled tickets have no pass"}
	}

	path := factory.PassPath(ticket.ID)
	png, err := s.files.Get(ctx, path)
	if err == nil {
		return png, nil
	}
	if !errors.Is(err, storage.ErrFileNotFound) {
		s.logger.Printf("⚠️  Stored pass %s unreadable, rendering again: %v", path, err)
	}

	png, err = s.passes.Render(ticket)
	if err != nil {
		return nil, err
	}
	if err := s.files.Put(ctx, path, png); err != nil {
		s.logger.Printf("⚠️  Could not store pass %s: %v", path, err)
	}
	return png, nil
}

// VerifyPass checks a scanned payload. A forged payload is not an error, it
// is an invalid pass.
func (s *BookingService) VerifyPass(ctx context.Context, payload string) (*PassVerification, error) {
	claims, err := s.passes.Verify(payload)
	if err != nil {
		if errors.Is(err, factory.ErrInvalidPass) {
			return &PassVerification{Valid: false}, nil
		}
		return nil, err
	}

	ticket, err := s.tickets.FindByID(ctx, claims.TicketID)
	if err != nil {
		if models.IsNotFound(err) {
			return &PassVerification{Valid: false, TicketID: claims.TicketID}, nil
		}
		return nil, persistence("load ticket", err)
	}

	return &PassVerification{
		Valid:    ticket.IsConfirmed(),
		TicketID: ticket.ID,
		Status:   ticket.Status,
		Claims:   claims,
	}, nil
}

// ---------------------------------------------------------------------------

func (s *BookingService) loadTrain(ctx context.Context, trainID string) (*models.Train, error) {
	train, err := s.trains.FindByID(ctx, trainID)
	if err != nil {
		return nil, persistence("load train", err)
	}
	booked, err := s.seats.Booked(ctx, train.ID)
	if err != nil {
		return nil, persistence("load seats", err)
	}
	train.BookedSeats = booked
	warnStraySeats(s.logger, train)
	return train, nil
}

func (s *BookingService) ownedTicket(ctx context.Context, ticketID string, caller auth.Identity) (*models.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, persistence("load ticket", err)
	}
	if !caller.IsAdmin() && !ticket.IsOwnedBy(caller.UserID) {
		return nil, models.NotFoundError{Resource: "ticket", ID: ticketID}
	}
	return ticket, nil
}

func seatHold(ticket *models.Ticket, totalSeats int) repositories.SeatHold {
	return repositories.SeatHold{
		TrainID:    ticket.TrainID,
		TicketID:   ticket.ID,
		Codes:      ticket.SeatCodes,
		TotalSeats: totalSeats,
	}
}

func normalizeSeatCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		out = append(out, models.NormalizeSeatCode(code))
	}
	return out
}
