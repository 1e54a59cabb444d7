package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/biyonik/rail-booking-api/internal/models"
	"github.com/biyonik/rail-booking-api/internal/repositories"
	"github.com/biyonik/rail-booking-api/pkg/cache"
	"github.com/biyonik/rail-booking-api/pkg/events"
)

// CatalogueCacheKey holds the train list without occupancy.
const CatalogueCacheKey = "trains:all"

const catalogueTTL = 5 * time.Minute

// FirstTrainNumber is suggested when the catalogue is empty.
const FirstTrainNumber = 1001

// TrainInput is the admin form for creating or editing a train.
type TrainInput struct {
	Name          string
	TrainNumber   string
	Route         []string
	TotalSeats    int
	DepartureTime time.Time
}

type TrainService struct {
	trains repositories.TrainRepository
	seats  repositories.SeatStore
	cache  cache.Cache
	events events.Publisher
	logger Logger
	now    func() time.Time
}

func NewTrainService(
	trains repositories.TrainRepository,
	seats repositories.SeatStore,
	c cache.Cache,
	publisher events.Publisher,
	logger Logger,
) *TrainService {
	return &TrainService{
		trains: trains,
		seats:  seats,
		cache:  c,
		events: publisher,
		logger: logger,
		now:    time.Now,
	}
}

// Search lists trains that run from -> to, each with fresh availability.
// With both stations empty every train is listed; with one of them set,
// trains calling at that station.
func (s *TrainService) Search(ctx context.Context, from, to string) ([]models.TrainAvailability, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)

	catalogue, err := cache.Remember(ctx, s.cache, CatalogueCacheKey, catalogueTTL, s.logger,
		func(ctx context.Context) ([]models.Train, error) {
			trains, err := s.trains.List(ctx)
			if err != nil {
				return nil, err
			}
			list := make([]models.Train, 0, len(trains))
			for _, t := range trains {
				list = append(list, *t)
			}
			return list, nil
		})
	if err != nil {
		return nil, persistence("list trains", err)
	}

	results := make([]models.TrainAvailability, 0, len(catalogue))
	for _, train := range catalogue {
		if !matchesSegment(&train, from, to) {
			continue
		}
		booked, err := s.seats.Booked(ctx, train.ID)
		if err != nil {
			return nil, persistence("load seats", err)
		}
		train.BookedSeats = booked
		warnStraySeats(s.logger, &train)
		results = append(results, models.NewTrainAvailability(train))
	}
	return results, nil
}

func matchesSegment(t *models.Train, from, to string) bool {
	switch {
	case from != "" && to != "":
		return t.CoversSegment(from, to)
	case from != "":
		return t.StationIndex(from) != -1
	case to != "":
		return t.StationIndex(to) != -1
	default:
		return true
	}
}

// Detail returns one train with its seat map counters.
func (s *TrainService) Detail(ctx context.Context, id string) (*models.TrainAvailability, error) {
	train, err := s.trains.FindByID(ctx, id)
	if err != nil {
		return nil, persistence("load train", err)
	}
	booked, err := s.seats.Booked(ctx, train.ID)
	if err != nil {
		return nil, persistence("load seats", err)
	}
	train.BookedSeats = booked
	warnStraySeats(s.logger, train)

	availability := models.NewTrainAvailability(*train)
	return &availability, nil
}

func (s *TrainService) Create(ctx context.Context, input TrainInput) (*models.Train, error) {
	train := &models.Train{}
	applyTrainInput(train, input)
	if err := train.Validate(); err != nil {
		return nil, err
	}
	train.Initialize(s.now())

	if err := s.trains.Create(ctx, train); err != nil {
		return nil, persistence("create train", err)
	}
	if err := s.seats.Resize(ctx, train.ID, train.TotalSeats); err != nil {
		s.logger.Printf("⚠️  Train %s created but its seat count was not recorded: %v", train.ID, err)
	}

	s.forgetCatalogue(ctx)
	s.logger.Printf("✅ Train %s (%s) created with %d seats", train.TrainNumber, train.Name, train.TotalSeats)
	s.events.DispatchAsync(events.NewBaseEvent(events.EventTrainCreated, *train))

	train.BookedSeats = []string{}
	return train, nil
}

// Update replaces the admin-editable fields. The seat count cannot drop
// below a seat that is currently booked; the seat store checks and records
// it in one step with respect to concurrent bookings.
func (s *TrainService) Update(ctx context.Context, id string, input TrainInput) (*models.Train, error) {
	train, err := s.trains.FindByID(ctx, id)
	if err != nil {
		return nil, persistence("load train", err)
	}
	previousSeats := train.TotalSeats

	applyTrainInput(train, input)
	if err := train.Validate(); err != nil {
		return nil, err
	}

	if err := s.seats.Resize(ctx, train.ID, train.TotalSeats); err != nil {
		return nil, persistence("resize seats", err)
	}

	train.Touch(s.now())
	if err := s.trains.Update(ctx, train); err != nil {
		if rErr := s.seats.Resize(context.WithoutCancel(ctx), train.ID, previousSeats); rErr != nil {
			s.logger.Printf("❌ Train %s update failed and its seat count stays %d: %v", train.ID, train.TotalSeats, rErr)
		}
		return nil, persistence("update train", err)
	}

	booked, err := s.seats.Booked(ctx, train.ID)
	if err != nil {
		return nil, persistence("load seats", err)
	}

	s.forgetCatalogue(ctx)
	s.logger.Printf("✅ Train %s updated", train.ID)
	s.events.DispatchAsync(events.NewBaseEvent(events.EventTrainUpdated, *train))

	train.BookedSeats = booked
	return train, nil
}

// Delete removes the train and then its seat occupancy.
func (s *TrainService) Delete(ctx context.Context, id string) error {
	train, err := s.trains.FindByID(ctx, id)
	if err != nil {
		return persistence("load train", err)
	}
	if err := s.trains.Delete(ctx, id); err != nil {
		return persistence("delete train", err)
	}
	s.forgetCatalogue(ctx)

	if err := s.seats.Clear(context.WithoutCancel(ctx), id); err != nil {
		s.logger.Printf("❌ Train %s deleted but its seats were not cleared: %v", id, err)
		return persistence("clear seats", err)
	}

	s.logger.Printf("🧹 Train %s (%s) deleted", train.TrainNumber, train.Name)
	s.events.DispatchAsync(events.NewBaseEvent(events.EventTrainDeleted, *train))
	return nil
}

// NextTrainNumber suggests the highest numeric train number plus one.
func (s *TrainService) NextTrainNumber(ctx context.Context) (string, error) {
	highest, err := s.trains.MaxTrainNumber(ctx)
	if err != nil {
		return "", persistence("max train number", err)
	}
	if highest <= 0 {
		return strconv.Itoa(FirstTrainNumber), nil
	}
	return strconv.Itoa(highest + 1), nil
}

func (s *TrainService) forgetCatalogue(ctx context.Context) {
	if err := s.cache.Delete(context.WithoutCancel(ctx), CatalogueCacheKey); err != nil {
		s.logger.Printf("⚠️  Could not invalidate train catalogue cache: %v", err)
	}
}

func applyTrainInput(t *models.Train, in TrainInput) {
	t.Name = strings.TrimSpace(in.Name)
	t.TrainNumber = strings.TrimSpace(in.TrainNumber)
	route := make([]string, 0, len(in.Route))
	for _, station := range in.Route {
		route = append(route, strings.TrimSpace(station))
	}
	t.Route = route
	t.TotalSeats = in.TotalSeats
	t.DepartureTime = in.DepartureTime
}
