package services

import (
	"context"
	"time"

	"github.com/biyonik/rail-booking-api/internal/models"
	"github.com/biyonik/rail-booking-api/internal/repositories"
	"github.com/biyonik/rail-booking-api/pkg/cache"
)

// DateLayout is the format of the overview date parameter.
const DateLayout = "2006-01-02"

const overviewTTL = 30 * time.Second

// OverviewService computes the admin dashboard counters.
type OverviewService struct {
	trains   repositories.TrainRepository
	tickets  repositories.TicketRepository
	warrants repositories.WarrantRepository
	cache    cache.Cache
	logger   Logger
	now      func() time.Time
	location *time.Location
}

func NewOverviewService(
	trains repositories.TrainRepository,
	tickets repositories.TicketRepository,
	warrants repositories.WarrantRepository,
	c cache.Cache,
	logger Logger,
) *OverviewService {
	return &OverviewService{
		trains:   trains,
		tickets:  tickets,
		warrants: warrants,
		cache:    c,
		logger:   logger,
		now:      time.Now,
		location: time.Local,
	}
}

func overviewKey(date string) string {
	return "overview:" + date
}

// Overview returns the counters for date (YYYY-MM-DD, today when empty).
// activeBookings counts Confirmed tickets created on that day.
func (s *OverviewService) Overview(ctx context.Context, date string) (models.Overview, error) {
	day, err := s.parseDay(date)
	if err != nil {
		return models.Overview{}, err
	}
	key := day.Format(DateLayout)

	return cache.Remember(ctx, s.cache, overviewKey(key), overviewTTL, s.logger,
		func(ctx context.Context) (models.Overview, error) {
			return s.compute(ctx, day)
		})
}

func (s *OverviewService) compute(ctx context.Context, day time.Time) (models.Overview, error) {
	overview := models.Overview{Date: day.Format(DateLayout)}
	var err error

	if overview.TotalTrains, err = s.trains.Count(ctx); err != nil {
		return overview, persistence("count trains", err)
	}
	if overview.ActiveBookings, err = s.tickets.CountByStatus(ctx, models.TicketStatusConfirmed, day, day.AddDate(0, 0, 1)); err != nil {
		return overview, persistence("count tickets", err)
	}
	if overview.TotalWarrants, err = s.warrants.Count(ctx); err != nil {
		return overview, persistence("count warrants", err)
	}
	if overview.PendingWarrants, err = s.warrants.CountByStatus(ctx, models.WarrantStatusPending); err != nil {
		return overview, persistence("count warrants", err)
	}
	return overview, nil
}

// Invalidate drops the cached counters of the days containing times, and of
// today.
func (s *OverviewService) Invalidate(ctx context.Context, times ...time.Time) {
	keys := []string{overviewKey(s.now().In(s.location).Format(DateLayout))}
	for _, t := range times {
		keys = append(keys, overviewKey(t.In(s.location).Format(DateLayout)))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Printf("⚠️  Could not invalidate overview cache: %v", err)
	}
}

func (s *OverviewService) parseDay(date string) (time.Time, error) {
	if date == "" {
		now := s.now().In(s.location)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location), nil
	}
	day, err := time.ParseInLocation(DateLayout, date, s.location)
	if err != nil {
		return time.Time{}, models.ValidationError{Field: "date", Msg: "must be YYYY-MM-DD"}
	}
	return day, nil
}
