package services

import (
	"context"
	"strings"
	"time"

	"github.com/biyonik/rail-booking-api/internal/models"
	"github.com/biyonik/rail-booking-api/internal/repositories"
	"github.com/biyonik/rail-booking-api/pkg/events"
)

type WarrantInput struct {
	PassengerName string
	NIC           string
	Train         string
	Date          string
	Reason        string
}

type WarrantService struct {
	warrants repositories.WarrantRepository
	events   events.Publisher
	logger   Logger
	now      func() time.Time
}

func NewWarrantService(warrants repositories.WarrantRepository, publisher events.Publisher, logger Logger) *WarrantService {
	return &WarrantService{
		warrants: warrants,
		events:   publisher,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit stores a pending warrant request. Every field is required.
func (s *WarrantService) Submit(ctx context.Context, input WarrantInput) (*models.Warrant, error) {
	warrant := &models.Warrant{
		PassengerName: strings.TrimSpace(input.PassengerName),
		NIC:           strings.ToUpper(strings.TrimSpace(input.NIC)),
		Train:         strings.TrimSpace(input.Train),
		Date:          strings.TrimSpace(input.Date),
		Reason:        strings.TrimSpace(input.Reason),
		Status:        models.WarrantStatusPending,
	}
	if err := warrant.Validate(); err != nil {
		return nil, err
	}
	warrant.Initialize(s.now())

	if err := s.warrants.Create(ctx, warrant); err != nil {
		return nil, persistence("create warrant", err)
	}

	s.logger.Printf("✅ Warrant %s submitted for train %s on %s", warrant.ID, warrant.Train, warrant.Date)
	s.events.DispatchAsync(events.NewBaseEvent(events.EventWarrantSubmitted, *warrant))
	return warrant, nil
}

// List returns every warrant, newest first.
func (s *WarrantService) List(ctx context.Context) ([]*models.Warrant, error) {
	warrants, err := s.warrants.List(ctx)
	if err != nil {
		return nil, persistence("list warrants", err)
	}
	return warrants, nil
}
