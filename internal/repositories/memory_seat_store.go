package repositories

import (
	"context"
	"sync"

	"github.com/biyonik/rail-booking-api/internal/models"
)

// MemorySeatStore keeps occupancy in process memory. The mutex makes each
// Reserve/Release/Resize one indivisible step, which is the same guarantee the
// MySQL and Redis drivers get from their storage engines.
type MemorySeatStore struct {
	mu       sync.Mutex
	booked   map[string]map[string]string // train -> seat -> ticket
	capacity map[string]int
}

func NewMemorySeatStore() *MemorySeatStore {
	return &MemorySeatStore{
		booked:   make(map[string]map[string]string),
		capacity: make(map[string]int),
	}
}

func (s *MemorySeatStore) Reserve(ctx context.Context, hold SeatHold) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total, ok := s.capacity[hold.TrainID]
	if !ok {
		total = hold.TotalSeats
	}

	seats := s.booked[hold.TrainID]
	taken := unavailableSeats(total, hold.Codes, func(code string) bool {
		_, booked := seats[code]
		return booked
	})
	if len(taken) > 0 {
		return models.SeatConflictError{TrainID: hold.TrainID, Seats: taken}
	}

	if seats == nil {
		seats = make(map[string]string, len(hold.Codes))
		s.booked[hold.TrainID] = seats
	}
	for _, code := range hold.Codes {
		seats[code] = hold.TicketID
	}
	return nil
}

func (s *MemorySeatStore) Release(ctx context.Context, hold SeatHold) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seats := s.booked[hold.TrainID]
	for _, code := range hold.Codes {
		if owner, ok := seats[code]; ok && owner == hold.TicketID {
			delete(seats, code)
		}
	}
	return nil
}

func (s *MemorySeatStore) Booked(ctx context.Context, trainID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	codes := make([]string, 0, len(s.booked[trainID]))
	for code := range s.booked[trainID] {
		codes = append(codes, code)
	}
	models.SortSeatCodes(codes)
	return codes, nil
}

func (s *MemorySeatStore) Resize(ctx context.Context, trainID string, totalSeats int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	codes := make([]string, 0, len(s.booked[trainID]))
	for code := range s.booked[trainID] {
		codes = append(codes, code)
	}
	if blocked := seatsBeyond(totalSeats, codes); len(blocked) > 0 {
		return resizeConflict(totalSeats, blocked)
	}
	s.capacity[trainID] = totalSeats
	return nil
}

func (s *MemorySeatStore) Clear(ctx context.Context, trainID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.booked, trainID)
	delete(s.capacity, trainID)
	return nil
}
