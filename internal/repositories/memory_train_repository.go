package repositories

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/biyonik/rail-booking-api/internal/models"
)

// MemoryTrainRepository is the in-process TrainRepository.
type MemoryTrainRepository struct {
	mu     sync.RWMutex
	trains map[string]*models.Train
}

func NewMemoryTrainRepository() *MemoryTrainRepository {
	return &MemoryTrainRepository{trains: make(map[string]*models.Train)}
}

func (r *MemoryTrainRepository) Create(ctx context.Context, train *models.Train) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkNumber(train); err != nil {
		return err
	}
	r.trains[train.ID] = copyTrain(train)
	return nil
}

func (r *MemoryTrainRepository) Update(ctx context.Context, train *models.Train) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.trains[train.ID]; !ok {
		return models.NotFoundError{Resource: "train", ID: train.ID}
	}
	if err := r.checkNumber(train); err != nil {
		return err
	}
	r.trains[train.ID] = copyTrain(train)
	return nil
}

func (r *MemoryTrainRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.trains[id]; !ok {
		return models.NotFoundError{Resource: "train", ID: id}
	}
	delete(r.trains, id)
	return nil
}

func (r *MemoryTrainRepository) FindByID(ctx context.Context, id string) (*models.Train, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	train, ok := r.trains[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "train", ID: id}
	}
	return copyTrain(train), nil
}

func (r *MemoryTrainRepository) List(ctx context.Context) ([]*models.Train, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trains := make([]*models.Train, 0, len(r.trains))
	for _, train := range r.trains {
		trains = append(trains, copyTrain(train))
	}
	sort.Slice(trains, func(i, j int) bool {
		if !trains[i].DepartureTime.Equal(trains[j].DepartureTime) {
			return trains[i].DepartureTime.Before(trains[j].DepartureTime)
		}
		return trains[i].TrainNumber < trains[j].TrainNumber
	})
	return trains, nil
}

func (r *MemoryTrainRepository) MaxTrainNumber(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	max := 0
	for _, train := range r.trains {
		if n, err := strconv.Atoi(train.TrainNumber); err == nil && n > max {
			max = n
		}
	}
	return max, nil
}

func (r *MemoryTrainRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trains), nil
}

// checkNumber enforces the unique train number. Caller holds the lock.
func (r *MemoryTrainRepository) checkNumber(train *models.Train) error {
	for id, existing := range r.trains {
		if id != train.ID && existing.TrainNumber == train.TrainNumber {
			return models.ConflictError{Resource: "train", Msg: "train number " + train.TrainNumber + " is already in use"}
		}
	}
	return nil
}

func copyTrain(t *models.Train) *models.Train {
	c := *t
	c.Route = append([]string(nil), t.Route...)
	c.BookedSeats = nil
	return &c
}
