package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/biyonik/rail-booking-api/internal/models"
	"github.com/biyonik/rail-booking-api/pkg/database"
)

// WarrantRepository stores railway warrant requests.
type WarrantRepository interface {
	Create(ctx context.Context, warrant *models.Warrant) error
	List(ctx context.Context) ([]*models.Warrant, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}

type MySQLWarrantRepository struct {
	db database.QueryExecutor
}

func NewMySQLWarrantRepository(db database.QueryExecutor) *MySQLWarrantRepository {
	return &MySQLWarrantRepository{db: db}
}

func (r *MySQLWarrantRepository) Create(ctx context.Context, w *models.Warrant) error {
	query := `
		INSERT INTO warrants (id, passenger_name, nic, train, travel_date, reason, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		w.ID, w.PassengerName, w.NIC, w.Train, w.Date, w.Reason, w.Status, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create warrant: %w", err)
	}
	return nil
}

// List returns warrants newest first.
func (r *MySQLWarrantRepository) List(ctx context.Context) ([]*models.Warrant, error) {
	query := `
		SELECT id, passenger_name, nic, train, travel_date, reason, status, created_at, updated_at
		FROM warrants
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query warrants: %w", err)
	}
	defer rows.Close()

	warrants := []*models.Warrant{}
	for rows.Next() {
		w := &models.Warrant{}
		if err := rows.Scan(
			&w.ID, &w.PassengerName, &w.NIC, &w.Train, &w.Date, &w.Reason, &w.Status, &w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan warrant: %w", err)
		}
		warrants = append(warrants, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query warrants: %w", err)
	}
	return warrants, nil
}

func (r *MySQLWarrantRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM warrants").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count warrants: %w", err)
	}
	return count, nil
}

func (r *MySQLWarrantRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM warrants WHERE status = ?", status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count warrants: %w", err)
	}
	return count, nil
}

// MemoryWarrantRepository keeps warrants in insertion order.
type MemoryWarrantRepository struct {
	mu       sync.RWMutex
	warrants []*models.Warrant
}

func NewMemoryWarrantRepository() *MemoryWarrantRepository {
	return &MemoryWarrantRepository{}
}

func (r *MemoryWarrantRepository) Create(ctx context.Context, w *models.Warrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *w
	r.warrants = append(r.warrants, &c)
	return nil
}

func (r *MemoryWarrantRepository) List(ctx context.Context) ([]*models.Warrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	warrants := make([]*models.Warrant, 0, len(r.warrants))
	for i := len(r.warrants) - 1; i >= 0; i-- {
		c := *r.warrants[i]
		warrants = append(warrants, &c)
	}
	sort.SliceStable(warrants, func(i, j int) bool {
		return warrants[i].CreatedAt.After(warrants[j].CreatedAt)
	})
	return warrants, nil
}

func (r *MemoryWarrantRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.warrants), nil
}

func (r *MemoryWarrantRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, w := range r.warrants {
		if w.Status == status {
			count++
		}
	}
	return count, nil
}
