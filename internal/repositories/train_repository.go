package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/biyonik/rail-booking-api/internal/models"
	"github.com/biyonik/rail-booking-api/pkg/database"
)

// TrainRepository persists train metadata. Occupancy lives in SeatStore.
type TrainRepository interface {
	Create(ctx context.Context, train *models.Train) error
	Update(ctx context.Context, train *models.Train) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.Train, error)
	List(ctx context.Context) ([]*models.Train, error)
	MaxTrainNumber(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
}

// MySQLTrainRepository stores trains in the trains table; the route is a
// JSON array column.
type MySQLTrainRepository struct {
	db *sql.DB
}

func NewMySQLTrainRepository(db *sql.DB) *MySQLTrainRepository {
	return &MySQLTrainRepository{db: db}
}

const trainColumns = "id, name, train_number, route, total_seats, departure_time, created_at, updated_at"

func (r *MySQLTrainRepository) Create(ctx context.Context, train *models.Train) error {
	route, err := json.Marshal(train.Route)
	if err != nil {
		return fmt.Errorf("failed to encode route: %w", err)
	}

	query := `
		INSERT INTO trains (id, name, train_number, route, total_seats, departure_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		train.ID, train.Name, train.TrainNumber, string(route), train.TotalSeats,
		train.DepartureTime, train.CreatedAt, train.UpdatedAt,
	)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			return models.ConflictError{Resource: "train", Msg: "train number " + train.TrainNumber + " is already in use"}
		}
		return fmt.Errorf("failed to create train: %w", err)
	}
	return nil
}

func (r *MySQLTrainRepository) Update(ctx context.Context, train *models.Train) error {
	route, err := json.Marshal(train.Route)
	if err != nil {
		return fmt.Errorf("failed to encode route: %w", err)
	}

	query := `
		UPDATE trains
		SET name = ?, train_number = ?, route = ?, total_seats = ?, departure_time = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		train.Name, train.TrainNumber, string(route), train.TotalSeats,
		train.DepartureTime, train.UpdatedAt, train.ID,
	)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			return models.ConflictError{Resource: "train", Msg: "train number " + train.TrainNumber + " is already in use"}
		}
		return fmt.Errorf("failed to update train: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// MySQL reports 0 for an update that changes nothing, so confirm
		// the row exists before calling it missing.
		if _, err := r.FindByID(ctx, train.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the train and any train_seats rows in one transaction.
func (r *MySQLTrainRepository) Delete(ctx context.Context, id string) error {
	return database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM train_seats WHERE train_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete train seats: %w", err)
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM trains WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete train: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return models.NotFoundError{Resource: "train", ID: id}
		}
		return nil
	})
}

func (r *MySQLTrainRepository) FindByID(ctx context.Context, id string) (*models.Train, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+trainColumns+" FROM trains WHERE id = ?", id)

	train, err := scanTrain(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundError{Resource: "train", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find train: %w", err)
	}
	return train, nil
}

func (r *MySQLTrainRepository) List(ctx context.Context) ([]*models.Train, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+trainColumns+" FROM trains ORDER BY departure_time ASC, train_number ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query trains: %w", err)
	}
	defer rows.Close()

	trains := []*models.Train{}
	for rows.Next() {
		train, err := scanTrain(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan train: %w", err)
		}
		trains = append(trains, train)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query trains: %w", err)
	}
	return trains, nil
}

// MaxTrainNumber returns the highest purely numeric train number, 0 if none.
func (r *MySQLTrainRepository) MaxTrainNumber(ctx context.Context) (int, error) {
	query := "SELECT COALESCE(MAX(CAST(train_number AS UNSIGNED)), 0) FROM trains WHERE train_number REGEXP '^[0-9]+$'"

	var max int
	if err := r.db.QueryRowContext(ctx, query).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to read max train number: %w", err)
	}
	return max, nil
}

func (r *MySQLTrainRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trains").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trains: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrain(row rowScanner) (*models.Train, error) {
	train := &models.Train{}
	var route []byte

	err := row.Scan(
		&train.ID, &train.Name, &train.TrainNumber, &route, &train.TotalSeats,
		&train.DepartureTime, &train.CreatedAt, &train.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(route, &train.Route); err != nil {
		return nil, fmt.Errorf("failed to decode route of train %s: %w", train.ID, err)
	}
	return train, nil
}
