package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/biyonik/rail-booking-api/internal/models"
)

func newWarrant(id string, created time.Time) *models.Warrant {
	return &models.Warrant{
		BaseModel:     models.BaseModel{ID: id, CreatedAt: created, UpdatedAt: created},
		PassengerName: "Nimal Perera",
		NIC:           "901234567V",
		Train:         "1001",
		Date:          "2024-05-01",
		Reason:        "Army leave",
		Status:        models.WarrantStatusPending,
	}
}

func TestMySQLWarrantRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO warrants")).
		WithArgs("w1", "Nimal Perera", "901234567V", "1001", "2024-05-01", "Army leave", "pending", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO warrants")).
		WillReturnError(errors.New("connection reset"))

	repo := NewMySQLWarrantRepository(db)
	if err := repo.Create(context.Background(), newWarrant("w1", now)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(context.Background(), newWarrant("w2", now)); err == nil {
		t.Error("driver error should be returned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMySQLWarrantRepositoryListAndCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	columns := []string{"id", "passenger_name", "nic", "train", "travel_date", "reason", "status", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("w2", "Kamala", "851234567V", "1002", "2024-05-03", "Duty", "pending", now.Add(time.Hour), now.Add(time.Hour)).
			AddRow("w1", "Nimal Perera", "901234567V", "1001", "2024-05-01", "Army leave", "pending", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM warrants")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM warrants WHERE status = ?")).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	repo := NewMySQLWarrantRepository(db)
	ctx := context.Background()

	warrants, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(warrants) != 2 || warrants[0].ID != "w2" || warrants[1].Reason != "Army leave" {
		t.Errorf("warrants = %+v", warrants)
	}
	if n, err := repo.Count(ctx); err != nil || n != 2 {
		t.Errorf("Count = %d, %v", n, err)
	}
	if n, err := repo.CountByStatus(ctx, models.WarrantStatusPending); err != nil || n != 2 {
		t.Errorf("CountByStatus = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMemoryWarrantRepositoryNewestFirst(t *testing.T) {
	repo := NewMemoryWarrantRepository()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"w1", "w2", "w3"} {
		w := newWarrant(id, base.Add(time.Duration(i)*time.Minute))
		if id == "w2" {
			w.Status = "approved"
		}
		if err := repo.Create(ctx, w); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	warrants, _ := repo.List(ctx)
	if len(warrants) != 3 || warrants[0].ID != "w3" || warrants[2].ID != "w1" {
		t.Errorf("order = %v %v %v", warrants[0].ID, warrants[1].ID, warrants[2].ID)
	}

	// List hands out copies.
	warrants[0].Status = "rejected"
	if n, _ := repo.CountByStatus(ctx, models.WarrantStatusPending); n != 2 {
		t.Errorf("pending = %d, want 2", n)
	}
}
