package migration

import (
	"context"
	"io"
	"log"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestRunAppliesPendingMigrationsInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	migrations := []Migration{
		{Name: "001_create_trains", Up: []string{"CREATE TABLE trains (id CHAR(36))"}},
		{Name: "002_create_tickets", Up: []string{"CREATE TABLE tickets (id CHAR(36))", "CREATE INDEX idx ON tickets (id)"}},
	}

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT migration FROM migrations ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"migration"}).AddRow("001_create_trains"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(batch) FROM migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"batch"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE tickets (id CHAR(36))")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX idx ON tickets (id)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO migrations (migration, batch) VALUES (?, ?)")).
		WithArgs("002_create_tickets", 2).
		WillReturnResult(sqlmock.NewResult(2, 1))

	m := NewMigrator(db, log.New(io.Discard, "", 0))
	applied, err := m.Run(context.Background(), migrations)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(applied) != 1 || applied[0] != "002_create_tickets" {
		t.Errorf("applied = %v, want [002_create_tickets]", applied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRunStartsAtBatchOneOnEmptyDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT migration FROM migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"migration"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(batch) FROM migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"batch"}).AddRow(nil))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE warrants")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO migrations")).
		WithArgs("001_create_warrants", 1).
		WillReturnResult(sqlmock.NewResult(1, 1))

	m := NewMigrator(db, log.New(io.Discard, "", 0))
	_, err = m.Run(context.Background(), []Migration{
		{Name: "001_create_warrants", Up: []string{"CREATE TABLE warrants (id CHAR(36))"}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
