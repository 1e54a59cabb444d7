package database

import (
	"context"
	"database/sql"
)

// QueryExecutor is the subset of database/sql implemented by both *sql.DB
// (pool) and *sql.Tx (transaction). Repositories depend on it so the same
// code runs inside or outside a transaction.
type QueryExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ QueryExecutor = (*sql.DB)(nil)
	_ QueryExecutor = (*sql.Tx)(nil)
)
