// -----------------------------------------------------------------------------
// MySQL Connection
// -----------------------------------------------------------------------------
// Opens the MySQL pool through go-sql-driver/mysql, applies the pool limits
// from config and verifies the connection with a ping before returning.
// -----------------------------------------------------------------------------

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateEntry is MySQL's ER_DUP_ENTRY.
const ErrDuplicateEntry = 1062

// PoolConfig holds database/sql pool settings.
type PoolConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect opens and pings a MySQL pool.
func Connect(ctx context.Context, cfg PoolConfig, logger *log.Logger) (*sql.DB, error) {
	dsn, err := normalizeDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	logger.Println("🔄 Connecting to MySQL...")
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}

	logger.Println("✅ MySQL connection established")
	return db, nil
}

// normalizeDSN forces parseTime so DATETIME columns scan into time.Time.
func normalizeDSN(dsn string) (string, error) {
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid DB_DSN: %w", err)
	}
	parsed.ParseTime = true
	return parsed.FormatDSN(), nil
}

// IsDuplicateEntry reports whether err is a MySQL duplicate-key violation.
func IsDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == ErrDuplicateEntry
}
