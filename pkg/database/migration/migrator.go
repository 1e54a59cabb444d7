// -----------------------------------------------------------------------------
// Migrator
// -----------------------------------------------------------------------------
// Applies ordered schema migrations once each and records them in the
// `migrations` table together with the batch number of the run that applied
// them. Migrations are plain SQL statements owned by the application.
//
// Usage:
//
//	m := migration.NewMigrator(db, logger)
//	if err := m.Run(ctx, repositories.Migrations()); err != nil {
//	    logger.Fatalf("❌ migrate: %v", err)
//	}
// -----------------------------------------------------------------------------

package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// Migration is one named, forward-only schema change.
type Migration struct {
	Name string
	Up   []string
}

// Migrator runs migrations against a MySQL database.
type Migrator struct {
	db     *sql.DB
	logger *log.Logger
}

func NewMigrator(db *sql.DB, logger *log.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS migrations (
	id INT AUTO_INCREMENT PRIMARY KEY,
	migration VARCHAR(255) NOT NULL UNIQUE,
	batch INT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

// Run applies every migration that has not been recorded yet, in order, and
// returns the names it applied.
func (m *Migrator) Run(ctx context.Context, migrations []Migration) ([]string, error) {
	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	ran, err := m.ranMigrations(ctx)
	if err != nil {
		return nil, err
	}

	batch, err := m.lastBatch(ctx)
	if err != nil {
		return nil, err
	}
	batch++

	var applied []string
	for _, mig := range migrations {
		if ran[mig.Name] {
			continue
		}
		for _, stmt := range mig.Up {
			if _, err := m.db.ExecContext(ctx, stmt); err != nil {
				return applied, fmt.Errorf("failed to apply migration %s: %w", mig.Name, err)
			}
		}
		if _, err := m.db.ExecContext(ctx, "INSERT INTO migrations (migration, batch) VALUES (?, ?)", mig.Name, batch); err != nil {
			return applied, fmt.Errorf("failed to record migration %s: %w", mig.Name, err)
		}
		m.logger.Printf("✅ Migrated: %s", mig.Name)
		applied = append(applied, mig.Name)
	}

	if len(applied) == 0 {
		m.logger.Println("✅ Nothing to migrate")
	}
	return applied, nil
}

func (m *Migrator) ranMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT migration FROM migrations ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	defer rows.Close()

	ran := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		ran[name] = true
	}
	return ran, rows.Err()
}

func (m *Migrator) lastBatch(ctx context.Context) (int, error) {
	var batch sql.NullInt64
	if err := m.db.QueryRowContext(ctx, "SELECT MAX(batch) FROM migrations").Scan(&batch); err != nil {
		return 0, fmt.Errorf("failed to read last batch: %w", err)
	}
	if batch.Valid {
		return int(batch.Int64), nil
	}
	return 0, nil
}
