package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration is one versioned schema step
type Migration struct {
	Version     int
	Description string
	Up          string // SQL to apply the migration
	Down        string // SQL to revert the migration
}

// Manager applies an ordered set of migrations to a database
type Manager struct {
	migrations []Migration
}

// NewManager creates a migration manager preloaded with the given migrations
func NewManager(migrations ...Migration) *Manager {
	m := &Manager{}
	for _, migration := range migrations {
		m.Register(migration)
	}
	return m
}

// Register adds a migration to the manager
func (m *Manager) Register(migration Migration) {
	m.migrations = append(m.migrations, migration)
}

// Latest returns the highest registered version, or 0 if none are registered
func (m *Manager) Latest() int {
	latest := 0
	for _, migration := range m.migrations {
		if migration.Version > latest {
			latest = migration.Version
		}
	}
	return latest
}

func (m *Manager) sorted() ([]Migration, error) {
	sorted := make([]Migration, len(m.migrations))
	copy(sorted, m.migrations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Version == sorted[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", sorted[i].Version)
		}
	}
	return sorted, nil
}

// SQLite

// ApplySQLite applies all pending migrations to a SQLite database
func (m *Manager) ApplySQLite(db *sql.DB) error {
	migrations, err := m.sorted()
	if err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create version table: %w", err)
	}

	current, err := SQLiteVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}
		if err := applySQLiteMigration(db, migration); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// RollbackSQLite reverts the most recently applied migration
func (m *Manager) RollbackSQLite(db *sql.DB) error {
	migrations, err := m.sorted()
	if err != nil {
		return err
	}

	current, err := SQLiteVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if current == 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	for _, migration := range migrations {
		if migration.Version != current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.Exec(migration.Down); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", migration.Version, err)
		}
		if _, err := tx.Exec("DELETE FROM schema_version WHERE version = ?", migration.Version); err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return tx.Commit()
	}

	return fmt.Errorf("migration %d not found", current)
}

// SQLiteVersion returns the highest applied version, 0 for a fresh database
func SQLiteVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func applySQLiteMigration(db *sql.DB, migration Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(migration.Up); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)",
		migration.Version, migration.Description, time.Now(),
	); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

// PostgreSQL

// ApplyPostgres applies all pending migrations to a PostgreSQL database.
// Each migration runs in its own transaction.
func (m *Manager) ApplyPostgres(ctx context.Context, pool *pgxpool.Pool) error {
	migrations, err := m.sorted()
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create version table: %w", err)
	}

	var current int
	if err := pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, migration.Up); err != nil {
				return fmt.Errorf("failed to execute migration SQL: %w", err)
			}
			if _, err := tx.Exec(ctx,
				"INSERT INTO schema_version (version, description) VALUES ($1, $2)",
				migration.Version, migration.Description,
			); err != nil {
				return fmt.Errorf("failed to record migration: %w", err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
