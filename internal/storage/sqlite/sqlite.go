package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/steveyegge/siteinspector/internal/storage/migrations"
)

// SQLiteStorage implements the site status store using SQLite
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (creating if needed) a SQLite database and applies pending migrations
func New(path string) (*SQLiteStorage, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection; pin it to one.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrations.NewManager(Migrations()...).ApplySQLite(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{
		db:  db,
		now: time.Now,
	}, nil
}

// WithClock replaces the clock used for staleness comparisons
func (s *SQLiteStorage) WithClock(now func() time.Time) {
	s.now = now
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
