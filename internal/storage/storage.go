package storage

import (
	"context"
	"strings"
	"time"

	"github.com/steveyegge/siteinspector/internal/storage/postgres"
	"github.com/steveyegge/siteinspector/internal/storage/sqlite"
	"github.com/steveyegge/siteinspector/internal/types"
)

// StatusDataStore answers discovery queries: which sites are due for a check
type StatusDataStore interface {
	// GetSitesToCheck returns the Active, Probing and Banned sites whose last
	// check is at least the corresponding frequency old (or that were never
	// checked), never-checked first, then oldest check first.
	GetSitesToCheck(ctx context.Context, activeFrequency, probingFrequency, bannedFrequency time.Duration) ([]types.SiteStatus, error)
}

// Storage is the full site status store used by the agent and the CLI
type Storage interface {
	StatusDataStore

	// Sites
	UpsertSite(ctx context.Context, site *types.Site) error
	GetSite(ctx context.Context, name string) (*types.Site, error)
	ListSites(ctx context.Context) ([]*types.Site, error)

	// RecordCheck stamps a site's last check time
	RecordCheck(ctx context.Context, name string, at time.Time) error
	GetCheckHistory(ctx context.Context, name string, limit int) ([]time.Time, error)

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path, or a postgres:// connection URL
	// Default: ".siteinspector/sites.db"
	Path string

	// Now overrides the clock used for staleness comparisons (tests only)
	Now func() time.Time
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".siteinspector/sites.db",
	}
}

// IsPostgresURL reports whether a database path is a PostgreSQL connection URL
func IsPostgresURL(path string) bool {
	return strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://")
}

// NewStorage opens the backend selected by cfg.Path
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	path := cfg.Path
	if path == "" {
		path = DefaultConfig().Path
	}

	if IsPostgresURL(path) {
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = path
		store, err := postgres.New(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		if cfg.Now != nil {
			store.WithClock(cfg.Now)
		}
		return store, nil
	}

	store, err := sqlite.New(path)
	if err != nil {
		return nil, err
	}
	if cfg.Now != nil {
		store.WithClock(cfg.Now)
	}
	return store, nil
}
