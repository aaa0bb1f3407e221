package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/steveyegge/siteinspector/internal/config"
	"github.com/steveyegge/siteinspector/internal/policy"
	"github.com/steveyegge/siteinspector/internal/storage"
	"golang.org/x/time/rate"
)

// Version is the agent version written to the lock file
const Version = "0.1.0"

var (
	dbPath     string
	configPath string
	logLevel   string

	store storage.Storage
)

var rootCmd = &cobra.Command{
	Use:   "siteinspector",
	Short: "Periodically re-check stale sites and enforce site policy",
	Long: `siteinspector discovers sites whose status has not been checked within the
configured frequency for that status (Active, Probing, Banned) and runs policy
enforcement on each, with a bounded pool of concurrent inspectors.

The database is found in .siteinspector/ in the current directory unless
--db or SITEINSPECTOR_DB_PATH is set. A postgres:// URL selects PostgreSQL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLogLevel(logLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		if dbPath == "" {
			if discovered, err := storage.DiscoverDatabase(); err == nil {
				dbPath = discovered
			} else {
				dbPath = filepath.Join(storage.DataDirName, "sites.db")
			}
		}

		store, err = storage.NewStorage(cmd.Context(), &storage.Config{Path: dbPath})
		if err != nil {
			return fmt.Errorf("failed to open database %s: %w", dbPath, err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to close database: %v\n", err)
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path or postgres:// URL (default: auto-discover)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Threshold config file (default: config.yaml next to the database)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("SITEINSPECTOR_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q (want debug, info, warn or error)", s)
	}
	return level, nil
}

// resolveConfigPath returns --config, or config.yaml in the database's
// directory (the data directory for PostgreSQL)
func resolveConfigPath(dbPath, configPath string) string {
	if configPath != "" {
		return configPath
	}
	if dbPath == "" || storage.IsPostgresURL(dbPath) {
		return filepath.Join(storage.DataDirName, "config.yaml")
	}
	return filepath.Join(filepath.Dir(dbPath), "config.yaml")
}

// lockTarget returns the path the agent lock is placed next to
func lockTarget(dbPath string) string {
	if storage.IsPostgresURL(dbPath) {
		return filepath.Join(storage.DataDirName, "postgres.db")
	}
	return dbPath
}

func loadThresholds() (config.ThresholdConfig, error) {
	path := resolveConfigPath(dbPath, configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// newEnforcer builds the policy enforcer run by inspectors
func newEnforcer(store policy.CheckStore, cfg config.ThresholdConfig) policy.Enforcer {
	return policy.RateLimited(policy.NewCheckRecorder(store), rate.Limit(cfg.EnforceRatePerSecond), cfg.EnforceBurst)
}
