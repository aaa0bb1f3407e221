package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DataDirName is the per-project directory holding the database, config and agent lock
const DataDirName = ".siteinspector"

// DiscoverDatabase looks for .siteinspector/*.db in the current directory only.
// Returns the absolute path to the database file, or an error if not found.
//
// SITEINSPECTOR_DB_PATH takes precedence when set; it may also hold a
// postgres:// URL.
func DiscoverDatabase() (string, error) {
	if dbPath := os.Getenv("SITEINSPECTOR_DB_PATH"); dbPath != "" {
		return dbPath, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return discoverDatabaseInDir(dir)
}

// discoverDatabaseInDir checks for .siteinspector/*.db in the specified directory only.
// Does NOT walk up the directory tree.
func discoverDatabaseInDir(dir string) (string, error) {
	dataDir := filepath.Join(dir, DataDirName)

	if info, err := os.Stat(dataDir); err == nil && info.IsDir() {
		entries, err := os.ReadDir(dataDir)
		if err == nil {
			for _, entry := range entries {
				if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".db") {
					absPath, err := filepath.Abs(filepath.Join(dataDir, entry.Name()))
					if err != nil {
						return "", fmt.Errorf("failed to get absolute path: %w", err)
					}
					return absPath, nil
				}
			}
		}
	}

	return "", fmt.Errorf(
		"no %s/*.db found in %s\n"+
			"  Run 'siteinspector sites add' to create one here\n"+
			"  Or use --db flag to specify database path explicitly",
		DataDirName, dir)
}

// GetProjectRoot returns the project root directory for a given database path.
// The project root is the directory containing the .siteinspector/ directory.
//
// Example:
//   dbPath: /srv/grid/.siteinspector/sites.db
//   returns: /srv/grid
func GetProjectRoot(dbPath string) (string, error) {
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	dbDir := filepath.Dir(absPath)
	if filepath.Base(dbDir) != DataDirName {
		return "", fmt.Errorf(
			"database must be in a %s/ directory, got: %s",
			DataDirName, dbPath)
	}

	return filepath.Dir(dbDir), nil
}
