package sqlite

import "github.com/steveyegge/siteinspector/internal/storage/migrations"

// Timestamps are stored as Unix nanoseconds so staleness cutoffs compare exactly.

// Migrations returns the schema history of the SQLite backend
func Migrations() []migrations.Migration {
	return []migrations.Migration{
		{
			Version:     1,
			Description: "Create sites table",
			Up: `
				CREATE TABLE IF NOT EXISTS sites (
					name TEXT PRIMARY KEY CHECK(length(name) <= 255),
					status TEXT NOT NULL,
					former_status TEXT NOT NULL DEFAULT '',
					reason TEXT NOT NULL DEFAULT '',
					last_check_time INTEGER,
					created_at INTEGER NOT NULL,
					updated_at INTEGER NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_sites_status_check ON sites(status, last_check_time);
			`,
			Down: `
				DROP INDEX IF EXISTS idx_sites_status_check;
				DROP TABLE IF EXISTS sites;
			`,
		},
		{
			Version:     2,
			Description: "Create site check history table",
			Up: `
				CREATE TABLE IF NOT EXISTS site_checks (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					site_name TEXT NOT NULL,
					checked_at INTEGER NOT NULL,
					FOREIGN KEY (site_name) REFERENCES sites(name) ON DELETE CASCADE
				);
				CREATE INDEX IF NOT EXISTS idx_site_checks_site ON site_checks(site_name, checked_at);
			`,
			Down: `
				DROP INDEX IF EXISTS idx_site_checks_site;
				DROP TABLE IF EXISTS site_checks;
			`,
		},
	}
}
