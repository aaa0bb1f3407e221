package postgres

import "github.com/steveyegge/siteinspector/internal/storage/migrations"

// Migrations returns the schema history of the PostgreSQL backend.
// Timestamps are BIGINT Unix nanoseconds, matching the SQLite backend.
func Migrations() []migrations.Migration {
	return []migrations.Migration{
		{
			Version:     1,
			Description: "Create sites table",
			Up: `
				CREATE TABLE IF NOT EXISTS sites (
					name TEXT PRIMARY KEY CHECK(LENGTH(name) <= 255),
					status TEXT NOT NULL,
					former_status TEXT NOT NULL DEFAULT '',
					reason TEXT NOT NULL DEFAULT '',
					last_check_time BIGINT,
					created_at BIGINT NOT NULL,
					updated_at BIGINT NOT NULL
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
					id BIGSERIAL PRIMARY KEY,
					site_name TEXT NOT NULL REFERENCES sites(name) ON DELETE CASCADE,
					checked_at BIGINT NOT NULL
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
