package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/steveyegge/siteinspector/internal/types"
)

// UpsertSite creates a site or updates its status fields.
// A nil LastCheckTime keeps the stored check time.
func (s *SQLiteStorage) UpsertSite(ctx context.Context, site *types.Site) error {
	if err := site.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sites (name, status, former_status, reason, last_check_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			status = excluded.status,
			former_status = excluded.former_status,
			reason = excluded.reason,
			last_check_time = COALESCE(excluded.last_check_time, sites.last_check_time),
			updated_at = excluded.updated_at
	`, site.Name, site.Status, site.FormerStatus, site.Reason,
		toNullNanos(site.LastCheckTime), now.UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert site %s: %w", site.Name, err)
	}

	site.UpdatedAt = now
	if site.CreatedAt.IsZero() {
		site.CreatedAt = now
	}
	return nil
}

// GetSite returns a site by name, or nil if it doesn't exist
func (s *SQLiteStorage) GetSite(ctx context.Context, name string) (*types.Site, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, status, former_status, reason, last_check_time, created_at, updated_at
		FROM sites WHERE name = ?
	`, name)

	site, err := scanSite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site %s: %w", name, err)
	}
	return site, nil
}

// ListSites returns all sites ordered by name
func (s *SQLiteStorage) ListSites(ctx context.Context) ([]*types.Site, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, status, former_status, reason, last_check_time, created_at, updated_at
		FROM sites ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sites []*types.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// RecordCheck stamps a site's last check time and appends to its check history
func (s *SQLiteStorage) RecordCheck(ctx context.Context, name string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE sites SET last_check_time = ?, updated_at = ? WHERE name = ?
	`, at.UnixNano(), s.now().UnixNano(), name)
	if err != nil {
		return fmt.Errorf("failed to record check for %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record check for %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("site not found: %s", name)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO site_checks (site_name, checked_at) VALUES (?, ?)
	`, name, at.UnixNano()); err != nil {
		return fmt.Errorf("failed to record check history for %s: %w", name, err)
	}

	return tx.Commit()
}

// GetCheckHistory returns the most recent check times for a site, newest first
func (s *SQLiteStorage) GetCheckHistory(ctx context.Context, name string, limit int) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT checked_at FROM site_checks
		WHERE site_name = ?
		ORDER BY checked_at DESC, id DESC
		LIMIT ?
	`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get check history for %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	var history []time.Time
	for rows.Next() {
		var nanos int64
		if err := rows.Scan(&nanos); err != nil {
			return nil, fmt.Errorf("failed to scan check history: %w", err)
		}
		history = append(history, time.Unix(0, nanos))
	}
	return history, rows.Err()
}

// GetSitesToCheck returns the sites whose last check is at least as old as
// the frequency configured for their status. Never-checked sites come first,
// then the stalest.
func (s *SQLiteStorage) GetSitesToCheck(ctx context.Context, activeFrequency, probingFrequency, bannedFrequency time.Duration) ([]types.SiteStatus, error) {
	now := s.now()

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, status, former_status, reason, last_check_time
		FROM sites
		WHERE (status = ? AND (last_check_time IS NULL OR last_check_time <= ?))
		   OR (status = ? AND (last_check_time IS NULL OR last_check_time <= ?))
		   OR (status = ? AND (last_check_time IS NULL OR last_check_time <= ?))
		ORDER BY last_check_time IS NOT NULL, last_check_time, name
	`,
		types.StatusActive, now.Add(-activeFrequency).UnixNano(),
		types.StatusProbing, now.Add(-probingFrequency).UnixNano(),
		types.StatusBanned, now.Add(-bannedFrequency).UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites to check: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []types.SiteStatus
	for rows.Next() {
		var row types.SiteStatus
		var lastCheck sql.NullInt64
		if err := rows.Scan(&row.Name, &row.Status, &row.FormerStatus, &row.Reason, &lastCheck); err != nil {
			return nil, fmt.Errorf("failed to scan site row: %w", err)
		}
		row.LastCheckTime = fromNullNanos(lastCheck)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sites to check: %w", err)
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (*types.Site, error) {
	var site types.Site
	var lastCheck sql.NullInt64
	var createdAt, updatedAt int64
	if err := row.Scan(&site.Name, &site.Status, &site.FormerStatus, &site.Reason,
		&lastCheck, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	site.LastCheckTime = fromNullNanos(lastCheck)
	site.CreatedAt = time.Unix(0, createdAt)
	site.UpdatedAt = time.Unix(0, updatedAt)
	return &site, nil
}

func toNullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNullNanos(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(0, n.Int64)
	return &t
}
