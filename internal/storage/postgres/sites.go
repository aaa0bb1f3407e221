package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/steveyegge/siteinspector/internal/types"
)

const siteColumns = `name, status, former_status, reason, last_check_time, created_at, updated_at`

// UpsertSite creates a site or updates its status fields.
// A nil LastCheckTime keeps the stored check time.
func (s *PostgresStorage) UpsertSite(ctx context.Context, site *types.Site) error {
	if err := site.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := s.now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sites (`+siteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (name) DO UPDATE SET
			status = EXCLUDED.status,
			former_status = EXCLUDED.former_status,
			reason = EXCLUDED.reason,
			last_check_time = COALESCE(EXCLUDED.last_check_time, sites.last_check_time),
			updated_at = EXCLUDED.updated_at
	`, site.Name, site.Status, site.FormerStatus, site.Reason,
		toNanos(site.LastCheckTime), now.UnixNano())
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
func (s *PostgresStorage) GetSite(ctx context.Context, name string) (*types.Site, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+siteColumns+` FROM sites WHERE name = $1`, name)

	site, err := scanSite(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site %s: %w", name, err)
	}
	return site, nil
}

// ListSites returns all sites ordered by name
func (s *PostgresStorage) ListSites(ctx context.Context) ([]*types.Site, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+siteColumns+` FROM sites ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

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
func (s *PostgresStorage) RecordCheck(ctx context.Context, name string, at time.Time) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE sites SET last_check_time = $1, updated_at = $2 WHERE name = $3
		`, at.UnixNano(), s.now().UnixNano(), name)
		if err != nil {
			return fmt.Errorf("failed to record check for %s: %w", name, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("site not found: %s", name)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO site_checks (site_name, checked_at) VALUES ($1, $2)
		`, name, at.UnixNano()); err != nil {
			return fmt.Errorf("failed to record check history for %s: %w", name, err)
		}
		return nil
	})
}

// GetCheckHistory returns the most recent check times for a site, newest first
func (s *PostgresStorage) GetCheckHistory(ctx context.Context, name string, limit int) ([]time.Time, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT checked_at FROM site_checks
		WHERE site_name = $1
		ORDER BY checked_at DESC, id DESC
		LIMIT $2
	`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get check history for %s: %w", name, err)
	}

	nanos, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan check history: %w", err)
	}

	history := make([]time.Time, len(nanos))
	for i, n := range nanos {
		history[i] = time.Unix(0, n)
	}
	return history, nil
}

// GetSitesToCheck returns the sites whose last check is at least as old as
// the frequency configured for their status. Never-checked sites come first,
// then the stalest.
func (s *PostgresStorage) GetSitesToCheck(ctx context.Context, activeFrequency, probingFrequency, bannedFrequency time.Duration) ([]types.SiteStatus, error) {
	now := s.now()

	rows, err := s.pool.Query(ctx, `
		SELECT name, status, former_status, reason, last_check_time
		FROM sites
		WHERE (status = $1 AND (last_check_time IS NULL OR last_check_time <= $2))
		   OR (status = $3 AND (last_check_time IS NULL OR last_check_time <= $4))
		   OR (status = $5 AND (last_check_time IS NULL OR last_check_time <= $6))
		ORDER BY last_check_time ASC NULLS FIRST, name
	`,
		types.StatusActive, now.Add(-activeFrequency).UnixNano(),
		types.StatusProbing, now.Add(-probingFrequency).UnixNano(),
		types.StatusBanned, now.Add(-bannedFrequency).UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites to check: %w", err)
	}
	defer rows.Close()

	var result []types.SiteStatus
	for rows.Next() {
		var row types.SiteStatus
		var lastCheck *int64
		if err := rows.Scan(&row.Name, &row.Status, &row.FormerStatus, &row.Reason, &lastCheck); err != nil {
			return nil, fmt.Errorf("failed to scan site row: %w", err)
		}
		row.LastCheckTime = fromNanos(lastCheck)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sites to check: %w", err)
	}

	return result, nil
}

func scanSite(row pgx.Row) (*types.Site, error) {
	var site types.Site
	var lastCheck *int64
	var createdAt, updatedAt int64
	if err := row.Scan(&site.Name, &site.Status, &site.FormerStatus, &site.Reason,
		&lastCheck, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	site.LastCheckTime = fromNanos(lastCheck)
	site.CreatedAt = time.Unix(0, createdAt)
	site.UpdatedAt = time.Unix(0, updatedAt)
	return &site, nil
}

func toNanos(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	n := t.UnixNano()
	return &n
}

func fromNanos(n *int64) *time.Time {
	if n == nil {
		return nil
	}
	t := time.Unix(0, *n)
	return &t
}
