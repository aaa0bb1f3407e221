package inspector

import (
	"context"
	"errors"
	"log/slog"

	"github.com/steveyegge/siteinspector/internal/config"
	"github.com/steveyegge/siteinspector/internal/storage"
	"github.com/steveyegge/siteinspector/internal/types"
)

// discoverer is the single producer of a wave: it queries the store for
// stale sites and admits them to the registry
type discoverer struct {
	store    storage.StatusDataStore
	registry *CandidateRegistry
	logger   *slog.Logger
}

// run runs one discovery pass and returns the number of candidates
// admitted. A store failure is logged and counts as zero candidates.
// Rows whose site is already claimed are skipped; scanning continues.
func (d *discoverer) run(ctx context.Context, cfg config.ThresholdConfig, w *wave) int {
	rows, err := d.store.GetSitesToCheck(ctx, cfg.ActiveCheckFrequency, cfg.ProbingCheckFrequency, cfg.BannedCheckFrequency)
	if err != nil {
		w.stats.DiscoveryFailed.Store(true)
		d.logger.Error("discovery failed, no sites will be checked this wave",
			"wave_id", w.stats.WaveID,
			"error", &StoreQueryError{Err: err})
		return 0
	}

	w.stats.Discovered.Add(int64(len(rows)))

	admitted := 0
	for _, row := range rows {
		candidate := types.NewSiteCandidate(row)

		if err := d.registry.Admit(candidate); err != nil {
			if errors.Is(err, ErrClaimConflict) {
				w.stats.Skipped.Add(1)
				d.logger.Debug("site already in flight, skipping",
					"wave_id", w.stats.WaveID,
					"granularity", candidate.Granularity,
					"site", candidate.EntityID,
					"status", candidate.Status)
				continue
			}
			d.logger.Warn("failed to admit site",
				"wave_id", w.stats.WaveID,
				"site", candidate.EntityID,
				"error", err)
			continue
		}

		admitted++
		w.stats.Claimed.Add(1)
		w.notify()
	}

	d.logger.Debug("discovery complete",
		"wave_id", w.stats.WaveID,
		"discovered", len(rows),
		"claimed", admitted)
	return admitted
}
