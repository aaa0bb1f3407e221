// Package inspector schedules periodic site inspection.
//
// Each wave runs one discoverer, which admits stale sites to a shared
// CandidateRegistry, and MaxWorkers-1 inspectors, which enforce policy on the
// admitted candidates. A site is never inspected twice at the same time: its
// claim is held from admission until an inspector releases it.
package inspector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/steveyegge/siteinspector/internal/config"
	"github.com/steveyegge/siteinspector/internal/policy"
	"github.com/steveyegge/siteinspector/internal/pool"
	"github.com/steveyegge/siteinspector/internal/storage"
)

// State is the orchestrator's position in the wave cycle
type State int

const (
	StateIdle     State = iota // waiting for a trigger
	StateRunning               // building the pool and submitting tasks
	StateDraining              // waiting for submitted tasks to return
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Config holds orchestrator dependencies
type Config struct {
	Store    storage.StatusDataStore
	Enforcer policy.Enforcer
	Logger   *slog.Logger // nil uses slog.Default()

	// Registry is shared across waves; nil creates a fresh one
	Registry *CandidateRegistry
}

// Orchestrator runs waves. The registry outlives individual waves, so a site
// still claimed by a slow inspector is skipped by the next wave's discovery.
type Orchestrator struct {
	store    storage.StatusDataStore
	enforcer policy.Enforcer
	registry *CandidateRegistry
	logger   *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates an orchestrator
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Enforcer == nil {
		return nil, fmt.Errorf("enforcer is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = NewCandidateRegistry()
	}

	return &Orchestrator{
		store:    cfg.Store,
		enforcer: cfg.Enforcer,
		registry: registry,
		logger:   logger,
		state:    StateIdle,
	}, nil
}

// Registry returns the registry shared by this orchestrator's waves
func (o *Orchestrator) Registry() *CandidateRegistry {
	return o.registry
}

// State returns the current wave state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// RunWave runs one discovery plus inspection cycle and blocks until every
// task has returned. Per-site failures are logged and counted in the
// returned stats; only a pool construction failure is returned as an error
// (a *PoolInitializationError). Calling RunWave while a wave is running
// returns ErrWaveInProgress.
func (o *Orchestrator) RunWave(ctx context.Context, thresholds config.ThresholdConfig) (*WaveStats, error) {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return nil, ErrWaveInProgress
	}
	o.state = StateRunning
	o.mu.Unlock()
	defer o.setState(StateIdle)

	// thresholds is a copy; the wave never sees later changes
	inspectors := thresholds.InspectorCount()

	p, err := pool.New(thresholds.MinWorkers, thresholds.MaxWorkers, thresholds.TotalWorkerCapacity)
	if err != nil {
		return nil, &PoolInitializationError{
			MinWorkers:          thresholds.MinWorkers,
			MaxWorkers:          thresholds.MaxWorkers,
			TotalWorkerCapacity: thresholds.TotalWorkerCapacity,
			Err:                 err,
		}
	}

	w := newWave(inspectors)
	logger := o.logger.With("wave_id", w.stats.WaveID)
	logger.Debug("wave started", "inspectors", inspectors, "max_workers", thresholds.MaxWorkers)

	d := &discoverer{store: o.store, registry: o.registry, logger: o.logger}
	submitErr := p.Submit(func() error {
		defer close(w.discovered)
		d.run(ctx, thresholds, w)
		return nil
	})
	if submitErr == nil {
		for i := 0; i < inspectors; i++ {
			in := &worker{id: i + 1, registry: o.registry, enforcer: o.enforcer, logger: o.logger}
			if err := p.Submit(func() error {
				in.run(ctx, w)
				return nil
			}); err != nil {
				submitErr = err
				break
			}
		}
	}

	o.setState(StateDraining)
	if err := p.Wait(); err != nil {
		logger.Warn("wave tasks returned errors", "error", err)
	}

	w.stats.Workers = p.Workers()
	w.stats.Duration = time.Since(w.stats.StartedAt)

	if submitErr != nil {
		return w.stats, &PoolInitializationError{
			MinWorkers:          thresholds.MinWorkers,
			MaxWorkers:          thresholds.MaxWorkers,
			TotalWorkerCapacity: thresholds.TotalWorkerCapacity,
			Err:                 fmt.Errorf("failed to submit wave tasks: %w", submitErr),
		}
	}

	level := slog.LevelInfo
	if w.stats.Claimed.Load() == 0 && !w.stats.DiscoveryFailed.Load() {
		level = slog.LevelDebug
	}
	logger.Log(ctx, level, "wave complete",
		"discovered", w.stats.Discovered.Load(),
		"claimed", w.stats.Claimed.Load(),
		"skipped", w.stats.Skipped.Load(),
		"enforced", w.stats.Enforced.Load(),
		"failed", w.stats.Failed.Load(),
		"duration", w.stats.Duration)

	return w.stats, nil
}

// IsPoolInitializationError reports whether err came from building a wave's pool
func IsPoolInitializationError(err error) bool {
	var target *PoolInitializationError
	return errors.As(err, &target)
}
