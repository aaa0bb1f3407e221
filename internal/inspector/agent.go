package inspector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/steveyegge/siteinspector/internal/config"
)

// AgentConfig holds agent configuration
type AgentConfig struct {
	Orchestrator *Orchestrator
	Thresholds   config.ThresholdConfig
	Version      string
	Logger       *slog.Logger // nil uses slog.Default()
}

// Agent is the periodic trigger: it runs one wave immediately on Start and
// then one per PollInterval until stopped. Waves never overlap; a tick that
// arrives while a wave is still draining is dropped.
type Agent struct {
	orchestrator *Orchestrator
	thresholds   config.ThresholdConfig
	instanceID   string
	version      string
	logger       *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}

	mu       sync.RWMutex
	running  bool
	lastWave *WaveStats
	waves    int
}

// NewAgent creates an agent. The thresholds are validated here and then
// copied into every wave.
func NewAgent(cfg AgentConfig) (*Agent, error) {
	if cfg.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}

	instanceID := uuid.New().String()
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		orchestrator: cfg.Orchestrator,
		thresholds:   cfg.Thresholds,
		instanceID:   instanceID,
		version:      cfg.Version,
		logger:       logger.With("agent_id", instanceID),
	}, nil
}

// InstanceID returns the unique ID of this agent
func (a *Agent) InstanceID() string {
	return a.instanceID
}

// Start launches the wave loop in the background
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("agent is already running")
	}
	a.running = true
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})

	a.logger.Info("agent started",
		"version", a.version,
		"poll_interval", a.thresholds.PollInterval,
		"max_workers", a.thresholds.MaxWorkers,
		"inspectors", a.thresholds.InspectorCount())
	if a.thresholds.InspectorCount() == 0 {
		a.logger.Warn("max workers is 1: sites will be claimed but never inspected")
	}

	go a.loop(ctx, a.stopCh, a.doneCh)
	return nil
}

// Stop signals the loop to exit and waits for the current wave to drain, or
// for ctx to expire. After a timeout the wave keeps draining in the
// background; IsRunning turns false once it has, and Stop may be called
// again to wait for it.
func (a *Agent) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.doneCh == nil {
		a.mu.Unlock()
		return fmt.Errorf("agent is not running")
	}
	stopCh, doneCh := a.stopCh, a.doneCh
	a.mu.Unlock()

	select {
	case <-stopCh:
	default:
		close(stopCh)
	}

	select {
	case <-doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	a.logger.Info("agent stopped", "waves", a.Waves())
	return nil
}

// IsRunning returns whether the wave loop is active
func (a *Agent) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// LastWave returns the stats of the most recently completed wave, or nil
func (a *Agent) LastWave() *WaveStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastWave
}

// Waves returns the number of waves completed since the agent was created
func (a *Agent) Waves() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.waves
}

func (a *Agent) loop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
		close(doneCh)
	}()

	a.runWave(ctx)

	ticker := time.NewTicker(a.thresholds.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			a.runWave(ctx)
		}
	}
}

func (a *Agent) runWave(ctx context.Context) {
	stats, err := a.orchestrator.RunWave(ctx, a.thresholds)
	if err != nil {
		// Log and wait for the next tick
		a.logger.Error("wave failed", "error", err)
		return
	}

	a.mu.Lock()
	a.lastWave = stats
	a.waves++
	a.mu.Unlock()
}
