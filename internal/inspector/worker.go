package inspector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/steveyegge/siteinspector/internal/policy"
	"github.com/steveyegge/siteinspector/internal/types"
)

// worker is one inspector: it consumes candidates from the registry and
// enforces policy on each. Several run concurrently within a wave.
type worker struct {
	id       int
	registry *CandidateRegistry
	enforcer policy.Enforcer
	logger   *slog.Logger
}

// run services candidates until the wave's discovery has finished and the
// queue is empty. It does not watch ctx: ctx is handed to the enforcer, and
// every dequeued candidate is released even after cancellation.
func (in *worker) run(ctx context.Context, w *wave) {
	for {
		if c, ok := in.registry.Dequeue(); ok {
			in.inspect(ctx, c, w)
			continue
		}

		select {
		case <-w.wake:
		case <-w.discovered:
			c, ok := in.registry.Dequeue()
			if !ok {
				return
			}
			in.inspect(ctx, c, w)
		}
	}
}

func (in *worker) inspect(ctx context.Context, c types.CheckCandidate, w *wave) {
	defer in.registry.Release(c.EntityID)

	result, err := in.enforce(ctx, c)
	if err != nil {
		w.stats.Failed.Add(1)
		in.logger.Warn("policy enforcement failed",
			"wave_id", w.stats.WaveID,
			"inspector", in.id,
			"granularity", c.Granularity,
			"site", c.EntityID,
			"status", c.Status,
			"error", err)
		return
	}

	w.stats.Enforced.Add(1)
	attrs := []any{
		"wave_id", w.stats.WaveID,
		"inspector", in.id,
		"granularity", c.Granularity,
		"site", c.EntityID,
		"status", c.Status,
	}
	if result != nil && result.Changed {
		in.logger.Info("site status changed", append(attrs, "new_status", result.Status, "reason", result.Reason)...)
		return
	}
	in.logger.Debug("site checked", attrs...)
}

// enforce calls the enforcer, converting errors and panics into a
// PolicyEvaluationError
func (in *worker) enforce(ctx context.Context, c types.CheckCandidate) (result *types.PolicyResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &PolicyEvaluationError{Candidate: c, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	result, err = in.enforcer.Enforce(ctx, c.Granularity, c.EntityID, c.Status, c.FormerStatus, c.Reason)
	if err != nil {
		return nil, &PolicyEvaluationError{Candidate: c, Err: err}
	}
	return result, nil
}
