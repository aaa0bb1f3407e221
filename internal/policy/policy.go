// Package policy holds the policy enforcement step run by inspectors for each
// candidate. Deciding status transitions is left to the enforcer supplied by
// the deployment; CheckRecorder is the bundled enforcer and only stamps the
// check time.
package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/steveyegge/siteinspector/internal/types"
	"golang.org/x/time/rate"
)

// Enforcer evaluates policy for one entity and may act on it.
// Failures are per-entity and must not affect other entities.
type Enforcer interface {
	Enforce(ctx context.Context, granularity types.Granularity, name, status, formerStatus, reason string) (*types.PolicyResult, error)
}

// EnforcerFunc adapts a function to the Enforcer interface
type EnforcerFunc func(ctx context.Context, granularity types.Granularity, name, status, formerStatus, reason string) (*types.PolicyResult, error)

// Enforce calls f
func (f EnforcerFunc) Enforce(ctx context.Context, granularity types.Granularity, name, status, formerStatus, reason string) (*types.PolicyResult, error) {
	return f(ctx, granularity, name, status, formerStatus, reason)
}

// CheckStore is the part of the site store the check recorder writes to
type CheckStore interface {
	RecordCheck(ctx context.Context, name string, at time.Time) error
}

// CheckRecorder marks a site as checked so it leaves the stale window.
// It never changes a site's status.
type CheckRecorder struct {
	store CheckStore
	now   func() time.Time
}

// NewCheckRecorder creates a recorder writing to store
func NewCheckRecorder(store CheckStore) *CheckRecorder {
	return &CheckRecorder{store: store, now: time.Now}
}

// WithClock replaces the clock used to stamp checks
func (r *CheckRecorder) WithClock(now func() time.Time) *CheckRecorder {
	r.now = now
	return r
}

// Enforce records the check and reports the status unchanged
func (r *CheckRecorder) Enforce(ctx context.Context, granularity types.Granularity, name, status, formerStatus, reason string) (*types.PolicyResult, error) {
	if !granularity.IsValid() {
		return nil, fmt.Errorf("unsupported granularity %q", granularity)
	}

	if err := r.store.RecordCheck(ctx, name, r.now()); err != nil {
		return nil, fmt.Errorf("failed to record check for %s: %w", name, err)
	}

	return &types.PolicyResult{
		Granularity: granularity,
		EntityID:    name,
		Status:      status,
		Changed:     false,
		Reason:      reason,
	}, nil
}

type rateLimited struct {
	next    Enforcer
	limiter *rate.Limiter
}

// RateLimited throttles calls to next with a token bucket of the given rate
// and burst. A limit <= 0 disables throttling and returns next unchanged.
func RateLimited(next Enforcer, limit rate.Limit, burst int) Enforcer {
	if limit <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimited{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (r *rateLimited) Enforce(ctx context.Context, granularity types.Granularity, name, status, formerStatus, reason string) (*types.PolicyResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", name, err)
	}
	return r.next.Enforce(ctx, granularity, name, status, formerStatus, reason)
}
