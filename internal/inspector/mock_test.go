package inspector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/steveyegge/siteinspector/internal/config"
	"github.com/steveyegge/siteinspector/internal/types"
)

// fakeStore returns a fixed set of rows for every discovery query
type fakeStore struct {
	mu    sync.Mutex
	rows  []types.SiteStatus
	err   error
	calls int
	freqs [3]time.Duration
}

func (f *fakeStore) GetSitesToCheck(ctx context.Context, active, probing, banned time.Duration) ([]types.SiteStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.freqs = [3]time.Duration{active, probing, banned}
	if f.err != nil {
		return nil, f.err
	}
	rows := make([]types.SiteStatus, len(f.rows))
	copy(rows, f.rows)
	return rows, nil
}

func sites(names ...string) []types.SiteStatus {
	rows := make([]types.SiteStatus, len(names))
	for i, name := range names {
		rows[i] = types.SiteStatus{Name: name, Status: types.StatusActive, FormerStatus: types.StatusProbing, Reason: "auto"}
	}
	return rows
}

// fakeEnforcer records every call and detects concurrent calls for one site
type fakeEnforcer struct {
	mu       sync.Mutex
	calls    []types.CheckCandidate
	active   map[string]int
	overlaps []string

	fail    map[string]error
	panicOn map[string]bool
	delay   time.Duration

	// entered, when set, receives the site name as each call starts;
	// release, when set, blocks each call until closed
	entered chan string
	release chan struct{}
}

func newFakeEnforcer() *fakeEnforcer {
	return &fakeEnforcer{
		active:  make(map[string]int),
		fail:    make(map[string]error),
		panicOn: make(map[string]bool),
	}
}

func (f *fakeEnforcer) Enforce(ctx context.Context, granularity types.Granularity, name, status, formerStatus, reason string) (*types.PolicyResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, types.CheckCandidate{
		Granularity:  granularity,
		EntityID:     name,
		Status:       status,
		FormerStatus: formerStatus,
		Reason:       reason,
	})
	f.active[name]++
	if f.active[name] > 1 {
		f.overlaps = append(f.overlaps, name)
	}
	failErr := f.fail[name]
	shouldPanic := f.panicOn[name]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active[name]--
		f.mu.Unlock()
	}()

	if f.entered != nil {
		f.entered <- name
	}
	if f.release != nil {
		<-f.release
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if shouldPanic {
		panic(fmt.Sprintf("enforcer exploded on %s", name))
	}
	if failErr != nil {
		return nil, failErr
	}
	return &types.PolicyResult{Granularity: granularity, EntityID: name, Status: status, Reason: reason}, nil
}

func (f *fakeEnforcer) calledNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.calls))
	for i, c := range f.calls {
		names[i] = c.EntityID
	}
	return names
}

func (f *fakeEnforcer) overlapping() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.overlaps...)
}

func thresholds(maxWorkers int) config.ThresholdConfig {
	cfg := config.DefaultThresholdConfig()
	cfg.MinWorkers = 1
	cfg.MaxWorkers = maxWorkers
	if cfg.TotalWorkerCapacity < maxWorkers {
		cfg.TotalWorkerCapacity = maxWorkers
	}
	return cfg
}
