package inspector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/steveyegge/siteinspector/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainNames(r *CandidateRegistry) []string {
	var names []string
	for {
		c, ok := r.Dequeue()
		if !ok {
			return names
		}
		names = append(names, c.EntityID)
	}
}

func TestDiscovererAdmitsRowsInOrder(t *testing.T) {
	store := &fakeStore{rows: []types.SiteStatus{
		{Name: "siteA", Status: "Active", FormerStatus: "Probing", Reason: "auto"},
		{Name: "siteB", Status: "Banned", FormerStatus: "Active", Reason: "manual"},
	}}
	registry := NewCandidateRegistry()
	d := &discoverer{store: store, registry: registry, logger: testLogger()}
	w := newWave(2)

	admitted := d.run(context.Background(), thresholds(3), w)

	assert.Equal(t, 2, admitted)
	assert.Equal(t, int64(2), w.stats.Discovered.Load())
	assert.Equal(t, int64(2), w.stats.Claimed.Load())
	assert.Len(t, w.wake, 2, "one wake token per admitted candidate")

	first, ok := registry.Dequeue()
	require.True(t, ok)
	assert.Equal(t, types.CheckCandidate{
		Granularity:  types.GranularitySite,
		EntityID:     "siteA",
		Status:       "Active",
		FormerStatus: "Probing",
		Reason:       "auto",
	}, first)
	assert.Equal(t, []string{"siteB"}, drainNames(registry))
}

func TestDiscovererPassesFrequencies(t *testing.T) {
	store := &fakeStore{}
	cfg := thresholds(2)
	cfg.ActiveCheckFrequency = 8 * time.Minute
	cfg.ProbingCheckFrequency = 5 * time.Minute
	cfg.BannedCheckFrequency = time.Hour

	d := &discoverer{store: store, registry: NewCandidateRegistry(), logger: testLogger()}
	d.run(context.Background(), cfg, newWave(1))

	assert.Equal(t, 1, store.calls)
	assert.Equal(t, [3]time.Duration{8 * time.Minute, 5 * time.Minute, time.Hour}, store.freqs)
}

// An already-claimed site must not stop the scan
func TestDiscovererContinuesPastClaimedSite(t *testing.T) {
	store := &fakeStore{rows: sites("siteA", "siteB", "siteC", "siteD")}
	registry := NewCandidateRegistry()
	require.True(t, registry.TryClaim("siteB"))

	d := &discoverer{store: store, registry: registry, logger: testLogger()}
	w := newWave(3)
	admitted := d.run(context.Background(), thresholds(4), w)

	assert.Equal(t, 3, admitted)
	assert.Equal(t, int64(1), w.stats.Skipped.Load())
	assert.Equal(t, []string{"siteA", "siteC", "siteD"}, drainNames(registry))
}

func TestDiscovererSkipsDuplicateRows(t *testing.T) {
	store := &fakeStore{rows: sites("siteA", "siteA", "siteB")}
	registry := NewCandidateRegistry()

	d := &discoverer{store: store, registry: registry, logger: testLogger()}
	w := newWave(1)
	admitted := d.run(context.Background(), thresholds(2), w)

	assert.Equal(t, 2, admitted)
	assert.Equal(t, int64(1), w.stats.Skipped.Load())
	assert.Equal(t, []string{"siteA", "siteB"}, drainNames(registry))
}

func TestDiscovererStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	registry := NewCandidateRegistry()

	d := &discoverer{store: store, registry: registry, logger: testLogger()}
	w := newWave(1)
	admitted := d.run(context.Background(), thresholds(2), w)

	assert.Equal(t, 0, admitted)
	assert.True(t, w.stats.DiscoveryFailed.Load())
	assert.True(t, registry.IsQuiescent())
}

func TestDiscovererNoInspectorsDoesNotBlock(t *testing.T) {
	store := &fakeStore{rows: sites("siteA", "siteB")}
	registry := NewCandidateRegistry()

	d := &discoverer{store: store, registry: registry, logger: testLogger()}
	w := newWave(0)

	// wake has no buffer; notify must drop the token
	assert.Equal(t, 2, d.run(context.Background(), thresholds(1), w))
}

func TestStoreQueryErrorUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := error(&StoreQueryError{Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "store query failed")
}
