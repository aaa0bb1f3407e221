package inspector

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/steveyegge/siteinspector/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(name string) types.CheckCandidate {
	return types.CheckCandidate{Granularity: types.GranularitySite, EntityID: name, Status: types.StatusActive}
}

func TestRegistryTryClaim(t *testing.T) {
	r := NewCandidateRegistry()

	assert.True(t, r.TryClaim("siteA"))
	assert.False(t, r.TryClaim("siteA"), "second claim must fail")
	assert.True(t, r.TryClaim("siteB"))

	pending, claimed := r.Counts()
	assert.Equal(t, 0, pending, "failed and successful claims never enqueue")
	assert.Equal(t, 2, claimed)
}

func TestRegistryEnqueueRequiresClaim(t *testing.T) {
	r := NewCandidateRegistry()

	require.Error(t, r.Enqueue(candidate("siteA")))

	require.True(t, r.TryClaim("siteA"))
	require.NoError(t, r.Enqueue(candidate("siteA")))

	err := r.Enqueue(candidate("siteA"))
	assert.ErrorIs(t, err, ErrClaimConflict, "a claimed site may be queued only once")
}

func TestRegistryAdmit(t *testing.T) {
	r := NewCandidateRegistry()

	require.NoError(t, r.Admit(candidate("siteA")))
	assert.ErrorIs(t, r.Admit(candidate("siteA")), ErrClaimConflict)

	// Still conflicts after dequeue: the site is in flight until released
	c, ok := r.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "siteA", c.EntityID)
	assert.ErrorIs(t, r.Admit(candidate("siteA")), ErrClaimConflict)

	r.Release("siteA")
	assert.NoError(t, r.Admit(candidate("siteA")))
}

func TestRegistryFIFO(t *testing.T) {
	r := NewCandidateRegistry()
	for _, name := range []string{"siteA", "siteB", "siteC"} {
		require.NoError(t, r.Admit(candidate(name)))
	}

	var got []string
	for {
		c, ok := r.Dequeue()
		if !ok {
			break
		}
		got = append(got, c.EntityID)
	}
	assert.Equal(t, []string{"siteA", "siteB", "siteC"}, got)
}

func TestRegistryQuiescence(t *testing.T) {
	r := NewCandidateRegistry()
	assert.True(t, r.IsQuiescent())

	require.NoError(t, r.Admit(candidate("siteA")))
	assert.False(t, r.IsQuiescent(), "pending candidate")

	_, ok := r.Dequeue()
	require.True(t, ok)
	assert.False(t, r.IsQuiescent(), "in-flight candidate")

	r.Release("siteA")
	assert.True(t, r.IsQuiescent())

	_, ok = r.Dequeue()
	assert.False(t, ok)

	// Releasing an unknown ID is a no-op
	r.Release("ghost")
	assert.True(t, r.IsQuiescent())
}

func TestRegistryConcurrentAdmit(t *testing.T) {
	r := NewCandidateRegistry()

	const goroutines = 50
	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Admit(candidate("siteA")) == nil {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load())
	pending, claimed := r.Counts()
	assert.Equal(t, 1, pending)
	assert.Equal(t, 1, claimed)
}

func TestRegistryConcurrentDrain(t *testing.T) {
	r := NewCandidateRegistry()
	const total = 200
	for i := 0; i < total; i++ {
		require.NoError(t, r.Admit(candidate(fmt.Sprintf("site-%03d", i))))
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				c, ok := r.Dequeue()
				if !ok {
					return
				}
				mu.Lock()
				seen[c.EntityID]++
				mu.Unlock()
				r.Release(c.EntityID)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, total)
	for name, n := range seen {
		assert.Equal(t, 1, n, "site %s dequeued more than once", name)
	}
	assert.True(t, r.IsQuiescent())
}
