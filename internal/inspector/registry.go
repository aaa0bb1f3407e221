package inspector

import (
	"fmt"
	"sync"

	"github.com/steveyegge/siteinspector/internal/types"
)

// CandidateRegistry is the queue of pending candidates plus the set of
// claimed entity IDs. An ID is claimed from the moment discovery admits it
// until an inspector releases it, so at most one candidate per entity is
// pending or in flight at any time.
//
// All operations hold one mutex for their full duration and never block.
type CandidateRegistry struct {
	mu       sync.Mutex
	pending  []types.CheckCandidate
	inFlight map[string]struct{}
}

// NewCandidateRegistry creates an empty registry
func NewCandidateRegistry() *CandidateRegistry {
	return &CandidateRegistry{
		inFlight: make(map[string]struct{}),
	}
}

// TryClaim marks entityID in flight. It returns false, with no side effect,
// if the ID is already claimed.
func (r *CandidateRegistry) TryClaim(entityID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimLocked(entityID)
}

// Enqueue appends a candidate whose ID the caller has already claimed
func (r *CandidateRegistry) Enqueue(c types.CheckCandidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.inFlight[c.EntityID]; !ok {
		return fmt.Errorf("cannot enqueue %s: not claimed", c)
	}
	for _, p := range r.pending {
		if p.EntityID == c.EntityID {
			return fmt.Errorf("cannot enqueue %s: %w", c, ErrClaimConflict)
		}
	}
	r.pending = append(r.pending, c)
	return nil
}

// Admit claims and enqueues a candidate in one critical section.
// It returns ErrClaimConflict if the entity is already claimed.
func (r *CandidateRegistry) Admit(c types.CheckCandidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.claimLocked(c.EntityID) {
		return ErrClaimConflict
	}
	r.pending = append(r.pending, c)
	return nil
}

// Dequeue removes and returns the oldest pending candidate. The entity stays
// claimed until Release.
func (r *CandidateRegistry) Dequeue() (types.CheckCandidate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) == 0 {
		return types.CheckCandidate{}, false
	}
	c := r.pending[0]
	r.pending[0] = types.CheckCandidate{}
	r.pending = r.pending[1:]
	if len(r.pending) == 0 {
		r.pending = nil
	}
	return c, true
}

// Release drops the claim on entityID
func (r *CandidateRegistry) Release(entityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, entityID)
}

// IsQuiescent reports whether nothing is pending and nothing is claimed
func (r *CandidateRegistry) IsQuiescent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending) == 0 && len(r.inFlight) == 0
}

// Counts returns the number of pending candidates and claimed IDs
func (r *CandidateRegistry) Counts() (pending, claimed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending), len(r.inFlight)
}

func (r *CandidateRegistry) claimLocked(entityID string) bool {
	if _, ok := r.inFlight[entityID]; ok {
		return false
	}
	r.inFlight[entityID] = struct{}{}
	return true
}
