package inspector

import (
	"errors"
	"fmt"

	"github.com/steveyegge/siteinspector/internal/types"
)

var (
	// ErrClaimConflict means the entity is already queued or being inspected.
	// Discovery treats it as a skip, not a failure.
	ErrClaimConflict = errors.New("entity already claimed")

	// ErrWaveInProgress is returned by RunWave while another wave is running
	ErrWaveInProgress = errors.New("wave already in progress")
)

// StoreQueryError wraps a failed discovery query
type StoreQueryError struct {
	Err error
}

func (e *StoreQueryError) Error() string {
	return fmt.Sprintf("store query failed: %v", e.Err)
}

func (e *StoreQueryError) Unwrap() error {
	return e.Err
}

// PolicyEvaluationError is a failed (or panicked) enforcement of one candidate
type PolicyEvaluationError struct {
	Candidate types.CheckCandidate
	Err       error
}

func (e *PolicyEvaluationError) Error() string {
	return fmt.Sprintf("policy evaluation failed for %s: %v", e.Candidate, e.Err)
}

func (e *PolicyEvaluationError) Unwrap() error {
	return e.Err
}

// PoolInitializationError means a wave could not build its worker pool.
// It is the only error RunWave surfaces to its caller.
type PoolInitializationError struct {
	MinWorkers          int
	MaxWorkers          int
	TotalWorkerCapacity int
	Err                 error
}

func (e *PoolInitializationError) Error() string {
	return fmt.Sprintf("failed to initialize worker pool (min=%d, max=%d, total=%d): %v",
		e.MinWorkers, e.MaxWorkers, e.TotalWorkerCapacity, e.Err)
}

func (e *PoolInitializationError) Unwrap() error {
	return e.Err
}
