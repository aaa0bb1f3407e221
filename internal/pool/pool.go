// Package pool provides a single-use bounded worker pool.
//
// A pool starts MinWorkers goroutines up front and grows lazily up to
// MaxWorkers while submitted work is waiting. At most TotalCapacity tasks may
// be outstanding (queued or running) at any time. Tasks start in submission
// order.
package pool

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrInvalidPoolSize is returned by New when the sizing bounds are inconsistent
	ErrInvalidPoolSize = errors.New("invalid pool size")

	// ErrPoolFull is returned by Submit when TotalCapacity tasks are already outstanding
	ErrPoolFull = errors.New("pool is at capacity")

	// ErrPoolClosed is returned by Submit after Wait has been called
	ErrPoolClosed = errors.New("pool is closed")
)

// Task is a unit of work run by the pool
type Task func() error

// Pool runs submitted tasks on a bounded set of goroutines
type Pool struct {
	minWorkers int
	maxWorkers int
	capacity   int

	tasks chan Task
	admit *semaphore.Weighted
	group errgroup.Group

	mu          sync.Mutex
	workers     int
	idle        int
	peakWorkers int
	closed      bool
	errs        []error
}

// New creates a pool. Requires 1 <= maxWorkers, 0 <= minWorkers <= maxWorkers
// and totalCapacity >= maxWorkers.
func New(minWorkers, maxWorkers, totalCapacity int) (*Pool, error) {
	if maxWorkers < 1 {
		return nil, fmt.Errorf("%w: max workers must be at least 1 (got %d)", ErrInvalidPoolSize, maxWorkers)
	}
	if minWorkers < 0 || minWorkers > maxWorkers {
		return nil, fmt.Errorf("%w: min workers must be between 0 and %d (got %d)",
			ErrInvalidPoolSize, maxWorkers, minWorkers)
	}
	if totalCapacity < maxWorkers {
		return nil, fmt.Errorf("%w: total capacity %d is smaller than max workers %d",
			ErrInvalidPoolSize, totalCapacity, maxWorkers)
	}

	p := &Pool{
		minWorkers: minWorkers,
		maxWorkers: maxWorkers,
		capacity:   totalCapacity,
		tasks:      make(chan Task, totalCapacity),
		admit:      semaphore.NewWeighted(int64(totalCapacity)),
	}

	p.mu.Lock()
	for i := 0; i < minWorkers; i++ {
		p.spawnLocked()
	}
	p.mu.Unlock()

	return p, nil
}

// Submit queues a task. It never blocks: it fails with ErrPoolFull when the
// pool already holds TotalCapacity outstanding tasks.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	if !p.admit.TryAcquire(1) {
		return ErrPoolFull
	}

	// Admission guarantees a free buffer slot, so this send cannot block.
	p.tasks <- task

	if p.workers < p.maxWorkers && len(p.tasks) > p.idle {
		p.spawnLocked()
	}
	return nil
}

// Wait closes the pool to new submissions and blocks until every submitted
// task has returned. Task errors are joined into the returned error.
func (p *Pool) Wait() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	_ = p.group.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.errs...)
}

// Workers returns the number of worker goroutines started so far
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peakWorkers
}

// Capacity returns the pool's admission bound
func (p *Pool) Capacity() int {
	return p.capacity
}

// spawnLocked starts one worker goroutine. Caller must hold p.mu.
func (p *Pool) spawnLocked() {
	p.workers++
	if p.workers > p.peakWorkers {
		p.peakWorkers = p.workers
	}
	p.group.Go(p.work)
}

func (p *Pool) work() error {
	for {
		p.mu.Lock()
		p.idle++
		p.mu.Unlock()

		task, ok := <-p.tasks

		p.mu.Lock()
		p.idle--
		if !ok {
			p.workers--
			p.mu.Unlock()
			return nil
		}
		p.mu.Unlock()

		err := task()
		p.admit.Release(1)

		if err != nil {
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
		}
	}
}
