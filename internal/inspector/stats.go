package inspector

import (
	"fmt"
	"sync/atomic"
	"time"
)

// WaveStats describes one discovery plus inspection cycle. Counters are
// updated concurrently while the wave runs and are final once RunWave returns.
type WaveStats struct {
	WaveID     string
	StartedAt  time.Time
	Duration   time.Duration
	Inspectors int // inspector tasks scheduled
	Workers    int // goroutines the pool started

	Discovered      atomic.Int64 // rows returned by the store
	Claimed         atomic.Int64 // rows admitted to the queue
	Skipped         atomic.Int64 // rows already claimed
	Enforced        atomic.Int64 // successful enforcements
	Failed          atomic.Int64 // failed or panicked enforcements
	DiscoveryFailed atomic.Bool  // the store query failed
}

// String returns a one-line summary for logs and the CLI
func (s *WaveStats) String() string {
	return fmt.Sprintf("wave %s: discovered=%d claimed=%d skipped=%d enforced=%d failed=%d inspectors=%d duration=%v",
		s.WaveID, s.Discovered.Load(), s.Claimed.Load(), s.Skipped.Load(),
		s.Enforced.Load(), s.Failed.Load(), s.Inspectors, s.Duration.Round(time.Millisecond))
}
