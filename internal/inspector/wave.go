package inspector

import (
	"time"

	"github.com/google/uuid"
)

// wave is the state shared by the tasks of one cycle
type wave struct {
	stats *WaveStats

	// discovered is closed when the discoverer has finished admitting
	discovered chan struct{}

	// wake carries one token per admitted candidate, up to one per inspector
	wake chan struct{}
}

func newWave(inspectors int) *wave {
	return &wave{
		stats: &WaveStats{
			WaveID:     uuid.New().String(),
			StartedAt:  time.Now(),
			Inspectors: inspectors,
		},
		discovered: make(chan struct{}),
		wake:       make(chan struct{}, inspectors),
	}
}

// notify wakes one idle inspector, if any are waiting
func (w *wave) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}
