package observers

import (
	"log/slog"
	"sync"

	"github.com/satriadamar/lensa/pkg/metrics"
)

// CycleStats summarizes polling loop latency.
type CycleStats struct {
	Count int64
	AvgMS float64
	MaxMS float64
}

// LatencyObserver accumulates per-cycle duration events. The loop must
// keep up with the camera frame rate, so a drifting max is the first
// sign of trouble.
type LatencyObserver struct {
	mu      sync.Mutex
	log     *slog.Logger
	count   int64
	totalMS float64
	maxMS   float64
}

func NewLatencyObserver(log *slog.Logger) *LatencyObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LatencyObserver{log: log}
}

func (o *LatencyObserver) RecordEvent(ev metrics.MetricsEvent) {
	if ev.Name != metrics.EventCycle {
		return
	}
	o.mu.Lock()
	o.count++
	o.totalMS += ev.Value
	if ev.Value > o.maxMS {
		o.maxMS = ev.Value
	}
	count, avg, max := o.count, o.totalMS/float64(o.count), o.maxMS
	o.mu.Unlock()

	if count%512 == 0 {
		o.log.Debug("cycle latency",
			"cycles", count,
			"avg_ms", avg,
			"max_ms", max,
		)
	}
}

// Snapshot returns the stats gathered so far.
func (o *LatencyObserver) Snapshot() CycleStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := CycleStats{Count: o.count, MaxMS: o.maxMS}
	if o.count > 0 {
		s.AvgMS = o.totalMS / float64(o.count)
	}
	return s
}
