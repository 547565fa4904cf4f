package metrics

import (
	"math"
	"sync/atomic"
)

// SamplingObserver forwards roughly rate-fraction of events. Per-cycle
// events arrive at camera frame rate, which is too chatty for artifact
// sinks; sampling keeps them representative instead of exhaustive.
type SamplingObserver struct {
	inner   Observer
	every   uint64
	counter uint64
}

func NewSamplingObserver(inner Observer, rate float64) *SamplingObserver {
	var every uint64
	switch {
	case rate <= 0:
		every = 0
	case rate >= 1:
		every = 1
	default:
		every = uint64(math.Round(1.0 / rate))
		if every == 0 {
			every = 1
		}
	}
	return &SamplingObserver{inner: inner, every: every}
}

func (s *SamplingObserver) RecordEvent(ev MetricsEvent) {
	if s.every == 0 {
		return
	}
	if s.every == 1 {
		s.inner.RecordEvent(ev)
		return
	}
	n := atomic.AddUint64(&s.counter, 1)
	if n%s.every == 0 {
		s.inner.RecordEvent(ev)
	}
}
