// Package metrics carries the observable events of a session: phase
// transitions, confirmed letters, finalized words. Emission is best
// effort and never required for protocol correctness.
package metrics

import "time"

// Event names emitted by the session loop.
const (
	EventPhaseChange     = "phase_change"
	EventLetterShown     = "letter_shown"
	EventLetterConfirmed = "letter_confirmed"
	EventWordSent        = "word_sent"
	EventWordReceived    = "word_received"
	EventLivenessWarn    = "liveness_warn"
	EventCycle           = "cycle"
)

type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev MetricsEvent)
}

type Flusher interface {
	Flush() error
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}
