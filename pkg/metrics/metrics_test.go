package metrics

import (
	"testing"
	"time"
)

func TestAsyncObserverDrainsOnClose(t *testing.T) {
	mem := NewMemoryObserver()
	async := NewAsyncObserver(mem, 16)
	for i := 0; i < 10; i++ {
		async.RecordEvent(MetricsEvent{Name: EventCycle, Time: time.Now()})
	}
	async.Close()
	if got := len(mem.Events()); got != 10 {
		t.Fatalf("drained %d events, want 10", got)
	}
	// Recording after close is a no-op, not a panic.
	async.RecordEvent(MetricsEvent{Name: EventCycle})
	if got := len(mem.Events()); got != 10 {
		t.Fatalf("events after close = %d, want 10", got)
	}
}

func TestAsyncObserverCountsOverflow(t *testing.T) {
	block := make(chan struct{})
	slow := observerFunc(func(MetricsEvent) { <-block })
	async := NewAsyncObserver(slow, 1)
	for i := 0; i < 50; i++ {
		async.RecordEvent(MetricsEvent{Name: EventCycle})
	}
	if async.Dropped() == 0 {
		t.Fatalf("expected drops with a blocked inner observer")
	}
	close(block)
	async.Close()
}

func TestSamplingObserverRates(t *testing.T) {
	mem := NewMemoryObserver()
	s := NewSamplingObserver(mem, 0.1)
	for i := 0; i < 100; i++ {
		s.RecordEvent(MetricsEvent{Name: EventCycle})
	}
	if got := len(mem.Events()); got != 10 {
		t.Fatalf("sampled %d of 100 at rate 0.1, want 10", got)
	}

	off := NewSamplingObserver(mem, 0)
	off.RecordEvent(MetricsEvent{Name: EventCycle})
	if got := len(mem.Events()); got != 10 {
		t.Fatalf("rate 0 forwarded an event")
	}
}

func TestMemoryObserverNamed(t *testing.T) {
	mem := NewMemoryObserver()
	mem.RecordEvent(MetricsEvent{Name: EventWordSent, Tags: map[string]string{"word": "HI"}})
	mem.RecordEvent(MetricsEvent{Name: EventCycle})
	got := mem.Named(EventWordSent)
	if len(got) != 1 || got[0].Tags["word"] != "HI" {
		t.Fatalf("Named = %v", got)
	}
}

type observerFunc func(MetricsEvent)

func (f observerFunc) RecordEvent(ev MetricsEvent) { f(ev) }
