package runner

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingDrainer struct{ drained bool }

func (d *recordingDrainer) Drain() error {
	d.drained = true
	return nil
}

func TestRunExecutesWorkAndDrains(t *testing.T) {
	drainer := &recordingDrainer{}
	var started, stopped bool
	r := NewLifecycleRunner(
		func(ctx context.Context) error { return nil },
		drainer,
		Hooks{OnStart: func() { started = true }, OnStop: func() { stopped = true }},
		time.Second,
	)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !started || !stopped || !drainer.drained {
		t.Fatalf("lifecycle hooks not invoked: started=%v stopped=%v drained=%v", started, stopped, drainer.drained)
	}
	if r.State() != StateStopped {
		t.Fatalf("state = %v, want StateStopped", r.State())
	}
}

func TestRunReturnsWorkError(t *testing.T) {
	wantErr := errors.New("camera gone")
	r := NewLifecycleRunner(func(ctx context.Context) error { return wantErr }, nil, Hooks{}, time.Second)
	if err := r.Run(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestRunRejectsSecondStart(t *testing.T) {
	r := NewLifecycleRunner(func(ctx context.Context) error { return nil }, nil, Hooks{}, time.Second)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := r.Run(context.Background()); err == nil {
		t.Fatalf("expected invalid state transition on second run")
	}
}
