package session

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/satriadamar/lensa/pkg/accumulator"
	"github.com/satriadamar/lensa/pkg/border"
	"github.com/satriadamar/lensa/pkg/conversation"
	"github.com/satriadamar/lensa/pkg/display"
	"github.com/satriadamar/lensa/pkg/errorsx"
	"github.com/satriadamar/lensa/pkg/metrics"
	"github.com/satriadamar/lensa/pkg/providers/mock"
	"github.com/satriadamar/lensa/pkg/turn"
)

// fakeClock advances a fixed step on every reading so the loop's dwell
// and grace deadlines pass deterministically without sleeping.
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0), step: step}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

var testDisplayCfg = display.Config{Width: 200, Height: 150, BorderWidth: 20}

func testTimings() Timings {
	return Timings{
		LetterDwell: 200 * time.Millisecond,
		LetterPause: 100 * time.Millisecond,
		WordFlash:   200 * time.Millisecond,
	}
}

func testProtocol(t *testing.T, role turn.Role) *turn.Protocol {
	t.Helper()
	return turn.New(role, turn.Config{
		DoneDwell:       300 * time.Millisecond,
		Grace:           150 * time.Millisecond,
		LivenessTimeout: time.Hour,
	}, nil)
}

func tagsByName(events []metrics.MetricsEvent, key string) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Tags[key])
	}
	return out
}

// The speaker-first scenario: the word "HI" is shown letter by letter,
// the turn finishes through Done into Listening, and the session ends
// when the peer signals done and the script has nothing left.
func TestSpeakerFirstSpeaksWordThenEnds(t *testing.T) {
	composer := display.NewComposer(testDisplayCfg, nil)
	peerRed := composer.Blank(border.SignalRed)

	frames := 0
	cam := &mock.FuncCamera{Fn: func(ctx context.Context) (image.Image, error) {
		frames++
		if frames > 10000 {
			return nil, errors.New("test runaway: loop never ended")
		}
		return peerRed, nil
	}}

	renderer := mock.NewRenderer()
	mem := metrics.NewMemoryObserver()
	clock := newFakeClock(50 * time.Millisecond)

	eng := NewEngine(testTimings(), 0.4, Deps{
		Camera:       cam,
		Recognizer:   mock.NewRecognizer(mock.RecognizerConfig{}),
		Sampler:      border.NewSampler(border.DefaultSamplerConfig(), nil),
		Accumulator:  accumulator.New(accumulator.Config{RequiredFrames: 3, MaxGap: 3}),
		Protocol:     testProtocol(t, turn.RoleSpeakerFirst),
		Conversation: conversation.NewManager(conversation.WithScript([]string{"HI"})),
		Display:      display.New(testDisplayCfg, nil, renderer, nil),
		Observer:     mem,
		Clock:        clock.Now,
	})

	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	sent := mem.Named(metrics.EventWordSent)
	if len(sent) != 1 || sent[0].Tags["word"] != "HI" {
		t.Fatalf("word_sent = %v, want one event for HI", tagsByName(sent, "word"))
	}
	shown := tagsByName(mem.Named(metrics.EventLetterShown), "letter")
	if len(shown) != 2 || shown[0] != "H" || shown[1] != "I" {
		t.Fatalf("letters shown = %v, want [H I]", shown)
	}
	if got := mem.Named(metrics.EventWordReceived); len(got) != 0 {
		t.Fatalf("unexpected word_received events: %v", got)
	}

	var phases []string
	for _, ev := range mem.Named(metrics.EventPhaseChange) {
		phases = append(phases, ev.Tags["from"]+">"+ev.Tags["to"])
	}
	want := []string{"SHOWING>DONE", "DONE>LISTENING", "LISTENING>SHOWING"}
	if len(phases) != len(want) {
		t.Fatalf("phase changes = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phase changes = %v, want %v", phases, want)
		}
	}
	if renderer.Count() == 0 {
		t.Fatalf("display never rendered")
	}
}

// The listener-first scenario: stable green-border frames carrying O
// then K are debounced into the word OK, the turn is handed over, and
// the local side answers with its scripted word.
func TestListenerFirstReceivesWordAndReplies(t *testing.T) {
	composer := display.NewComposer(testDisplayCfg, nil)
	peerGreen := composer.Blank(border.SignalGreen)
	peerRed := composer.Blank(border.SignalRed)

	var camFrames []image.Image
	for i := 0; i < 10; i++ {
		camFrames = append(camFrames, peerGreen)
	}
	camFrames = append(camFrames, peerRed)
	cam := mock.NewCamera(mock.CameraConfig{Frames: camFrames, HoldLast: true})

	dets := append(
		mock.StableDetections("O", 0.9, 5),
		mock.StableDetections("K", 0.9, 5)...,
	)
	rec := mock.NewRecognizer(mock.RecognizerConfig{Detections: dets})

	mem := metrics.NewMemoryObserver()
	clock := newFakeClock(50 * time.Millisecond)
	conv := conversation.NewManager(conversation.WithScript([]string{"GO"}))

	eng := NewEngine(testTimings(), 0.4, Deps{
		Camera:       cam,
		Recognizer:   rec,
		Sampler:      border.NewSampler(border.DefaultSamplerConfig(), nil),
		Accumulator:  accumulator.New(accumulator.Config{RequiredFrames: 3, MaxGap: 3}),
		Protocol:     testProtocol(t, turn.RoleListenerFirst),
		Conversation: conv,
		Display:      display.New(testDisplayCfg, nil, mock.NewRenderer(), nil),
		Observer:     mem,
		Clock:        clock.Now,
	})

	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	received := mem.Named(metrics.EventWordReceived)
	if len(received) != 1 || received[0].Tags["word"] != "OK" {
		t.Fatalf("word_received = %v, want one event for OK", tagsByName(received, "word"))
	}
	confirmed := tagsByName(mem.Named(metrics.EventLetterConfirmed), "letter")
	if len(confirmed) != 2 || confirmed[0] != "O" || confirmed[1] != "K" {
		t.Fatalf("letters confirmed = %v, want [O K]", confirmed)
	}
	sent := mem.Named(metrics.EventWordSent)
	if len(sent) != 1 || sent[0].Tags["word"] != "GO" {
		t.Fatalf("word_sent = %v, want one event for GO", tagsByName(sent, "word"))
	}

	history := conv.History()
	if len(history) != 2 {
		t.Fatalf("history = %v, want GO sent and OK received", history)
	}
	if history[1].Word != "OK" || history[1].Direction != "received" {
		t.Fatalf("history[1] = %+v, want received OK", history[1])
	}
}

// A low-confidence detection must never reach the accumulator.
func TestLowConfidenceDetectionsAreDiscarded(t *testing.T) {
	composer := display.NewComposer(testDisplayCfg, nil)
	peerGreen := composer.Blank(border.SignalGreen)
	peerRed := composer.Blank(border.SignalRed)

	camFrames := []image.Image{peerGreen, peerGreen, peerGreen, peerGreen, peerRed}
	cam := mock.NewCamera(mock.CameraConfig{Frames: camFrames, HoldLast: true})
	rec := mock.NewRecognizer(mock.RecognizerConfig{
		Detections: mock.StableDetections("A", 0.2, 4),
	})

	mem := metrics.NewMemoryObserver()
	clock := newFakeClock(50 * time.Millisecond)

	eng := NewEngine(testTimings(), 0.4, Deps{
		Camera:       cam,
		Recognizer:   rec,
		Sampler:      border.NewSampler(border.DefaultSamplerConfig(), nil),
		Accumulator:  accumulator.New(accumulator.Config{RequiredFrames: 2, MaxGap: 3}),
		Protocol:     testProtocol(t, turn.RoleListenerFirst),
		Conversation: conversation.NewManager(conversation.WithScript([]string{"A"})),
		Display:      display.New(testDisplayCfg, nil, mock.NewRenderer(), nil),
		Observer:     mem,
		Clock:        clock.Now,
	})

	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := mem.Named(metrics.EventLetterConfirmed); len(got) != 0 {
		t.Fatalf("unexpected confirmations: %v", got)
	}
	if got := mem.Named(metrics.EventWordReceived); len(got) != 0 {
		t.Fatalf("unexpected word_received: %v", got)
	}
}

func TestCameraFailureIsFatal(t *testing.T) {
	cam := &mock.FuncCamera{Fn: func(ctx context.Context) (image.Image, error) {
		return nil, errors.New("device unplugged")
	}}
	eng := NewEngine(testTimings(), 0.4, Deps{
		Camera:       cam,
		Recognizer:   mock.NewRecognizer(mock.RecognizerConfig{}),
		Sampler:      border.NewSampler(border.DefaultSamplerConfig(), nil),
		Accumulator:  accumulator.New(accumulator.Config{}),
		Protocol:     testProtocol(t, turn.RoleListenerFirst),
		Conversation: conversation.NewManager(),
		Display:      display.New(testDisplayCfg, nil, mock.NewRenderer(), nil),
		Clock:        newFakeClock(50 * time.Millisecond).Now,
	})

	err := eng.Run(context.Background())
	if err == nil || !errorsx.HasReason(err, errorsx.ReasonCameraRead) {
		t.Fatalf("err = %v, want camera_read reason", err)
	}
}

func TestContextCancelStopsLoop(t *testing.T) {
	composer := display.NewComposer(testDisplayCfg, nil)
	peerCyan := composer.Blank(border.SignalCyan)
	cam := &mock.FuncCamera{Fn: func(ctx context.Context) (image.Image, error) {
		return peerCyan, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	eng := NewEngine(Timings{PollInterval: time.Millisecond}, 0.4, Deps{
		Camera:       cam,
		Recognizer:   mock.NewRecognizer(mock.RecognizerConfig{}),
		Sampler:      border.NewSampler(border.DefaultSamplerConfig(), nil),
		Accumulator:  accumulator.New(accumulator.Config{}),
		Protocol:     testProtocol(t, turn.RoleListenerFirst),
		Conversation: conversation.NewManager(),
		Display:      display.New(testDisplayCfg, nil, mock.NewRenderer(), nil),
	})
	go func() { done <- eng.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("loop did not stop after cancel")
	}
}
