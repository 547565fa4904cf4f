// Package session runs the agent: one cooperative polling loop that owns
// the camera, border sampler, recognizer, letter accumulator, turn
// protocol, conversation manager and display. All per-turn state lives on
// the loop goroutine; nothing else mutates it.
package session

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/satriadamar/lensa/pkg/accumulator"
	"github.com/satriadamar/lensa/pkg/border"
	"github.com/satriadamar/lensa/pkg/camera"
	"github.com/satriadamar/lensa/pkg/conversation"
	"github.com/satriadamar/lensa/pkg/display"
	"github.com/satriadamar/lensa/pkg/errorsx"
	"github.com/satriadamar/lensa/pkg/logging"
	"github.com/satriadamar/lensa/pkg/metrics"
	"github.com/satriadamar/lensa/pkg/turn"
	"github.com/satriadamar/lensa/pkg/vision"
)

// Timings are the loop's pacing knobs. Dwell and pause sizes must give
// the peer's camera several polling cycles per letter.
type Timings struct {
	PollInterval time.Duration
	LetterDwell  time.Duration
	LetterPause  time.Duration
	WordFlash    time.Duration
}

func (t Timings) withDefaults() Timings {
	if t.LetterDwell <= 0 {
		t.LetterDwell = 2 * time.Second
	}
	if t.LetterPause <= 0 {
		t.LetterPause = 500 * time.Millisecond
	}
	if t.WordFlash <= 0 {
		t.WordFlash = 1500 * time.Millisecond
	}
	return t
}

// Deps are the collaborators the engine drives. All required except
// Observer, Log and Clock.
type Deps struct {
	Camera       camera.Camera
	Recognizer   vision.Recognizer
	Sampler      *border.Sampler
	Accumulator  *accumulator.Accumulator
	Protocol     *turn.Protocol
	Conversation *conversation.Manager
	Display      *display.Display
	Observer     metrics.Observer
	Log          *slog.Logger
	// Clock is swappable for tests. Defaults to time.Now.
	Clock func() time.Time
}

type stepKind int

const (
	stepLetter stepKind = iota
	stepPause
	stepWord
)

// speakStep is one scheduled segment of the outgoing word: a letter held
// for its dwell, a blank pause between letters, or the word flash at the
// end.
type speakStep struct {
	kind stepKind
	text string
	dur  time.Duration
}

// Engine is the per-process session loop.
type Engine struct {
	id      string
	timings Timings
	minConf float64
	deps    Deps
	log     *slog.Logger

	plan      []speakStep
	planIdx   int
	stepUntil time.Time
	current   string // outgoing word being shown
}

// NewEngine wires a loop around explicit collaborators. BuildEngine is
// the config-driven path; tests and the loopback bench use this one.
func NewEngine(timings Timings, minConf float64, deps Deps) *Engine {
	if deps.Observer == nil {
		deps.Observer = metrics.NoopObserver{}
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if minConf <= 0 {
		minConf = 0.40
	}
	id := uuid.NewString()
	e := &Engine{
		id:      id,
		timings: timings.withDefaults(),
		minConf: minConf,
		deps:    deps,
		log:     logging.NewComponentLogger(deps.Log, "session").With("session_id", id),
	}
	deps.Protocol.AddListener(e)
	return e
}

// BuildEngine constructs every collaborator from config via the registry.
func BuildEngine(cfg Config, reg *ProviderRegistry, observer metrics.Observer, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	role, err := turn.ParseRole(cfg.Role)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonConfigInvalid)
	}

	cam, err := reg.BuildCamera(cfg, log)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonCameraOpen)
	}
	rec, err := reg.BuildRecognizer(cfg, log)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonRecognizerInit)
	}
	renderer, err := reg.BuildRenderer(cfg, log)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonDisplayOpen)
	}

	samplerCfg := border.DefaultSamplerConfig()
	if cfg.Border.MarginRatio > 0 {
		samplerCfg.MarginRatio = cfg.Border.MarginRatio
	}
	if cfg.Border.MinRatio > 0 {
		samplerCfg.MinRatio = cfg.Border.MinRatio
	}

	displayCfg := display.Config{
		Width:       cfg.Display.Width,
		Height:      cfg.Display.Height,
		BorderWidth: cfg.Display.BorderWidth,
	}
	var convOpts []conversation.Option
	if len(cfg.Conversation.Script) > 0 {
		convOpts = append(convOpts, conversation.WithScript(cfg.Conversation.Script))
	}

	deps := Deps{
		Camera:     cam,
		Recognizer: rec,
		Sampler:    border.NewSampler(samplerCfg, log),
		Accumulator: accumulator.New(accumulator.Config{
			RequiredFrames: cfg.Accumulator.RequiredFrames,
			MaxGap:         cfg.Accumulator.MaxGap,
			MaxHistory:     cfg.Accumulator.MaxHistory,
		}),
		Protocol: turn.New(role, turn.Config{
			DoneDwell:       time.Duration(cfg.Protocol.DoneDwellMS) * time.Millisecond,
			Grace:           time.Duration(cfg.Protocol.GraceMS) * time.Millisecond,
			LivenessTimeout: time.Duration(cfg.Protocol.LivenessTimeoutMS) * time.Millisecond,
		}, log),
		Conversation: conversation.NewManager(convOpts...),
		Display:      display.New(displayCfg, display.LoadImages(cfg.Display.ImagesDir, log), renderer, log),
		Observer:     observer,
		Log:          log,
	}

	timings := Timings{
		PollInterval: time.Duration(cfg.PollIntervalMS) * time.Millisecond,
		LetterDwell:  time.Duration(cfg.LetterDwellMS) * time.Millisecond,
		LetterPause:  time.Duration(cfg.LetterPauseMS) * time.Millisecond,
		WordFlash:    time.Duration(cfg.WordFlashMS) * time.Millisecond,
	}
	return NewEngine(timings, cfg.MinConfidence, deps), nil
}

// ID is the session identifier tagged on every metrics event.
func (e *Engine) ID() string { return e.id }

// OnPhaseChange implements turn.StateListener.
func (e *Engine) OnPhaseChange(change turn.StateChange) {
	e.emit(metrics.EventPhaseChange, 0, map[string]string{
		"from":   change.From.String(),
		"to":     change.To.String(),
		"reason": change.Reason,
	})
}

// Run executes the polling loop until the conversation ends, ctx is
// cancelled, or a fatal resource error occurs. Camera failures are fatal;
// absent detections are just quiet cycles.
func (e *Engine) Run(ctx context.Context) error {
	defer e.release()

	if e.deps.Protocol.Role() == turn.RoleSpeakerFirst {
		if !e.startTurn(e.deps.Clock(), "") {
			e.log.Info("script empty, nothing to say")
			return nil
		}
	}
	e.log.Info("session started",
		"role", e.deps.Protocol.Role().String(),
		"phase", e.deps.Protocol.Phase().String(),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		cycleStart := e.deps.Clock()

		frame, err := e.deps.Camera.NextFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errorsx.Wrap(err, errorsx.ReasonCameraRead)
		}

		sig := e.deps.Sampler.Sample(frame)
		now := e.deps.Clock()

		switch ev := e.deps.Protocol.Update(sig, now); ev {
		case turn.EventLetterIncoming:
			e.observeLetter(ctx, frame)

		case turn.EventTurnReceived:
			word := e.deps.Accumulator.Flush()
			if word != "" {
				e.deps.Conversation.ReceiveWord(word)
				e.emit(metrics.EventWordReceived, float64(len(word)), map[string]string{"word": word})
				e.log.Info("word received", "word", word)
			} else {
				e.log.Info("turn received with empty word")
			}
			if !e.startTurn(now, word) {
				e.log.Info("script exhausted, ending session")
				return nil
			}

		case turn.EventDoneElapsed:
			e.deps.Accumulator.Reset()

		case turn.EventLivenessWarn:
			e.emit(metrics.EventLivenessWarn, 0, nil)

		default:
			if e.deps.Protocol.Phase() == turn.PhaseListening {
				// No letter this cycle; let the accumulator age its gap.
				e.deps.Accumulator.Observe(nil)
			}
		}

		if e.deps.Protocol.Phase() == turn.PhaseShowing {
			if err := e.advancePlan(now); err != nil {
				return err
			}
		}
		if err := e.render(); err != nil {
			return err
		}

		e.emit(metrics.EventCycle, float64(e.deps.Clock().Sub(cycleStart))/float64(time.Millisecond), nil)

		if e.timings.PollInterval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.timings.PollInterval):
			}
		}
	}
}

// startTurn pulls the next outgoing word and schedules its letters.
// Returns false when the script is exhausted.
func (e *Engine) startTurn(now time.Time, lastReceived string) bool {
	word, ok := e.deps.Conversation.NextWord(lastReceived)
	if !ok {
		return false
	}
	e.current = word
	e.plan = buildPlan(word, e.timings)
	e.planIdx = 0
	e.stepUntil = now.Add(e.plan[0].dur)
	if e.plan[0].kind == stepLetter {
		e.emit(metrics.EventLetterShown, 0, map[string]string{"letter": e.plan[0].text})
	}
	e.log.Info("speaking", "word", word)
	return true
}

func buildPlan(word string, t Timings) []speakStep {
	plan := make([]speakStep, 0, 2*len(word)+1)
	for i, r := range word {
		plan = append(plan, speakStep{kind: stepLetter, text: string(r), dur: t.LetterDwell})
		if i < len(word)-1 {
			plan = append(plan, speakStep{kind: stepPause, dur: t.LetterPause})
		}
	}
	plan = append(plan, speakStep{kind: stepWord, text: word, dur: t.WordFlash})
	return plan
}

// advancePlan walks the speak schedule and finishes the turn once the
// last step's deadline passes.
func (e *Engine) advancePlan(now time.Time) error {
	for e.plan != nil && !now.Before(e.stepUntil) {
		e.planIdx++
		if e.planIdx >= len(e.plan) {
			e.plan = nil
			if err := e.deps.Protocol.FinishSpeaking(now); err != nil {
				return err
			}
			e.emit(metrics.EventWordSent, float64(len(e.current)), map[string]string{"word": e.current})
			e.log.Info("word sent", "word", e.current)
			return nil
		}
		step := e.plan[e.planIdx]
		e.stepUntil = e.stepUntil.Add(step.dur)
		if step.kind == stepLetter {
			e.emit(metrics.EventLetterShown, 0, map[string]string{"letter": step.text})
		}
	}
	return nil
}

// observeLetter classifies a green-border frame and feeds the best
// detection to the accumulator. Classifier errors are transient: logged,
// treated as an absent detection.
func (e *Engine) observeLetter(ctx context.Context, frame image.Image) {
	dets, err := e.deps.Recognizer.Classify(ctx, frame)
	if err != nil {
		e.log.Warn("classify failed, skipping cycle", "error", err)
		e.deps.Accumulator.Observe(nil)
		return
	}
	best := vision.Best(dets, e.minConf)
	if letter, ok := e.deps.Accumulator.Observe(best); ok {
		e.emit(metrics.EventLetterConfirmed, best.Confidence, map[string]string{"letter": letter})
		e.log.Info("letter confirmed", "letter", letter, "confidence", best.Confidence)
	}
}

func (e *Engine) render() error {
	sig := e.deps.Protocol.BorderSignal()
	if e.deps.Protocol.Phase() == turn.PhaseShowing && e.plan != nil {
		step := e.plan[e.planIdx]
		switch step.kind {
		case stepLetter:
			return e.deps.Display.ShowLetter(step.text, sig)
		case stepWord:
			return e.deps.Display.ShowWord(step.text, sig)
		default:
			return e.deps.Display.ShowBlank(sig)
		}
	}
	return e.deps.Display.ShowBlank(sig)
}

func (e *Engine) emit(name string, value float64, tags map[string]string) {
	if tags == nil {
		tags = map[string]string{}
	}
	tags["session_id"] = e.id
	e.deps.Observer.RecordEvent(metrics.MetricsEvent{
		Name:  name,
		Time:  e.deps.Clock(),
		Value: value,
		Tags:  tags,
	})
}

// Drain flushes buffered observability state. Part of runner.Drainer.
func (e *Engine) Drain() error {
	if f, ok := e.deps.Observer.(metrics.Flusher); ok {
		return f.Flush()
	}
	return nil
}

func (e *Engine) release() {
	if err := e.deps.Camera.Close(); err != nil {
		e.log.Warn("camera close", "error", err)
	}
	if err := e.deps.Recognizer.Close(); err != nil {
		e.log.Warn("recognizer close", "error", err)
	}
	if err := e.deps.Display.Close(); err != nil {
		e.log.Warn("display close", "error", err)
	}
}
