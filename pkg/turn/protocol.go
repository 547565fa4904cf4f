package turn

import (
	"log/slog"
	"sync"
	"time"

	"github.com/satriadamar/lensa/pkg/border"
)

// Event is a significant protocol occurrence surfaced to the session loop.
type Event int

const (
	EventNone Event = iota
	// EventLetterIncoming: the peer's border is green, a letter is being shown.
	EventLetterIncoming
	// EventDoneElapsed: we held the red border long enough, now listening.
	EventDoneElapsed
	// EventTurnReceived: the peer signaled done and the grace period has
	// passed, the local side becomes the speaker.
	EventTurnReceived
	// EventLivenessWarn: no informative peer signal for longer than the
	// liveness timeout. Warning only, the protocol keeps waiting.
	EventLivenessWarn
)

func (e Event) String() string {
	switch e {
	case EventLetterIncoming:
		return "letter_incoming"
	case EventDoneElapsed:
		return "done_elapsed"
	case EventTurnReceived:
		return "turn_received"
	case EventLivenessWarn:
		return "liveness_warn"
	default:
		return "none"
	}
}

// StateChange describes one phase transition.
type StateChange struct {
	From   Phase
	To     Phase
	Time   time.Time
	Reason string
}

// StateListener observes phase transitions.
type StateListener interface {
	OnPhaseChange(event StateChange)
}

// Config holds the protocol timings.
type Config struct {
	// DoneDwell is how long the red border is held before switching to
	// listening, so the peer's camera has a chance to observe it.
	DoneDwell time.Duration
	// Grace is how long after first seeing the peer's red border the
	// listener keeps accumulating, to flush an in-flight letter run.
	Grace time.Duration
	// LivenessTimeout is how long the listener tolerates uninformative
	// signals before warning. It never forces a role flip: the protocol
	// cannot tell a mid-word peer from a mis-framed camera, so it favors
	// safety over liveness.
	LivenessTimeout time.Duration
}

// Protocol is the turn-taking state machine. One instance per process,
// owned by the session loop; the mutex only guards listener registration
// against the loop.
type Protocol struct {
	mu    sync.RWMutex
	role  Role
	phase Phase
	cfg   Config
	log   *slog.Logger

	doneAt     time.Time // entered PhaseDone
	peerDoneAt time.Time // first red observed while listening
	lastSignal time.Time // last informative signal while listening
	lastWarn   time.Time

	listeners []StateListener
}

var validTransitions = map[Phase][]Phase{
	PhaseShowing:   {PhaseDone},
	PhaseDone:      {PhaseListening},
	PhaseListening: {PhaseShowing},
}

// New creates a protocol machine starting in the phase implied by role.
func New(role Role, cfg Config, log *slog.Logger) *Protocol {
	if cfg.DoneDwell <= 0 {
		cfg.DoneDwell = 2 * time.Second
	}
	if cfg.Grace <= 0 {
		cfg.Grace = 500 * time.Millisecond
	}
	if cfg.LivenessTimeout <= 0 {
		cfg.LivenessTimeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	phase := PhaseShowing
	if role == RoleListenerFirst {
		phase = PhaseListening
	}
	now := time.Now()
	return &Protocol{
		role:       role,
		phase:      phase,
		cfg:        cfg,
		log:        log,
		lastSignal: now,
	}
}

// Role returns the session role. Fixed after construction.
func (p *Protocol) Role() Role { return p.role }

// Phase returns the current phase.
func (p *Protocol) Phase() Phase {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.phase
}

// BorderSignal is the color the local display must paint for the current
// phase: it is the only protocol state the peer can see.
func (p *Protocol) BorderSignal() border.Signal {
	switch p.Phase() {
	case PhaseShowing:
		return border.SignalGreen
	case PhaseDone:
		return border.SignalRed
	default:
		return border.SignalCyan
	}
}

// AddListener registers a listener for phase transitions.
func (p *Protocol) AddListener(l StateListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// FinishSpeaking moves Showing to Done once the outgoing word's letters
// have all been displayed for their dwell time.
func (p *Protocol) FinishSpeaking(now time.Time) error {
	if err := p.transition(PhaseDone, "word complete", now); err != nil {
		return err
	}
	p.mu.Lock()
	p.doneAt = now
	p.mu.Unlock()
	return nil
}

// Update advances the machine one polling cycle given the peer signal
// decoded from the camera. It returns the significant event of the cycle,
// or EventNone.
func (p *Protocol) Update(sig border.Signal, now time.Time) Event {
	switch p.Phase() {
	case PhaseDone:
		p.mu.RLock()
		elapsed := now.Sub(p.doneAt)
		p.mu.RUnlock()
		if elapsed >= p.cfg.DoneDwell {
			if err := p.transition(PhaseListening, "done dwell elapsed", now); err != nil {
				return EventNone
			}
			p.mu.Lock()
			p.peerDoneAt = time.Time{}
			p.lastSignal = now
			p.mu.Unlock()
			return EventDoneElapsed
		}

	case PhaseListening:
		p.mu.Lock()
		if sig.Informative() {
			p.lastSignal = now
		}
		if sig == border.SignalRed && p.peerDoneAt.IsZero() {
			p.peerDoneAt = now
		}
		peerDoneAt := p.peerDoneAt
		sinceSignal := now.Sub(p.lastSignal)
		stalled := sinceSignal >= p.cfg.LivenessTimeout &&
			now.Sub(p.lastWarn) >= p.cfg.LivenessTimeout
		if stalled {
			p.lastWarn = now
		}
		p.mu.Unlock()

		// Once red has been seen, the grace clock runs to completion
		// even if later cycles decode nothing: the peer already told us
		// it is done.
		if !peerDoneAt.IsZero() && now.Sub(peerDoneAt) >= p.cfg.Grace {
			if err := p.transition(PhaseShowing, "peer done", now); err != nil {
				return EventNone
			}
			return EventTurnReceived
		}
		if sig == border.SignalGreen {
			return EventLetterIncoming
		}
		if stalled {
			p.log.Warn("no peer signal while listening",
				"since", sinceSignal.String(),
				"timeout", p.cfg.LivenessTimeout.String(),
			)
			return EventLivenessWarn
		}
	}
	return EventNone
}

func (p *Protocol) transition(to Phase, reason string, now time.Time) error {
	p.mu.Lock()
	from := p.phase
	if !transitionValid(from, to) {
		p.mu.Unlock()
		return &InvalidTransitionError{From: from, To: to}
	}
	p.phase = to
	listeners := make([]StateListener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	p.log.Info("phase transition",
		"from", from.String(),
		"to", to.String(),
		"reason", reason,
	)
	ev := StateChange{From: from, To: to, Time: now, Reason: reason}
	for _, l := range listeners {
		l.OnPhaseChange(ev)
	}
	return nil
}

func transitionValid(from, to Phase) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
