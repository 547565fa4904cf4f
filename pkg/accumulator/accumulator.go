// Package accumulator turns noisy per-frame letter detections into
// confirmed letters and words. A letter is confirmed only after enough
// consecutive frames agree, which debounces single-frame misreads.
package accumulator

import (
	"strings"
	"sync"

	"github.com/satriadamar/lensa/pkg/vision"
)

type Config struct {
	// RequiredFrames is the consecutive-frame agreement needed to confirm.
	RequiredFrames int
	// MaxGap is how many detection-free frames are tolerated before the
	// pending candidate is abandoned.
	MaxGap int
	// MaxHistory bounds the finalized-word history.
	MaxHistory int
}

// Accumulator tracks the single leading candidate letter plus the word
// built from confirmed letters. It keys on one label at a time: a frame
// disagreeing with the pending candidate restarts the run on the new
// label rather than voting across labels.
type Accumulator struct {
	mu      sync.Mutex
	cfg     Config
	pending string
	run     int
	gap     int
	// sealed is the last confirmed label. Further frames of the same
	// label are ignored until a no-detection gap or a turn boundary, so
	// a long-held sign confirms exactly once and "LL" needs a pause.
	sealed  string
	letters []string
	history []string
}

func New(cfg Config) *Accumulator {
	if cfg.RequiredFrames <= 0 {
		cfg.RequiredFrames = 8
	}
	if cfg.MaxGap <= 0 {
		cfg.MaxGap = 3
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 10
	}
	return &Accumulator{cfg: cfg}
}

// Observe feeds one frame's best detection (nil when the frame had none).
// It returns the confirmed letter and true exactly once per stable run;
// after confirming, the pending state clears so a continuously held sign
// does not re-confirm until a gap or turn boundary resets it.
func (a *Accumulator) Observe(det *vision.Detection) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if det == nil {
		a.gap++
		a.sealed = ""
		if a.gap > a.cfg.MaxGap {
			a.pending = ""
			a.run = 0
		}
		return "", false
	}

	a.gap = 0
	if det.Label == a.sealed {
		return "", false
	}
	a.sealed = ""
	if det.Label == a.pending {
		a.run++
	} else {
		a.pending = det.Label
		a.run = 1
	}

	if a.run < a.cfg.RequiredFrames {
		return "", false
	}

	letter := a.pending
	a.pending = ""
	a.run = 0
	a.sealed = letter
	a.letters = append(a.letters, letter)
	return letter, true
}

// Pending reports the current candidate and its run length, for status
// logging only.
func (a *Accumulator) Pending() (string, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending, a.run
}

// Word returns the letters confirmed so far in this turn.
func (a *Accumulator) Word() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return strings.Join(a.letters, "")
}

// Flush finalizes the current word, clears all per-turn state and records
// the word in history. An empty turn flushes to "".
func (a *Accumulator) Flush() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	word := strings.Join(a.letters, "")
	a.clearLocked()
	if word != "" {
		a.history = append(a.history, word)
		if len(a.history) > a.cfg.MaxHistory {
			a.history = a.history[len(a.history)-a.cfg.MaxHistory:]
		}
	}
	return word
}

// Reset drops all per-turn state without finalizing, for turn boundaries.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clearLocked()
}

func (a *Accumulator) clearLocked() {
	a.pending = ""
	a.run = 0
	a.gap = 0
	a.sealed = ""
	a.letters = a.letters[:0]
}

// History returns the finalized words, oldest first.
func (a *Accumulator) History() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.history))
	copy(out, a.history)
	return out
}
