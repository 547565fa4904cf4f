// Package conversation decides what the local side says next. It is
// table-driven on purpose: the protocol only needs some deterministic word
// for every turn, never natural-language understanding.
package conversation

import (
	"strings"
	"sync"

	"github.com/satriadamar/lensa/pkg/alphabet"
)

// Greetings are the opening words, in preference order.
var Greetings = []string{"HI", "HELLO", "HEY"}

// responses maps a received word to the reply. Every entry stays inside
// the static alphabet.
var responses = map[string]string{
	"HI":      "HELLO",
	"HELLO":   "HI",
	"HEY":     "HI",
	"HOW":     "GOOD",
	"GOOD":    "THANKS",
	"THANKS":  "WELCOME",
	"WELCOME": "BYE",
	"BYE":     "BYE",
	"YES":     "OK",
	"NO":      "OK",
	"OK":      "COOL",
	"COOL":    "NICE",
	"NICE":    "THANKS",
	"WHAT":    "NOTHING",
	"WHO":     "ME",
	"NAME":    "LENSA",
}

// Demo scripts for two-sided scripted runs.
var (
	DemoScriptA = []string{"HELLO", "HOW", "GOOD", "BYE"}
	DemoScriptB = []string{"HI", "GOOD", "THANKS", "BYE"}
)

// Respond returns the reply for a received word. Unknown but valid words
// echo back; garbled words are filtered to valid letters; when nothing
// survives the fallback is "OK", so the turn never stalls on bad input.
func Respond(received string) string {
	word := strings.ToUpper(strings.TrimSpace(received))
	if reply, ok := responses[word]; ok {
		return reply
	}
	if alphabet.ValidWord(word) {
		return word
	}
	if filtered := alphabet.Filter(word); filtered != "" {
		return filtered
	}
	return "OK"
}

// Exchange is one entry of the conversation history.
type Exchange struct {
	Direction string // "sent" or "received"
	Word      string
}

// Manager sequences outgoing words: either walking a fixed script or
// responding to whatever was last received.
type Manager struct {
	mu       sync.Mutex
	script   []string
	index    int
	sent     []string
	received []string
}

// Option configures a Manager.
type Option func(*Manager)

// WithScript puts the manager in scripted mode: words are sent in order
// and the conversation ends when the script is exhausted.
func WithScript(script []string) Option {
	return func(m *Manager) {
		m.script = append([]string(nil), script...)
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NextWord returns the next outgoing word. lastReceived may be empty (a
// garbled or missing word); the manager still produces something to say.
// ok is false only when a script is exhausted, which ends the session.
func (m *Manager) NextWord(lastReceived string) (word string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.script != nil {
		if m.index >= len(m.script) {
			return "", false
		}
		word = m.script[m.index]
		m.index++
		m.sent = append(m.sent, word)
		return word, true
	}

	if lastReceived != "" {
		word = Respond(lastReceived)
	} else if len(m.sent) == 0 {
		word = Greetings[0]
	} else {
		// Nothing was received this round; keep the conversation alive.
		word = "OK"
	}
	m.sent = append(m.sent, word)
	return word, true
}

// ReceiveWord records a word recovered from the peer.
func (m *Manager) ReceiveWord(word string) {
	word = strings.ToUpper(strings.TrimSpace(word))
	if word == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, word)
}

// History interleaves sent and received words in turn order.
func (m *Manager) History() []Exchange {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Exchange, 0, len(m.sent)+len(m.received))
	si, ri := 0, 0
	for si < len(m.sent) || ri < len(m.received) {
		if si < len(m.sent) {
			out = append(out, Exchange{Direction: "sent", Word: m.sent[si]})
			si++
		}
		if ri < len(m.received) {
			out = append(out, Exchange{Direction: "received", Word: m.received[ri]})
			ri++
		}
	}
	return out
}
