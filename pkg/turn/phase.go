// Package turn implements the turn-taking protocol between two peers that
// can only observe each other through a camera. Coordination is inferred
// from the peer's border color; there is no acknowledgement channel.
package turn

import (
	"fmt"
	"strings"
)

// Role fixes which side transmits first. It is assigned at startup and
// never changes for the lifetime of a session.
type Role int

const (
	RoleSpeakerFirst Role = iota
	RoleListenerFirst
)

func (r Role) String() string {
	switch r {
	case RoleSpeakerFirst:
		return "speaker_first"
	case RoleListenerFirst:
		return "listener_first"
	default:
		return "invalid"
	}
}

// ParseRole maps a config string to a Role. An unknown value is an error:
// both sides starting with the same role deadlocks the session, so this
// must be caught before the loop begins.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "speaker_first", "speaker":
		return RoleSpeakerFirst, nil
	case "listener_first", "listener":
		return RoleListenerFirst, nil
	default:
		return 0, fmt.Errorf("unknown role %q (want speaker_first or listener_first)", s)
	}
}

// Phase is the local protocol sub-state. Exactly one phase is active at
// any instant and it is visible to the peer only through the border color.
type Phase int

const (
	// PhaseShowing: local side is the speaker, presenting a letter.
	PhaseShowing Phase = iota
	// PhaseDone: local side finished its word and is signaling completion.
	PhaseDone
	// PhaseListening: local side is watching the peer and accumulating.
	PhaseListening
)

func (p Phase) String() string {
	switch p {
	case PhaseShowing:
		return "SHOWING"
	case PhaseDone:
		return "DONE"
	case PhaseListening:
		return "LISTENING"
	default:
		return "UNKNOWN"
	}
}

// InvalidTransitionError reports a phase transition outside the protocol.
type InvalidTransitionError struct {
	From Phase
	To   Phase
}

func (e *InvalidTransitionError) Error() string {
	return "invalid phase transition from " + e.From.String() + " to " + e.To.String()
}
