// Package border decodes the peer's protocol state from the colored frame
// it paints around its screen. The border is the only signaling channel
// between the two sides, so misreads here stall or race the whole session.
package border

// Signal is the discrete color category decoded from a border region.
type Signal int

const (
	// SignalUnknown means no reference color dominated the border this
	// cycle. It carries no information and must never drive a transition.
	SignalUnknown Signal = iota
	// SignalGreen: the peer is showing a letter.
	SignalGreen
	// SignalRed: the peer finished its word, turn is over.
	SignalRed
	// SignalCyan: the peer is listening.
	SignalCyan
)

func (s Signal) String() string {
	switch s {
	case SignalGreen:
		return "green"
	case SignalRed:
		return "red"
	case SignalCyan:
		return "cyan"
	default:
		return "unknown"
	}
}

// Informative reports whether the signal carries protocol information.
func (s Signal) Informative() bool { return s != SignalUnknown }
