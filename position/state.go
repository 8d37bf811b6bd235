package position

import "github.com/dnldd/mac/shared"

// State represents the position state of a strategy. The strategy is either
// flat or fully invested, it never pyramids into an open position.
type State int

const (
	Flat State = iota
	Invested
)

// String stringifies the provided position state.
func (s *State) String() string {
	switch *s {
	case Flat:
		return "flat"
	case Invested:
		return "invested"
	default:
		return "unknown"
	}
}

// Transition returns the position state that follows the provided decision
// side. Only a buy from flat or a sell while invested changes state.
func (s State) Transition(side shared.Side) State {
	switch {
	case s == Flat && side == shared.Buy:
		return Invested
	case s == Invested && side == shared.Sell:
		return Flat
	default:
		return s
	}
}
