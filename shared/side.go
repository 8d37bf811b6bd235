package shared

// Side represents the side of a trade decision.
type Side int

const (
	Buy Side = iota
	Sell
	Stay
)

// String stringifies the provided side.
func (s *Side) String() string {
	switch *s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	case Stay:
		return "stay"
	default:
		return "unknown"
	}
}
