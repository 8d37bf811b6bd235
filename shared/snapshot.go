package shared

// MovingAverageSnapshot represents the moving average working state for a
// single decision cycle. A fresh snapshot is computed per cycle and is not
// persisted beyond it.
type MovingAverageSnapshot struct {
	ShortTerm   float64
	LongTerm    float64
	AskingPrice float64
}
