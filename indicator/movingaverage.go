package indicator

import (
	"math"
	"time"

	"github.com/dnldd/mac/shared"
	"go.uber.org/atomic"
)

const (
	// ShortWindow is the short term moving average window, in candles.
	ShortWindow = 10
	// LongWindow is the long term moving average window, in candles.
	LongWindow = 20
)

// Names of the indicator values tracked per decision cycle.
const (
	ShortTermName   = "short_term_ma"
	LongTermName    = "long_term_ma"
	AskingPriceName = "asking_price"
)

// MovingAverage computes the simple moving average of the most recent window
// entries of the provided close price series. It returns the not-a-number
// sentinel when the series is shorter than the window.
func MovingAverage(closes []float64, window int) float64 {
	if window <= 0 || len(closes) < window {
		return math.NaN()
	}

	var sum float64
	for idx := len(closes) - window; idx < len(closes); idx++ {
		sum += closes[idx]
	}

	return sum / float64(window)
}

// SnapshotGenerator generates moving average snapshots for an instrument.
type SnapshotGenerator struct {
	Instrument     string
	Current        atomic.Pointer[shared.MovingAverageSnapshot]
	LastUpdateTime atomic.Pointer[time.Time]
}

// NewSnapshotGenerator initializes a snapshot generator for the provided instrument.
func NewSnapshotGenerator(instrument string) *SnapshotGenerator {
	return &SnapshotGenerator{
		Instrument: instrument,
	}
}

// Update computes a fresh moving average snapshot from the provided close
// price series and current ask price.
func (g *SnapshotGenerator) Update(closes []float64, askingPrice float64, now time.Time) *shared.MovingAverageSnapshot {
	snapshot := &shared.MovingAverageSnapshot{
		ShortTerm:   MovingAverage(closes, ShortWindow),
		LongTerm:    MovingAverage(closes, LongWindow),
		AskingPrice: askingPrice,
	}

	g.Current.Store(snapshot)
	g.LastUpdateTime.Store(&now)

	return snapshot
}

// TrackedIndicators returns the names of the indicator values tracked by the
// generator.
func (g *SnapshotGenerator) TrackedIndicators() []string {
	return []string{ShortTermName, LongTermName, AskingPriceName}
}
