package engine

import (
	"math"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/mac/position"
	"github.com/dnldd/mac/shared"
	"github.com/rs/zerolog"
)

const (
	// DefaultThreshold is the default crossover threshold, the minimum
	// percentage separation between the moving averages required to act.
	DefaultThreshold = 0.001
)

// FaultKind represents a recoverable decision fault.
type FaultKind int

const (
	NoFault FaultKind = iota
	// InsufficientData flags a moving average computed over a series shorter
	// than its window.
	InsufficientData
	// DegenerateSignal flags a crossover signal with an undefined diff.
	DegenerateSignal
)

// String stringifies the provided fault kind.
func (f *FaultKind) String() string {
	switch *f {
	case NoFault:
		return "no fault"
	case InsufficientData:
		return "insufficient data"
	case DegenerateSignal:
		return "degenerate signal"
	default:
		return "unknown"
	}
}

// Result represents the outcome of a decision cycle. An order is only present
// for buy and sell decisions that sized successfully.
type Result struct {
	Side  shared.Side
	Order *shared.MarketOrder
	Fault FaultKind
}

// EngineConfig represents the crossover engine configuration.
type EngineConfig struct {
	// Threshold is the minimum percentage separation between the short and
	// long term moving averages required to trigger a trade.
	Threshold float64
	// BuildOrder assembles a market order for the provided ask price and side.
	BuildOrder func(askingPrice float64, side shared.Side) shared.MarketOrder
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Engine decides whether to buy, sell or hold from the separation of the
// short and long term moving averages of an instrument.
type Engine struct {
	cfg *EngineConfig
}

// NewEngine initializes a new crossover engine.
func NewEngine(cfg *EngineConfig) *Engine {
	return &Engine{
		cfg: cfg,
	}
}

// Decide evaluates the provided snapshot against the current position state
// and produces a trade decision. All numeric faults degrade to a stay
// decision, a malformed signal never produces a trade.
func (e *Engine) Decide(snapshot *shared.MovingAverageSnapshot, state position.State) Result {
	if math.IsNaN(snapshot.ShortTerm) || math.IsNaN(snapshot.LongTerm) {
		e.cfg.Logger.Error().Msgf("moving averages unavailable for decision: %s", spew.Sdump(snapshot))
		return Result{Side: shared.Stay, Fault: InsufficientData}
	}

	midpoint := (snapshot.ShortTerm + snapshot.LongTerm) / 2
	if midpoint == 0 {
		e.cfg.Logger.Error().Msgf("degenerate crossover signal, midpoint of %f and %f is zero",
			snapshot.ShortTerm, snapshot.LongTerm)
		return Result{Side: shared.Stay, Fault: DegenerateSignal}
	}

	// The crossover signal strength is the percentage separation between the
	// two moving averages, normalized by their midpoint.
	diff := 100 * (snapshot.ShortTerm - snapshot.LongTerm) / midpoint
	e.cfg.Logger.Info().Msgf("crossover diff %f", diff)

	var side shared.Side
	switch {
	case diff >= e.cfg.Threshold && state == position.Flat:
		side = shared.Buy
	case diff <= -e.cfg.Threshold && state == position.Invested:
		side = shared.Sell
	default:
		// The signal is either inside the threshold band or points in the
		// wrong direction for the current position state.
		return Result{Side: shared.Stay}
	}

	order := e.cfg.BuildOrder(snapshot.AskingPrice, side)
	if order.Units <= 0 {
		e.cfg.Logger.Info().Msgf("discarding %s order with %d units", side.String(), order.Units)
		return Result{Side: shared.Stay}
	}

	e.cfg.Logger.Info().Msgf("calculated units %d and side %s", order.Units, side.String())

	return Result{Side: side, Order: &order}
}
