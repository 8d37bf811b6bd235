package order

import (
	"github.com/dnldd/mac/shared"
	"github.com/rs/zerolog"
)

// FactoryConfig represents the order factory configuration.
type FactoryConfig struct {
	// Instrument is the instrument orders are assembled for.
	Instrument string
	// UnitsToBuy computes the number of units purchasable at the provided price.
	UnitsToBuy func(currentPrice float64) int64
	// UnitsToSell computes the number of units available to exit with.
	UnitsToSell func() int64
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Factory assembles concrete market order requests from trade decisions.
// Order transmission is left to the caller.
type Factory struct {
	cfg *FactoryConfig
}

// NewFactory initializes a new order factory.
func NewFactory(cfg *FactoryConfig) *Factory {
	return &Factory{
		cfg: cfg,
	}
}

// BuildOrder assembles a market order for the provided ask price and side.
// The returned order always has a non-negative unit count, callers discard
// orders sized to zero.
func (f *Factory) BuildOrder(askingPrice float64, side shared.Side) shared.MarketOrder {
	var units int64
	switch side {
	case shared.Buy:
		units = f.cfg.UnitsToBuy(askingPrice)
	default:
		units = f.cfg.UnitsToSell()
	}

	if units < 0 {
		f.cfg.Logger.Error().Msgf("clamping negative %s order size %d for %s",
			side.String(), units, f.cfg.Instrument)
		units = 0
	}

	return shared.NewMarketOrder(f.cfg.Instrument, units, side, askingPrice, shared.UTCTime())
}
