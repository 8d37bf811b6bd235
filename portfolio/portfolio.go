package portfolio

import (
	"github.com/dnldd/mac/shared"
	"github.com/shopspring/decimal"
)

// Pair represents a currency balance backing one side of an instrument.
type Pair struct {
	// Currency is the currency of the pair.
	Currency string
	// InitialUnits is the funding baseline of the pair.
	InitialUnits decimal.Decimal
	// TradeableUnits is the portion of the balance available for new orders.
	TradeableUnits decimal.Decimal
}

// NewPair initializes a fully tradeable pair balance.
func NewPair(currency string, initialUnits decimal.Decimal) Pair {
	return Pair{
		Currency:       currency,
		InitialUnits:   initialUnits,
		TradeableUnits: initialUnits,
	}
}

// Summary returns the persistable state of the pair.
func (p *Pair) Summary() shared.PairSummary {
	return shared.PairSummary{
		Currency:       p.Currency,
		InitialUnits:   p.InitialUnits,
		TradeableUnits: p.TradeableUnits,
	}
}

// Portfolio holds the balances backing a single strategy instance.
type Portfolio struct {
	Instrument string
	BasePair   Pair
	QuotePair  Pair
	Profit     decimal.Decimal
}

// New initializes a new portfolio for the provided instrument.
func New(instrument string, basePair Pair, quotePair Pair) *Portfolio {
	return &Portfolio{
		Instrument: instrument,
		BasePair:   basePair,
		QuotePair:  quotePair,
	}
}

// FromSnapshot restores a portfolio from the provided persisted strategy state.
func FromSnapshot(snapshot *shared.StrategySnapshot) *Portfolio {
	return &Portfolio{
		Instrument: snapshot.Instrument,
		BasePair: Pair{
			Currency:       snapshot.BasePair.Currency,
			InitialUnits:   snapshot.BasePair.InitialUnits,
			TradeableUnits: snapshot.BasePair.TradeableUnits,
		},
		QuotePair: Pair{
			Currency:       snapshot.QuotePair.Currency,
			InitialUnits:   snapshot.QuotePair.InitialUnits,
			TradeableUnits: snapshot.QuotePair.TradeableUnits,
		},
		Profit: snapshot.Profit,
	}
}

// RecordProfit adds the provided realized amount to the running profit figure.
func (p *Portfolio) RecordProfit(amount decimal.Decimal) {
	p.Profit = p.Profit.Add(amount)
}
