package portfolio

import (
	"math"

	"github.com/shopspring/decimal"
)

// Allocator computes tradeable unit counts for orders from portfolio balances.
// The strategy trades fully in and fully out, there are no partial exits.
type Allocator struct {
	portfolio *Portfolio
}

// NewAllocator initializes a new capital allocator for the provided portfolio.
func NewAllocator(portfolio *Portfolio) *Allocator {
	return &Allocator{
		portfolio: portfolio,
	}
}

// UnitsToBuy returns the number of whole units purchasable with the tradeable
// base balance at the provided price. Fractional units are truncated.
func (a *Allocator) UnitsToBuy(currentPrice float64) int64 {
	if currentPrice <= 0 || math.IsNaN(currentPrice) || math.IsInf(currentPrice, 0) {
		return 0
	}

	price := decimal.NewFromFloat(currentPrice)
	units := a.portfolio.BasePair.TradeableUnits.Div(price).Floor()

	return units.IntPart()
}

// UnitsToSell returns the entire tradeable quote balance as whole units.
func (a *Allocator) UnitsToSell() int64 {
	return a.portfolio.QuotePair.TradeableUnits.Floor().IntPart()
}

// ReallocateOnProfit replenishes the tradeable base balance from its funding
// baseline when the session is profitable. Idempotent while profit stays
// positive, applied once per session boundary.
func (a *Allocator) ReallocateOnProfit() {
	if a.portfolio.Profit.GreaterThan(decimal.Zero) {
		a.portfolio.BasePair.TradeableUnits = a.portfolio.BasePair.InitialUnits
	}
}
