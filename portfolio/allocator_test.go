package portfolio

import (
	"math"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/shopspring/decimal"
)

func newTestPortfolio(baseUnits int64, quoteUnits int64) *Portfolio {
	basePair := NewPair("USD", decimal.NewFromInt(baseUnits))
	quotePair := NewPair("EUR", decimal.NewFromInt(quoteUnits))
	return New("EUR_USD", basePair, quotePair)
}

func TestUnitsToBuy(t *testing.T) {
	portfolio := newTestPortfolio(1000, 0)
	allocator := NewAllocator(portfolio)

	// Ensure fractional units are truncated toward zero.
	assert.Equal(t, allocator.UnitsToBuy(float64(3)), int64(333))
	assert.Equal(t, allocator.UnitsToBuy(float64(1000)), int64(1))
	assert.Equal(t, allocator.UnitsToBuy(float64(1001)), int64(0))

	// Ensure sizing never exceeds the tradeable base balance.
	assert.Equal(t, allocator.UnitsToBuy(float64(1)), int64(1000))

	// Ensure sizing is non-increasing as the price increases.
	prices := []float64{0.5, 1, 2.5, 10, 400, 2000}
	prev := int64(math.MaxInt64)
	for idx := range prices {
		units := allocator.UnitsToBuy(prices[idx])
		assert.LessThanOrEqual(t, units, prev)
		prev = units
	}

	// Ensure degenerate prices size to zero.
	assert.Equal(t, allocator.UnitsToBuy(float64(0)), int64(0))
	assert.Equal(t, allocator.UnitsToBuy(float64(-5)), int64(0))
	assert.Equal(t, allocator.UnitsToBuy(math.NaN()), int64(0))
	assert.Equal(t, allocator.UnitsToBuy(math.Inf(1)), int64(0))
}

func TestUnitsToSell(t *testing.T) {
	portfolio := newTestPortfolio(1000, 250)
	allocator := NewAllocator(portfolio)

	// Ensure selling exits the entire tradeable quote balance.
	assert.Equal(t, allocator.UnitsToSell(), int64(250))

	// Ensure fractional quote balances truncate to whole units.
	portfolio.QuotePair.TradeableUnits = decimal.NewFromFloat(250.75)
	assert.Equal(t, allocator.UnitsToSell(), int64(250))

	// Ensure an empty quote balance sells nothing.
	portfolio.QuotePair.TradeableUnits = decimal.Zero
	assert.Equal(t, allocator.UnitsToSell(), int64(0))
}

func TestReallocateOnProfit(t *testing.T) {
	portfolio := newTestPortfolio(1000, 0)
	allocator := NewAllocator(portfolio)

	// Deplete the tradeable base balance.
	portfolio.BasePair.TradeableUnits = decimal.NewFromInt(10)

	// Ensure no reallocation happens without profit.
	allocator.ReallocateOnProfit()
	assert.Equal(t, portfolio.BasePair.TradeableUnits.IntPart(), int64(10))

	// Ensure no reallocation happens at a loss.
	portfolio.RecordProfit(decimal.NewFromInt(-5))
	allocator.ReallocateOnProfit()
	assert.Equal(t, portfolio.BasePair.TradeableUnits.IntPart(), int64(10))

	// Ensure a profitable session replenishes the tradeable base balance.
	portfolio.RecordProfit(decimal.NewFromInt(25))
	allocator.ReallocateOnProfit()
	assert.Equal(t, portfolio.BasePair.TradeableUnits.IntPart(), int64(1000))

	// Ensure reallocation is idempotent while profit stays positive.
	allocator.ReallocateOnProfit()
	assert.Equal(t, portfolio.BasePair.TradeableUnits.IntPart(), int64(1000))
}
