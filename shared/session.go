package shared

import "github.com/shopspring/decimal"

// Shutdown causes for a trading session.
const (
	CauseCompleted   = "completed"
	CauseInterrupted = "interrupted"
	CauseFault       = "fault"
)

// SessionInfo captures the accounting of a single trading session.
type SessionInfo struct {
	StartedAt     uint64
	EndedAt       uint64
	NumTicks      uint64
	NumOrders     uint64
	ShutdownCause string
}

// PairSummary represents the persisted balance state of a currency pair.
type PairSummary struct {
	Currency       string
	InitialUnits   decimal.Decimal
	TradeableUnits decimal.Decimal
}

// StrategySnapshot represents the persisted state of a strategy, replaced in
// place on every session boundary.
type StrategySnapshot struct {
	ID         string
	Name       string
	Instrument string
	BasePair   PairSummary
	QuotePair  PairSummary
	Profit     decimal.Decimal
	DataWindow uint32
	Interval   Interval
	Indicators []string
}
