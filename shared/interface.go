package shared

import (
	"context"

	"github.com/tidwall/gjson"
)

// MarketFetcher defines the requirements for fetching market data.
type MarketFetcher interface {
	// FetchCandles fetches the most recent historical candles for the provided
	// instrument, oldest first.
	FetchCandles(ctx context.Context, instrument string, interval Interval, window uint32) ([]gjson.Result, error)
	// FetchQuote fetches the current quote for the provided instrument.
	FetchQuote(ctx context.Context, instrument string) (gjson.Result, error)
}

// StrategyStore defines the requirements for persisting strategy state and
// session history.
type StrategyStore interface {
	// LoadStrategy fetches the persisted strategy snapshot with the provided id.
	LoadStrategy(ctx context.Context, id string) (*StrategySnapshot, error)
	// UpsertStrategy replaces the persisted strategy snapshot and appends the
	// provided session record to its history.
	UpsertStrategy(ctx context.Context, snapshot *StrategySnapshot, session *SessionInfo) error
}
