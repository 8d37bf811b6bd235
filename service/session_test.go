package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dnldd/mac/indicator"
	"github.com/dnldd/mac/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// fakeFetcher serves canned candle and quote data.
type fakeFetcher struct {
	candles string
	quote   string
}

func (f *fakeFetcher) FetchCandles(ctx context.Context, instrument string, interval shared.Interval, window uint32) ([]gjson.Result, error) {
	return gjson.Parse(f.candles).Array(), nil
}

func (f *fakeFetcher) FetchQuote(ctx context.Context, instrument string) (gjson.Result, error) {
	return gjson.Parse(f.quote), nil
}

// fakeStore collects persisted summaries.
type fakeStore struct {
	snapshot  *shared.StrategySnapshot
	upserts   chan *shared.StrategySnapshot
	sessions  chan *shared.SessionInfo
	loadErr   error
	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		upserts:  make(chan *shared.StrategySnapshot, 4),
		sessions: make(chan *shared.SessionInfo, 4),
	}
}

func (f *fakeStore) LoadStrategy(ctx context.Context, id string) (*shared.StrategySnapshot, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}

	return f.snapshot, nil
}

func (f *fakeStore) UpsertStrategy(ctx context.Context, snapshot *shared.StrategySnapshot, session *shared.SessionInfo) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}

	f.upserts <- snapshot
	f.sessions <- session

	return nil
}

// risingCandles serves a close price series trending upwards, producing a
// short term average above the long term one.
func risingCandles(n int) string {
	closes := make([]string, 0, n)
	for idx := range n {
		closes = append(closes, fmt.Sprintf(`{"close":%d}`, idx+1))
	}

	return "[" + strings.Join(closes, ",") + "]"
}

// fallingCandles serves a close price series trending downwards.
func fallingCandles(n int) string {
	closes := make([]string, 0, n)
	for idx := range n {
		closes = append(closes, fmt.Sprintf(`{"close":%d}`, n-idx))
	}

	return "[" + strings.Join(closes, ",") + "]"
}

func setupSession(t *testing.T, fetcher *fakeFetcher, store *fakeStore, orders chan *shared.MarketOrder) *Session {
	t.Helper()

	_, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &SessionConfig{
		Instrument:    "EUR_USD",
		DataWindow:    indicator.LongWindow,
		Interval:      shared.FiveMinute,
		Threshold:     0.001,
		BaseCurrency:  "USD",
		BaseUnits:     decimal.NewFromInt(1000),
		QuoteCurrency: "EUR",
		QuoteUnits:    decimal.Zero,
		Fetcher:       fetcher,
		Store:         store,
		SubmitOrder: func(order *shared.MarketOrder) error {
			orders <- order
			return nil
		},
		Cancel: cancel,
		Logger: &log.Logger,
	}

	session, err := NewSession(context.Background(), cfg)
	assert.NoError(t, err)

	return session
}

func TestSessionConfigValidate(t *testing.T) {
	// Ensure an empty config aggregates all validation errors.
	cfg := &SessionConfig{}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "instrument cannot be an empty string"))
	assert.True(t, strings.Contains(err.Error(), "data window cannot be smaller"))
	assert.True(t, strings.Contains(err.Error(), "crossover threshold must be positive"))
	assert.True(t, strings.Contains(err.Error(), "market fetcher cannot be nil"))
	assert.True(t, strings.Contains(err.Error(), "strategy store cannot be nil"))
	assert.True(t, strings.Contains(err.Error(), "order submission function cannot be nil"))
	assert.True(t, strings.Contains(err.Error(), "context cancellation function cannot be nil"))
}

func TestNewSessionGeneratesIdentity(t *testing.T) {
	fetcher := &fakeFetcher{candles: risingCandles(20), quote: `{"ask":25}`}
	store := newFakeStore()
	orders := make(chan *shared.MarketOrder, 4)

	// Ensure a session without a configured strategy id generates one.
	session := setupSession(t, fetcher, store, orders)
	assert.NotEqual(t, session.StrategyID(), "")
}

func TestNewSessionLoadsPriorState(t *testing.T) {
	fetcher := &fakeFetcher{candles: risingCandles(20), quote: `{"ask":25}`}
	store := newFakeStore()
	store.snapshot = &shared.StrategySnapshot{
		ID:         "b8cc6042-f380-4362-b80f-c3a771370fd0",
		Name:       StrategyName,
		Instrument: "GBP_USD",
		BasePair: shared.PairSummary{
			Currency:       "USD",
			InitialUnits:   decimal.NewFromInt(2000),
			TradeableUnits: decimal.NewFromInt(500),
		},
		QuotePair: shared.PairSummary{
			Currency:       "GBP",
			InitialUnits:   decimal.Zero,
			TradeableUnits: decimal.NewFromInt(120),
		},
		Profit:     decimal.NewFromInt(40),
		DataWindow: 30,
		Interval:   shared.OneHour,
	}

	orders := make(chan *shared.MarketOrder, 4)

	_, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &SessionConfig{
		StrategyID:  store.snapshot.ID,
		Instrument:  "EUR_USD",
		DataWindow:  indicator.LongWindow,
		Interval:    shared.FiveMinute,
		Threshold:   0.001,
		Fetcher:     fetcher,
		Store:       store,
		SubmitOrder: func(order *shared.MarketOrder) error { orders <- order; return nil },
		Cancel:      cancel,
		Logger:      &log.Logger,
	}

	// Ensure prior strategy state overrides the configured defaults.
	session, err := NewSession(context.Background(), cfg)
	assert.NoError(t, err)
	assert.Equal(t, session.StrategyID(), store.snapshot.ID)
	assert.Equal(t, session.Portfolio().Instrument, "GBP_USD")
	assert.Equal(t, session.dataWindow, uint32(30))
	assert.Equal(t, session.interval, shared.OneHour)
	assert.True(t, session.Portfolio().Profit.Equal(decimal.NewFromInt(40)))

	// Ensure a failing load surfaces as an error.
	store.loadErr = fmt.Errorf("no strategy found")
	_, err = NewSession(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRunCycle(t *testing.T) {
	fetcher := &fakeFetcher{candles: risingCandles(20), quote: `{"ask":25}`}
	store := newFakeStore()
	orders := make(chan *shared.MarketOrder, 4)
	session := setupSession(t, fetcher, store, orders)

	now := time.Date(2025, 2, 4, 15, 5, 0, 0, time.UTC)

	// Ensure an upward crossing while flat submits a buy order.
	err := session.runCycle(context.Background(), now)
	assert.NoError(t, err)

	order := <-orders
	assert.Equal(t, order.Side, shared.Buy)
	assert.Equal(t, order.Units, int64(40))
	assert.Equal(t, order.Price, float64(25))

	// Ensure the position state flipped and the same signal does not pyramid.
	err = session.runCycle(context.Background(), now)
	assert.NoError(t, err)
	assert.Equal(t, len(orders), 0)

	// Ensure a downward crossing while invested submits a sell order for the
	// entire tradeable quote balance.
	session.Portfolio().QuotePair.TradeableUnits = decimal.NewFromInt(40)
	fetcher.candles = fallingCandles(20)

	err = session.runCycle(context.Background(), now)
	assert.NoError(t, err)

	order = <-orders
	assert.Equal(t, order.Side, shared.Sell)
	assert.Equal(t, order.Units, int64(40))

	// Ensure the session is flat again and a repeat sell is ignored.
	err = session.runCycle(context.Background(), now)
	assert.NoError(t, err)
	assert.Equal(t, len(orders), 0)

	assert.Equal(t, session.numTicks, uint64(4))
	assert.Equal(t, session.numOrders, uint64(2))
}

func TestRunCycleRecoverableFaults(t *testing.T) {
	// A series shorter than the long window yields sentinel averages.
	fetcher := &fakeFetcher{candles: risingCandles(5), quote: `{"ask":25}`}
	store := newFakeStore()
	orders := make(chan *shared.MarketOrder, 4)
	session := setupSession(t, fetcher, store, orders)

	now := time.Date(2025, 2, 4, 15, 5, 0, 0, time.UTC)

	// Ensure insufficient data holds without erroring or ordering.
	err := session.runCycle(context.Background(), now)
	assert.NoError(t, err)
	assert.Equal(t, len(orders), 0)

	// Ensure malformed market data errors without ordering.
	fetcher.candles = `[{"open":1}]`
	err = session.runCycle(context.Background(), now)
	assert.Error(t, err)
	assert.Equal(t, len(orders), 0)

	// Ensure a missing quote errors without ordering.
	fetcher.candles = risingCandles(20)
	fetcher.quote = `{}`
	err = session.runCycle(context.Background(), now)
	assert.Error(t, err)
	assert.Equal(t, len(orders), 0)
}

func TestSessionSummaryAndShutdown(t *testing.T) {
	fetcher := &fakeFetcher{candles: risingCandles(20), quote: `{"ask":25}`}
	store := newFakeStore()
	orders := make(chan *shared.MarketOrder, 4)
	session := setupSession(t, fetcher, store, orders)

	// Deplete the tradeable base balance and record a profitable session.
	session.Portfolio().BasePair.TradeableUnits = decimal.NewFromInt(10)
	session.Portfolio().RecordProfit(decimal.NewFromInt(25))

	session.shutdown(shared.CauseCompleted)

	// Ensure the persisted summary reflects the session's strategy state and
	// the profit triggered reallocation.
	snapshot := <-store.upserts
	assert.Equal(t, snapshot.ID, session.StrategyID())
	assert.Equal(t, snapshot.Name, StrategyName)
	assert.Equal(t, snapshot.Instrument, "EUR_USD")
	assert.True(t, snapshot.Profit.Equal(decimal.NewFromInt(25)))
	assert.True(t, snapshot.BasePair.TradeableUnits.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, snapshot.Indicators, []string{indicator.ShortTermName,
		indicator.LongTermName, indicator.AskingPriceName})

	info := <-store.sessions
	assert.Equal(t, info.ShutdownCause, shared.CauseCompleted)
	assert.LessThanOrEqual(t, info.StartedAt, info.EndedAt)
}

func TestSessionRun(t *testing.T) {
	fetcher := &fakeFetcher{candles: risingCandles(20), quote: `{"ask":25}`}
	store := newFakeStore()
	orders := make(chan *shared.MarketOrder, 4)
	session := setupSession(t, fetcher, store, orders)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		session.Run(ctx)
		close(done)
	}()

	// Drive a decision cycle directly through the tick channel.
	session.ticks <- shared.UTCTime()

	order := <-orders
	assert.Equal(t, order.Side, shared.Buy)

	// Ensure the session can be gracefully shutdown and persists its summary.
	cancel()
	<-done

	info := <-store.sessions
	assert.Equal(t, info.ShutdownCause, shared.CauseInterrupted)
	assert.Equal(t, info.NumOrders, uint64(1))
}
