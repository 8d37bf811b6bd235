package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dnldd/mac/engine"
	"github.com/dnldd/mac/indicator"
	"github.com/dnldd/mac/market"
	"github.com/dnldd/mac/order"
	"github.com/dnldd/mac/portfolio"
	"github.com/dnldd/mac/position"
	"github.com/dnldd/mac/shared"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/shopspring/decimal"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// StrategyName is the display name of the crossover strategy.
	StrategyName = "Moving Average Crossover"
	// persistTimeout is the maximum time allowed for persisting the session
	// summary at shutdown.
	persistTimeout = time.Second * 10
)

// SessionConfig represents the configuration struct for the trading session.
type SessionConfig struct {
	// StrategyID is the identity of the strategy. When empty a new identity
	// is generated, otherwise prior strategy state is loaded from the store.
	StrategyID string
	// Instrument is the traded instrument.
	Instrument string
	// DataWindow is the number of historical candles fetched per cycle.
	DataWindow uint32
	// Interval is the market data sampling interval.
	Interval shared.Interval
	// Threshold is the crossover threshold.
	Threshold float64
	// BaseCurrency is the funding currency of the portfolio.
	BaseCurrency string
	// BaseUnits is the funding balance of the portfolio.
	BaseUnits decimal.Decimal
	// QuoteCurrency is the position currency of the portfolio.
	QuoteCurrency string
	// QuoteUnits is the starting position balance of the portfolio.
	QuoteUnits decimal.Decimal
	// Fetcher represents the market data fetcher.
	Fetcher shared.MarketFetcher
	// Store represents the strategy store.
	Store shared.StrategyStore
	// SubmitOrder hands the provided order to the execution collaborator.
	SubmitOrder func(order *shared.MarketOrder) error
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *SessionConfig) Validate() error {
	var errs error

	if cfg.Instrument == "" {
		errs = errors.Join(errs, fmt.Errorf("instrument cannot be an empty string"))
	}
	if cfg.DataWindow < indicator.LongWindow {
		errs = errors.Join(errs, fmt.Errorf("data window cannot be smaller than the long term window (%d)",
			indicator.LongWindow))
	}
	if cfg.Threshold <= 0 {
		errs = errors.Join(errs, fmt.Errorf("crossover threshold must be positive"))
	}
	if cfg.Fetcher == nil {
		errs = errors.Join(errs, fmt.Errorf("market fetcher cannot be nil"))
	}
	if cfg.Store == nil {
		errs = errors.Join(errs, fmt.Errorf("strategy store cannot be nil"))
	}
	if cfg.SubmitOrder == nil {
		errs = errors.Join(errs, fmt.Errorf("order submission function cannot be nil"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}

	return errs
}

// Session drives decision cycles for a single strategy instance. Cycles run
// sequentially, one decision cycle completes before the next begins.
type Session struct {
	cfg        *SessionConfig
	strategyID string
	dataWindow uint32
	interval   shared.Interval
	portfolio  *portfolio.Portfolio
	allocator  *portfolio.Allocator
	factory    *order.Factory
	engine     *engine.Engine
	generator  *indicator.SnapshotGenerator
	state      position.State
	startedAt  time.Time
	numTicks   uint64
	numOrders  uint64
	ticks      chan time.Time
	scheduler  *gocron.Scheduler
	logger     *zerolog.Logger
}

// NewSession initializes a new trading session.
func NewSession(ctx context.Context, cfg *SessionConfig) (*Session, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	logger := cfg.Logger.With().Str("service", "session").Logger()

	// Resolve the strategy identity: load prior state when an id is provided,
	// otherwise generate a fresh identity.
	var pf *portfolio.Portfolio
	strategyID := cfg.StrategyID
	dataWindow := cfg.DataWindow
	interval := cfg.Interval

	switch {
	case strategyID != "":
		snapshot, err := cfg.Store.LoadStrategy(ctx, strategyID)
		if err != nil {
			return nil, fmt.Errorf("loading strategy %s: %w", strategyID, err)
		}

		pf = portfolio.FromSnapshot(snapshot)
		dataWindow = snapshot.DataWindow
		interval = snapshot.Interval
	default:
		strategyID = uuid.New().String()
		pf = portfolio.New(cfg.Instrument, portfolio.NewPair(cfg.BaseCurrency, cfg.BaseUnits),
			portfolio.NewPair(cfg.QuoteCurrency, cfg.QuoteUnits))
	}

	allocator := portfolio.NewAllocator(pf)

	factoryLogger := logger.With().Str("component", "orderfactory").Logger()
	factory := order.NewFactory(&order.FactoryConfig{
		Instrument:  pf.Instrument,
		UnitsToBuy:  allocator.UnitsToBuy,
		UnitsToSell: allocator.UnitsToSell,
		Logger:      &factoryLogger,
	})

	engineLogger := logger.With().Str("component", "engine").Logger()
	crossoverEngine := engine.NewEngine(&engine.EngineConfig{
		Threshold:  cfg.Threshold,
		BuildOrder: factory.BuildOrder,
		Logger:     &engineLogger,
	})

	session := &Session{
		cfg:        cfg,
		strategyID: strategyID,
		dataWindow: dataWindow,
		interval:   interval,
		portfolio:  pf,
		allocator:  allocator,
		factory:    factory,
		engine:     crossoverEngine,
		generator:  indicator.NewSnapshotGenerator(pf.Instrument),
		state:      position.Flat,
		startedAt:  shared.UTCTime(),
		ticks:      make(chan time.Time, bufferSize),
		scheduler:  gocron.NewScheduler(time.UTC),
		logger:     &logger,
	}

	return session, nil
}

// StrategyID returns the resolved identity of the session's strategy.
func (s *Session) StrategyID() string {
	return s.strategyID
}

// Portfolio returns the portfolio backing the session. The execution
// collaborator settles fills and realized profit against it between cycles.
func (s *Session) Portfolio() *portfolio.Portfolio {
	return s.portfolio
}

// runCycle executes a single decision cycle: fetch market data, normalize it,
// compute the moving average snapshot, decide and relay any sized order.
func (s *Session) runCycle(ctx context.Context, now time.Time) error {
	s.numTicks++

	candles, err := s.cfg.Fetcher.FetchCandles(ctx, s.portfolio.Instrument, s.interval, s.dataWindow)
	if err != nil {
		return fmt.Errorf("fetching candles: %w", err)
	}

	quote, err := s.cfg.Fetcher.FetchQuote(ctx, s.portfolio.Instrument)
	if err != nil {
		return fmt.Errorf("fetching quote: %w", err)
	}

	series, err := market.NewSeries(s.portfolio.Instrument, candles, quote)
	if err != nil {
		return fmt.Errorf("normalizing market data: %w", err)
	}

	snapshot := s.generator.Update(series.Closes, series.AskingPrice, now)
	s.logger.Info().Msgf("%s snapshot: short term %f, long term %f, ask %f",
		s.portfolio.Instrument, snapshot.ShortTerm, snapshot.LongTerm, snapshot.AskingPrice)

	result := s.engine.Decide(snapshot, s.state)
	if result.Order == nil {
		return nil
	}

	err = s.cfg.SubmitOrder(result.Order)
	if err != nil {
		return fmt.Errorf("submitting %s order: %w", result.Side.String(), err)
	}

	s.numOrders++

	// The position state flips once an order is placed, before the next cycle.
	s.state = s.state.Transition(result.Side)

	return nil
}

// Summary assembles the persistable state of the session's strategy.
func (s *Session) Summary() *shared.StrategySnapshot {
	return &shared.StrategySnapshot{
		ID:         s.strategyID,
		Name:       StrategyName,
		Instrument: s.portfolio.Instrument,
		BasePair:   s.portfolio.BasePair.Summary(),
		QuotePair:  s.portfolio.QuotePair.Summary(),
		Profit:     s.portfolio.Profit,
		DataWindow: s.dataWindow,
		Interval:   s.interval,
		Indicators: s.generator.TrackedIndicators(),
	}
}

// shutdown reallocates capital and persists the session summary.
func (s *Session) shutdown(cause string) {
	endedAt := shared.UTCTime()

	// Profitable sessions replenish the tradeable base balance at the
	// session boundary.
	s.allocator.ReallocateOnProfit()

	info := &shared.SessionInfo{
		StartedAt:     uint64(s.startedAt.Unix()),
		EndedAt:       uint64(endedAt.Unix()),
		NumTicks:      s.numTicks,
		NumOrders:     s.numOrders,
		ShutdownCause: cause,
	}

	// The run context is already done at shutdown, persist on a fresh one.
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	err := s.cfg.Store.UpsertStrategy(ctx, s.Summary(), info)
	if err != nil {
		s.logger.Error().Msgf("persisting session summary: %v", err)
		return
	}

	s.logger.Info().Msgf("session for strategy %s ended (%s): %d ticks, %d orders",
		s.strategyID, cause, s.numTicks, s.numOrders)
}

// Run manages the lifecycle processes of the trading session.
func (s *Session) Run(ctx context.Context) {
	_, err := s.scheduler.Every(s.interval.Duration()).Do(func() {
		select {
		case s.ticks <- shared.UTCTime():
			// do nothing.
		default:
			s.logger.Error().Msgf("tick channel at capacity: %d/%d", len(s.ticks), bufferSize)
		}
	})
	if err != nil {
		s.logger.Error().Msgf("scheduling decision cycles: %v", err)
		s.cfg.Cancel()
		return
	}

	s.scheduler.StartAsync()
	defer s.scheduler.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown(shared.CauseInterrupted)
			return
		case now := <-s.ticks:
			err := s.runCycle(ctx, now)
			if err != nil {
				s.logger.Error().Msgf("running decision cycle: %v", err)
			}
		}
	}
}
