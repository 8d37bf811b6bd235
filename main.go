package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/dnldd/mac/database"
	"github.com/dnldd/mac/fetch"
	"github.com/dnldd/mac/service"
	"github.com/dnldd/mac/shared"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := log.Logger

	dbLogger := logger.With().Str("component", "database").Logger()
	dbCfg := database.DatabaseConfig{
		Endpoint: cfg.DBEndpoint,
		User:     cfg.DBUser,
		Pass:     cfg.DBPass,
		Logger:   &dbLogger,
	}
	db, err := database.NewDatabase(ctx, &dbCfg)
	if err != nil {
		log.Printf("creating database: %v", err)
		return
	}

	fmp := fetch.NewFMPClient(&fetch.FMPConfig{
		APIKey:  cfg.FMPAPIKey,
		BaseURL: fetch.BaseURL,
	})

	// Orders are relayed to the execution collaborator by logging them,
	// fills and realized profit are settled out of process.
	submitOrder := func(order *shared.MarketOrder) error {
		logger.Info().Str("instrument", order.Instrument).
			Str("side", order.Side.String()).
			Int64("units", order.Units).
			Float64("price", order.Price).
			Str("expiry", order.Expiry).
			Msg("relaying order for execution")
		return nil
	}

	interval, _ := shared.ParseInterval(cfg.Interval)
	baseUnits, quoteUnits := decimal.Zero, decimal.Zero
	if cfg.StrategyID == "" {
		baseUnits, err = decimal.NewFromString(cfg.BaseUnits)
		if err != nil {
			log.Printf("parsing base units: %v", err)
			return
		}
		quoteUnits, err = decimal.NewFromString(cfg.QuoteUnits)
		if err != nil {
			log.Printf("parsing quote units: %v", err)
			return
		}
	}

	sessionCfg := service.SessionConfig{
		StrategyID:    cfg.StrategyID,
		Instrument:    cfg.Instrument,
		DataWindow:    uint32(cfg.DataWindow),
		Interval:      interval,
		Threshold:     cfg.Threshold,
		BaseCurrency:  cfg.BaseCurrency,
		BaseUnits:     baseUnits,
		QuoteCurrency: cfg.QuoteCurrency,
		QuoteUnits:    quoteUnits,
		Fetcher:       fmp,
		Store:         db,
		SubmitOrder:   submitOrder,
		Cancel:        cancel,
		Logger:        &logger,
	}
	session, err := service.NewSession(ctx, &sessionCfg)
	if err != nil {
		log.Printf("creating trading session: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	session.Run(ctx)
}
