package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/dnldd/mac/engine"
	"github.com/dnldd/mac/indicator"
	"github.com/dnldd/mac/shared"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config is the configuration struct for the service.
type Config struct {
	// StrategyID is the identity of the strategy, generated when empty.
	StrategyID string
	// Instrument is the traded instrument.
	Instrument string
	// DataWindow is the number of historical candles fetched per decision cycle.
	DataWindow int
	// Interval is the market data sampling interval.
	Interval string
	// Threshold is the crossover threshold.
	Threshold float64
	// BaseCurrency is the funding currency of the portfolio.
	BaseCurrency string
	// BaseUnits is the funding balance of the portfolio.
	BaseUnits string
	// QuoteCurrency is the position currency of the portfolio.
	QuoteCurrency string
	// QuoteUnits is the starting position balance of the portfolio.
	QuoteUnits string
	// DBEndpoint is the database connection endpoint.
	DBEndpoint string
	// DBUser is the database user.
	DBUser string
	// DBPass is the database user pass.
	DBPass string
	// FMPAPIkey is the FMP service API Key.
	FMPAPIKey string

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.Instrument == "" {
		errs = errors.Join(errs, fmt.Errorf("instrument cannot be an empty string"))
	}
	if cfg.FMPAPIKey == "" {
		errs = errors.Join(errs, fmt.Errorf("fmp api key cannot be an empty string"))
	}
	if cfg.DBEndpoint == "" {
		errs = errors.Join(errs, fmt.Errorf("database endpoint cannot be an empty string"))
	}
	if cfg.DataWindow < indicator.LongWindow {
		errs = errors.Join(errs, fmt.Errorf("data window cannot be smaller than %d", indicator.LongWindow))
	}
	if cfg.Threshold <= 0 {
		errs = errors.Join(errs, fmt.Errorf("crossover threshold must be positive"))
	}

	_, ok := shared.ParseInterval(cfg.Interval)
	if !ok {
		errs = errors.Join(errs, fmt.Errorf("unknown interval: %s", cfg.Interval))
	}

	if cfg.StrategyID == "" {
		// Portfolio funding is only required when no prior strategy state
		// will be loaded.
		if cfg.BaseCurrency == "" {
			errs = errors.Join(errs, fmt.Errorf("base currency cannot be an empty string"))
		}
		if cfg.QuoteCurrency == "" {
			errs = errors.Join(errs, fmt.Errorf("quote currency cannot be an empty string"))
		}
		_, err := decimal.NewFromString(cfg.BaseUnits)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("parsing base units: %v", err))
		}
		_, err = decimal.NewFromString(cfg.QuoteUnits)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("parsing quote units: %v", err))
		}
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Float64:
		var def float64
		if defValue != "" {
			def, _ = strconv.ParseFloat(defValue, 64)
		}
		flag.Float64Var(value.(*float64), name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	err = cfg.registerFlag("strategyid", &cfg.StrategyID, "the strategy identity")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("instrument", &cfg.Instrument, "the traded instrument")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("datawindow", &cfg.DataWindow, "the number of candles fetched per cycle")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("interval", &cfg.Interval, "the market data sampling interval")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("threshold", &cfg.Threshold, "the crossover threshold")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("basecurrency", &cfg.BaseCurrency, "the portfolio funding currency")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("baseunits", &cfg.BaseUnits, "the portfolio funding balance")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("quotecurrency", &cfg.QuoteCurrency, "the portfolio position currency")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("quoteunits", &cfg.QuoteUnits, "the portfolio starting position balance")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbendpoint", &cfg.DBEndpoint, "the database connection endpoint")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbuser", &cfg.DBUser, "the database user")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbpass", &cfg.DBPass, "the database user pass")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("fmpapikey", &cfg.FMPAPIKey, "the FMP api key")
	if err != nil {
		return err
	}

	// Parse command-line flags.
	flag.Parse()

	// Apply defaults for unset tunables.
	if cfg.DataWindow == 0 {
		cfg.DataWindow = indicator.LongWindow
	}
	if cfg.Interval == "" {
		interval := shared.FiveMinute
		cfg.Interval = interval.String()
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = engine.DefaultThreshold
	}
	if cfg.QuoteUnits == "" {
		cfg.QuoteUnits = "0"
	}

	return cfg.Validate()
}
