package database

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dnldd/mac/shared"
	"github.com/google/uuid"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// SQL statements.
	createStrategyTableSQL = "CREATE TABLE IF NOT EXISTS strategy (id TEXT PRIMARY KEY, name TEXT, instrument TEXT, basecurrency TEXT, baseinitialunits TEXT, basetradeableunits TEXT, quotecurrency TEXT, quoteinitialunits TEXT, quotetradeableunits TEXT, profit TEXT, datawindow INTEGER, interval TEXT, indicators TEXT, updatedon INTEGER)"
	createSessionTableSQL  = "CREATE TABLE IF NOT EXISTS session (id TEXT PRIMARY KEY, strategyid TEXT, startedon INTEGER, endedon INTEGER, numticks INTEGER, numorders INTEGER, shutdowncause TEXT)"
	findStrategySQL        = "SELECT * FROM strategy WHERE id = ?"
	insertStrategySQL      = "INSERT INTO strategy(id, name, instrument, basecurrency, baseinitialunits, basetradeableunits, quotecurrency, quoteinitialunits, quotetradeableunits, profit, datawindow, interval, indicators, updatedon) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)"
	updateStrategySQL      = "UPDATE strategy SET name = ?, instrument = ?, basecurrency = ?, baseinitialunits = ?, basetradeableunits = ?, quotecurrency = ?, quoteinitialunits = ?, quotetradeableunits = ?, profit = ?, datawindow = ?, interval = ?, indicators = ?, updatedon = ? WHERE id = ?"
	appendSessionSQL       = "INSERT INTO session(id, strategyid, startedon, endedon, numticks, numorders, shutdowncause) VALUES(?,?,?,?,?,?,?)"
)

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the StrategyStore interface.
var _ shared.StrategyStore = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	_, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createStrategyTableSQL},
		{SQL: createSessionTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// stringifyIndicators stringifies the collection of indicator names provided.
func stringifyIndicators(indicators []string) string {
	buf := bytes.NewBuffer([]byte{})
	for idx := range indicators {
		buf.WriteString(indicators[idx])
		if idx < len(indicators)-1 {
			buf.WriteString(",")
		}
	}

	return buf.String()
}

// rowString fetches the provided row column as a string.
func rowString(row map[string]any, column string) string {
	value, _ := row[column].(string)
	return value
}

// rowUint64 fetches the provided row column as an unsigned integer.
func rowUint64(row map[string]any, column string) uint64 {
	switch value := row[column].(type) {
	case float64:
		return uint64(value)
	case int64:
		return uint64(value)
	default:
		return 0
	}
}

// rowDecimal fetches the provided row column as a decimal.
func rowDecimal(row map[string]any, column string) (decimal.Decimal, error) {
	value := rowString(row, column)
	if value == "" {
		return decimal.Zero, nil
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s column: %w", column, err)
	}

	return dec, nil
}

// LoadStrategy fetches the persisted strategy snapshot with the provided id.
func (db *Database) LoadStrategy(ctx context.Context, id string) (*shared.StrategySnapshot, error) {
	resp, err := db.client.QuerySingle(ctx, findStrategySQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding strategy %s: %w", id, err)
	}

	results := resp.GetQueryResultsAssoc()
	if len(results) == 0 || len(results[0].Rows) == 0 {
		return nil, fmt.Errorf("no strategy found with id %s", id)
	}

	row := results[0].Rows[0]

	baseInitialUnits, err := rowDecimal(row, "baseinitialunits")
	if err != nil {
		return nil, err
	}
	baseTradeableUnits, err := rowDecimal(row, "basetradeableunits")
	if err != nil {
		return nil, err
	}
	quoteInitialUnits, err := rowDecimal(row, "quoteinitialunits")
	if err != nil {
		return nil, err
	}
	quoteTradeableUnits, err := rowDecimal(row, "quotetradeableunits")
	if err != nil {
		return nil, err
	}
	profit, err := rowDecimal(row, "profit")
	if err != nil {
		return nil, err
	}

	interval, ok := shared.ParseInterval(rowString(row, "interval"))
	if !ok {
		return nil, fmt.Errorf("unknown interval for strategy %s: %s", id, rowString(row, "interval"))
	}

	snapshot := &shared.StrategySnapshot{
		ID:         id,
		Name:       rowString(row, "name"),
		Instrument: rowString(row, "instrument"),
		BasePair: shared.PairSummary{
			Currency:       rowString(row, "basecurrency"),
			InitialUnits:   baseInitialUnits,
			TradeableUnits: baseTradeableUnits,
		},
		QuotePair: shared.PairSummary{
			Currency:       rowString(row, "quotecurrency"),
			InitialUnits:   quoteInitialUnits,
			TradeableUnits: quoteTradeableUnits,
		},
		Profit:     profit,
		DataWindow: uint32(rowUint64(row, "datawindow")),
		Interval:   interval,
		Indicators: parseIndicators(rowString(row, "indicators")),
	}

	return snapshot, nil
}

// parseIndicators splits a persisted indicator name list.
func parseIndicators(value string) []string {
	if value == "" {
		return nil
	}

	return strings.Split(value, ",")
}

// UpsertStrategy replaces the persisted strategy snapshot and appends the
// provided session record to its history.
func (db *Database) UpsertStrategy(ctx context.Context, snapshot *shared.StrategySnapshot, session *shared.SessionInfo) error {
	resp, err := db.client.QuerySingle(ctx, findStrategySQL, snapshot.ID)
	if err != nil {
		return fmt.Errorf("finding strategy %s: %w", snapshot.ID, err)
	}

	now := shared.UTCTime()
	interval := snapshot.Interval

	results := resp.GetQueryResultsAssoc()
	exists := len(results) > 0 && len(results[0].Rows) > 0
	switch {
	case exists:
		resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL: updateStrategySQL,
				PositionalParams: []any{snapshot.Name, snapshot.Instrument,
					snapshot.BasePair.Currency, snapshot.BasePair.InitialUnits.String(),
					snapshot.BasePair.TradeableUnits.String(), snapshot.QuotePair.Currency,
					snapshot.QuotePair.InitialUnits.String(), snapshot.QuotePair.TradeableUnits.String(),
					snapshot.Profit.String(), snapshot.DataWindow, interval.String(),
					stringifyIndicators(snapshot.Indicators), now.Unix(), snapshot.ID},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("updating strategy %s: %d -> %s", snapshot.ID, idx, errStr)
		}
	default:
		resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL: insertStrategySQL,
				PositionalParams: []any{snapshot.ID, snapshot.Name, snapshot.Instrument,
					snapshot.BasePair.Currency, snapshot.BasePair.InitialUnits.String(),
					snapshot.BasePair.TradeableUnits.String(), snapshot.QuotePair.Currency,
					snapshot.QuotePair.InitialUnits.String(), snapshot.QuotePair.TradeableUnits.String(),
					snapshot.Profit.String(), snapshot.DataWindow, interval.String(),
					stringifyIndicators(snapshot.Indicators), now.Unix()},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("inserting strategy %s: %d -> %s", snapshot.ID, idx, errStr)
		}
	}

	// Session history is append only, records are never replaced.
	sessionResp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: appendSessionSQL,
			PositionalParams: []any{uuid.New().String(), snapshot.ID, session.StartedAt,
				session.EndedAt, session.NumTicks, session.NumOrders, session.ShutdownCause},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}
	has, idx, errStr := sessionResp.HasError()
	if has {
		return fmt.Errorf("appending session for strategy %s: %d -> %s", snapshot.ID, idx, errStr)
	}

	return nil
}
