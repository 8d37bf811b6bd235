package market

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Series represents normalized market data for a decision cycle: chronological
// close prices (oldest first) plus the current ask price.
type Series struct {
	Instrument  string
	Closes      []float64
	AskingPrice float64
}

// NewSeries normalizes the provided raw candle and quote data into a price
// series for the provided instrument.
func NewSeries(instrument string, candles []gjson.Result, quote gjson.Result) (*Series, error) {
	closes, err := ParseCloses(candles)
	if err != nil {
		return nil, fmt.Errorf("parsing close prices for %s: %w", instrument, err)
	}

	askingPrice, err := ParseAskingPrice(quote)
	if err != nil {
		return nil, fmt.Errorf("parsing ask price for %s: %w", instrument, err)
	}

	return &Series{
		Instrument:  instrument,
		Closes:      closes,
		AskingPrice: askingPrice,
	}, nil
}
