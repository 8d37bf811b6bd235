package market

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ParseCloses extracts close prices from the provided candle json data,
// preserving the order of the candles.
func ParseCloses(data []gjson.Result) ([]float64, error) {
	closes := make([]float64, 0, len(data))

	for idx := range data {
		field := data[idx].Get("close")
		if !field.Exists() {
			return nil, fmt.Errorf("candle %d has no close price", idx)
		}

		closes = append(closes, field.Float())
	}

	return closes, nil
}

// ParseAskingPrice extracts the current ask price from the provided quote
// json data.
func ParseAskingPrice(quote gjson.Result) (float64, error) {
	field := quote.Get("ask")
	if !field.Exists() {
		return 0, fmt.Errorf("quote has no ask price")
	}

	return field.Float(), nil
}
