package shared

import "time"

const (
	// OrderExpiryLayout is the format layout for order expiry timestamps (utc).
	OrderExpiryLayout = "2006-01-02T15:04:05Z"
	// OrderLifetime is how long an order remains valid after creation.
	OrderLifetime = time.Hour * 24
)

// OrderType represents the execution type of an order.
type OrderType int

const (
	Market OrderType = iota
)

// String stringifies the provided order type.
func (o *OrderType) String() string {
	switch *o {
	case Market:
		return "market"
	default:
		return "unknown"
	}
}

// MarketOrder represents a concrete order request ready for transmission.
// It is immutable once constructed.
type MarketOrder struct {
	Instrument string
	Units      int64
	Side       Side
	Type       OrderType
	Price      float64
	Expiry     string
}

// NewMarketOrder initializes a new market order expiring a day after the
// provided creation time.
func NewMarketOrder(instrument string, units int64, side Side, price float64, created time.Time) MarketOrder {
	return MarketOrder{
		Instrument: instrument,
		Units:      units,
		Side:       side,
		Type:       Market,
		Price:      price,
		Expiry:     created.UTC().Add(OrderLifetime).Format(OrderExpiryLayout),
	}
}
