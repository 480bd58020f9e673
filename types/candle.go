package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bucket. Timestamp is the bucket open time in unix milliseconds.
type Candle struct {
	Timestamp int64           `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// Includes reports whether price lies within [Low, High].
func (c Candle) Includes(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(c.Low) && price.LessThanOrEqual(c.High)
}

// IsBearish is true when the candle closed below its open.
func (c Candle) IsBearish() bool {
	return c.Close.LessThan(c.Open)
}
