package goldencross

import (
	"fxbot/internal/engine"
	"fxbot/types"

	"github.com/shopspring/decimal"
)

const (
	Name = "GoldenCrossStrategy"

	fastPeriod = 50
	slowPeriod = 200
)

// Strategy buys one unit when the 50 SMA crosses above the 200 SMA and sells
// one unit on the opposite cross.
type Strategy struct {
	engine.Base
}

func New(symbol, exchange string, timeframe types.Timeframe, rc *engine.RunContext) engine.Strategy {
	return &Strategy{Base: engine.NewBase(symbol, exchange, timeframe, rc)}
}

func (s *Strategy) Name() string { return Name }

func (s *Strategy) ShouldLong() bool {
	prevFast, prevSlow, fast, slow, ok := s.averages()
	return ok && fast.GreaterThan(slow) && prevFast.LessThanOrEqual(prevSlow)
}

func (s *Strategy) ShouldShort() bool {
	prevFast, prevSlow, fast, slow, ok := s.averages()
	return ok && fast.LessThan(slow) && prevFast.GreaterThanOrEqual(prevSlow)
}

func (s *Strategy) GoLong() {
	s.Buy(types.NewIntent(decimal.NewFromInt(1), s.Price()))
}

func (s *Strategy) GoShort() {
	s.Sell(types.NewIntent(decimal.NewFromInt(1), s.Price()))
}

// averages returns the fast and slow SMA for the previous and current candle.
func (s *Strategy) averages() (prevFast, prevSlow, fast, slow decimal.Decimal, ok bool) {
	return crossAverages(s.Candles())
}

// crossAverages only reads the last slowPeriod+1 candles.
func crossAverages(candles []types.Candle) (prevFast, prevSlow, fast, slow decimal.Decimal, ok bool) {
	if len(candles) <= slowPeriod {
		return
	}
	tail := candles[len(candles)-slowPeriod-1:]
	closes := make([]decimal.Decimal, len(tail))
	for i, c := range tail {
		closes[i] = c.Close
	}
	prev := closes[:len(closes)-1]
	return sma(prev, fastPeriod), sma(prev, slowPeriod), sma(closes, fastPeriod), sma(closes, slowPeriod), true
}

// sma is the mean of the last period values.
func sma(values []decimal.Decimal, period int) decimal.Decimal {
	window := values[len(values)-period:]
	return decimal.Sum(window[0], window[1:]...).Div(decimal.NewFromInt(int64(period)))
}
