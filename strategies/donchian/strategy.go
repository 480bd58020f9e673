package donchian

import (
	"fxbot/internal/engine"
	"fxbot/types"

	"github.com/shopspring/decimal"
)

const (
	Name = "DonchianStrategy"

	channelPeriod = 20
	atrPeriod     = 20
)

var (
	positionPercent = decimal.RequireFromString("0.1")
	atrStopFactor   = decimal.NewFromInt(2)
)

// Strategy is a long-only channel breakout. It buys a close above the highest
// high of the preceding channel with an ATR stop below the entry and exits on
// a close below the channel's lowest low.
type Strategy struct {
	engine.Base
}

func New(symbol, exchange string, timeframe types.Timeframe, rc *engine.RunContext) engine.Strategy {
	return &Strategy{Base: engine.NewBase(symbol, exchange, timeframe, rc)}
}

func (s *Strategy) Name() string { return Name }

func (s *Strategy) ShouldLong() bool {
	if s.Position().IsOpen() {
		return false
	}
	highest, _, ok := s.channel()
	return ok && s.Price().GreaterThan(highest)
}

func (s *Strategy) ShouldShort() bool {
	if !s.Position().IsLong() {
		return false
	}
	_, lowest, ok := s.channel()
	return ok && s.Price().LessThan(lowest)
}

func (s *Strategy) GoLong() {
	price := s.Price()
	qty := getQuantityForPrice(price, s.Balance().Mul(positionPercent))
	if qty.IsZero() {
		return
	}
	s.Buy(types.NewIntent(qty, price))

	if atr := calcATR(s.Candles(), atrPeriod); atr.IsPositive() {
		stop := price.Sub(atr.Mul(atrStopFactor))
		if stop.IsPositive() {
			s.StopLoss(types.NewIntent(decimal.Zero, stop))
		}
	}
}

// GoShort only closes the long; the strategy never opens a short.
func (s *Strategy) GoShort() {
	s.Sell(types.NewIntent(s.Position().Qty, s.Price()))
}

// channel is computed over the candles preceding the current one.
func (s *Strategy) channel() (decimal.Decimal, decimal.Decimal, bool) {
	candles := s.Candles()
	if len(candles) < channelPeriod+1 {
		return decimal.Zero, decimal.Zero, false
	}
	highest, lowest := donchianHighLow(candles[len(candles)-channelPeriod-1 : len(candles)-1])
	return highest, lowest, true
}

// Utility: Donchian Channel High/Low
func donchianHighLow(candles []types.Candle) (decimal.Decimal, decimal.Decimal) {
	if len(candles) == 0 {
		return decimal.Zero, decimal.Zero
	}

	highest := candles[0].High
	lowest := candles[0].Low

	for _, c := range candles {
		if c.High.GreaterThan(highest) {
			highest = c.High
		}
		if c.Low.LessThan(lowest) {
			lowest = c.Low
		}
	}
	return highest, lowest
}

// calcATR is Wilder's average true range.
func calcATR(candles []types.Candle, period int) decimal.Decimal {
	if len(candles) < period+1 {
		return decimal.Zero // need enough data (prev candle + period)
	}

	trueRanges := make([]decimal.Decimal, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close

		maxTrueRange := decimal.Max(high.Sub(low), high.Sub(prevClose).Abs(), low.Sub(prevClose).Abs())
		trueRanges = append(trueRanges, maxTrueRange)
	}

	p := decimal.NewFromInt(int64(period))
	atr := decimal.Sum(trueRanges[0], trueRanges[1:period]...).Div(p)
	for i := period; i < len(trueRanges); i++ {
		atr = atr.Mul(decimal.NewFromInt(int64(period - 1))).Add(trueRanges[i]).Div(p)
	}
	return atr
}

// getQuantityForPrice sizes a position to the capital, rounded down to four decimals.
func getQuantityForPrice(price, capitalToUse decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() || !capitalToUse.IsPositive() {
		return decimal.Zero
	}
	return capitalToUse.Div(price).RoundFloor(4)
}
