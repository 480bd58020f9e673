package simple

import (
	"fxbot/internal/engine"
	"fxbot/types"

	"github.com/shopspring/decimal"
)

const Name = "SimpleStrategy"

// Strategy buys one unit after three consecutively lower closes.
type Strategy struct {
	engine.Base
}

func New(symbol, exchange string, timeframe types.Timeframe, rc *engine.RunContext) engine.Strategy {
	return &Strategy{Base: engine.NewBase(symbol, exchange, timeframe, rc)}
}

func (s *Strategy) Name() string { return Name }

func (s *Strategy) ShouldLong() bool {
	candles := s.Candles()
	if len(candles) < 3 {
		return false
	}
	c1 := candles[len(candles)-1].Close
	c2 := candles[len(candles)-2].Close
	c3 := candles[len(candles)-3].Close
	return c1.LessThan(c2) && c2.LessThan(c3)
}

func (s *Strategy) GoLong() {
	s.Buy(types.NewIntent(decimal.NewFromInt(1), s.Price()))
}
