package engine

import (
	"time"

	"fxbot/internal/exchange"
	"fxbot/types"

	"github.com/shopspring/decimal"
)

// Strategy is implemented by embedding Base and overriding the signal methods.
// The loop calls, per candle and in order: UpdatePosition (only while a
// position is open), ShouldCancel (only while flat), ShouldLong/GoLong and
// ShouldShort/GoShort.
type Strategy interface {
	Name() string
	SetUp()
	Terminate()
	UpdatePosition()
	ShouldCancel() bool
	ShouldLong() bool
	ShouldShort() bool
	GoLong()
	GoShort()

	core() *Base
}

// Factory builds a strategy for one symbol of a run.
type Factory func(symbol, exchange string, timeframe types.Timeframe, rc *RunContext) Strategy

// Base carries the state every strategy shares: the visible candle window,
// the per-step intent lists and read access to the run.
type Base struct {
	symbol    string
	exchange  string
	timeframe types.Timeframe
	rc        *RunContext
	broker    exchange.OrderPlacer

	candles []types.Candle

	buy        []types.Intent
	sell       []types.Intent
	stopLoss   []types.Intent
	takeProfit []types.Intent
}

func NewBase(symbol, exchange string, timeframe types.Timeframe, rc *RunContext) Base {
	return Base{symbol: symbol, exchange: exchange, timeframe: timeframe, rc: rc}
}

func (b *Base) core() *Base { return b }

func (b *Base) Symbol() string               { return b.symbol }
func (b *Base) Exchange() string             { return b.exchange }
func (b *Base) Timeframe() types.Timeframe   { return b.timeframe }
func (b *Base) Candles() []types.Candle      { return b.candles }
func (b *Base) Price() decimal.Decimal       { return b.rc.Price() }
func (b *Base) Balance() decimal.Decimal     { return b.rc.Balance(b.exchange) }
func (b *Base) Position() types.Position     { return b.rc.Position(b.exchange, b.symbol) }
func (b *Base) Broker() exchange.OrderPlacer { return b.broker }

// Time is the open time of the current candle.
func (b *Base) Time() time.Time { return b.rc.Candle().Time() }

func (b *Base) Buy(intents ...types.Intent)        { b.buy = append(b.buy, intents...) }
func (b *Base) Sell(intents ...types.Intent)       { b.sell = append(b.sell, intents...) }
func (b *Base) StopLoss(intents ...types.Intent)   { b.stopLoss = append(b.stopLoss, intents...) }
func (b *Base) TakeProfit(intents ...types.Intent) { b.takeProfit = append(b.takeProfit, intents...) }

func (b *Base) SetUp()             {}
func (b *Base) Terminate()         {}
func (b *Base) UpdatePosition()    {}
func (b *Base) ShouldCancel() bool { return false }
func (b *Base) ShouldLong() bool   { return false }
func (b *Base) ShouldShort() bool  { return false }
func (b *Base) GoLong()            {}
func (b *Base) GoShort()           {}

func (b *Base) clearIntents() {
	b.buy, b.sell, b.stopLoss, b.takeProfit = nil, nil, nil, nil
}
