package engine

import (
	"strconv"

	"fxbot/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RunContext is the mutable state of one backtest run. It is owned by a single
// run and never shared, so it carries no locks.
type RunContext struct {
	runID        string
	namespace    uuid.UUID
	strategyName string
	feeRate      decimal.Decimal

	candle types.Candle
	price  decimal.Decimal

	balances     map[string]decimal.Decimal
	positions    map[string]*types.Position
	orders       []*types.Order
	trades       []types.TradeRecord
	closedTrades []types.ClosedTradeRecord
	balanceLog   []types.BalancePoint
	equityLog    []types.BalancePoint

	orderSeq int
}

func NewRunContext(runID string, initialBalance, feeRate decimal.Decimal) *RunContext {
	return &RunContext{
		runID:     runID,
		namespace: uuid.NewSHA1(uuid.NameSpaceOID, []byte(runID)),
		feeRate:   feeRate,
		balances:  map[string]decimal.Decimal{SandboxExchange: initialBalance},
		positions: make(map[string]*types.Position),
	}
}

func (rc *RunContext) RunID() string { return rc.runID }

func (rc *RunContext) Price() decimal.Decimal { return rc.price }

func (rc *RunContext) Candle() types.Candle { return rc.candle }

func (rc *RunContext) Balance(exchange string) decimal.Decimal {
	return rc.balances[exchange]
}

// Position returns a copy; a missing position is flat.
func (rc *RunContext) Position(exchange, symbol string) types.Position {
	if pos, ok := rc.positions[types.PositionKey(exchange, symbol)]; ok {
		return *pos
	}
	return types.Position{}
}

// Orders returns every order of the run in submission order.
func (rc *RunContext) Orders() []types.Order {
	out := make([]types.Order, 0, len(rc.orders))
	for _, o := range rc.orders {
		out = append(out, *o)
	}
	return out
}

func (rc *RunContext) Trades() []types.TradeRecord {
	return append([]types.TradeRecord(nil), rc.trades...)
}

func (rc *RunContext) ClosedTrades() []types.ClosedTradeRecord {
	return append([]types.ClosedTradeRecord(nil), rc.closedTrades...)
}

func (rc *RunContext) Balances() []types.BalancePoint {
	return append([]types.BalancePoint(nil), rc.balanceLog...)
}

// Equity is the marked-to-market series: cash plus the open position valued at
// each step's close.
func (rc *RunContext) Equity() []types.BalancePoint {
	return append([]types.BalancePoint(nil), rc.equityLog...)
}

func (rc *RunContext) setCandle(c types.Candle) {
	rc.candle = c
	rc.price = c.Close
}

func (rc *RunContext) activeOrders(symbol string) []*types.Order {
	var out []*types.Order
	for _, o := range rc.orders {
		if o.Symbol == symbol && o.IsActive() {
			out = append(out, o)
		}
	}
	return out
}

func (rc *RunContext) findOrder(symbol, id string) *types.Order {
	for _, o := range rc.orders {
		if o.Symbol == symbol && o.ID == id {
			return o
		}
	}
	return nil
}

// nextOrderID is derived from the run id and a sequence number so replays
// produce identical ids.
func (rc *RunContext) nextOrderID() string {
	rc.orderSeq++
	return uuid.NewSHA1(rc.namespace, []byte(strconv.Itoa(rc.orderSeq))).String()
}

// recordBalance appends a balance point when the balance moved since the last one.
func (rc *RunContext) recordBalance(exchange string) {
	bal := rc.balances[exchange]
	if n := len(rc.balanceLog); n > 0 && rc.balanceLog[n-1].Balance.Equal(bal) {
		return
	}
	rc.balanceLog = append(rc.balanceLog, types.BalancePoint{Timestamp: rc.candle.Timestamp, Balance: bal})
}

// recordEquity appends the marked equity of one symbol's position when it
// moved since the last point.
func (rc *RunContext) recordEquity(exchange, symbol string) {
	pos := rc.Position(exchange, symbol)
	equity := rc.balances[exchange].Add(pos.Qty.Mul(pos.EntryPrice)).Add(pos.UnrealizedPnL(rc.price))
	if n := len(rc.equityLog); n > 0 && rc.equityLog[n-1].Balance.Equal(equity) {
		return
	}
	rc.equityLog = append(rc.equityLog, types.BalancePoint{Timestamp: rc.candle.Timestamp, Balance: equity})
}
