package engine

import (
	"fxbot/types"

	"github.com/shopspring/decimal"
)

// applyFill books an executed order against the run: cash, position and the
// trade logs. It returns the updated position, the closed trade if the fill
// reduced or closed a position, and the new cash balance.
func (rc *RunContext) applyFill(order *types.Order) (types.Position, *types.ClosedTradeRecord, decimal.Decimal) {
	key := types.PositionKey(order.Exchange, order.Symbol)
	pos := rc.positions[key]
	if pos == nil {
		pos = &types.Position{}
		rc.positions[key] = pos
	}

	qty := order.Qty
	price := order.Price
	ts := order.ExecutedAt

	cost := qty.Mul(price)
	fee := cost.Mul(rc.feeRate)

	balance := rc.balances[order.Exchange]
	quantity := qty
	if order.Side == types.SideTypeSell {
		balance = balance.Add(cost.Sub(fee))
		quantity = quantity.Neg()
	} else {
		balance = balance.Sub(cost.Add(fee))
	}
	rc.balances[order.Exchange] = balance

	var closed *types.ClosedTradeRecord
	if pos.Qty.IsZero() || sameSide(pos.Qty, quantity) {
		extendPosition(pos, quantity, price, ts)
	} else {
		closed = rc.reducePosition(pos, quantity, price, ts)
	}

	rc.trades = append(rc.trades, types.TradeRecord{
		Timestamp: ts,
		Symbol:    order.Symbol,
		Side:      order.Side,
		Qty:       qty,
		Price:     price,
		Fee:       fee,
		Type:      order.Type,
	})

	return *pos, closed, balance
}

// extendPosition opens a flat position or adds to one on the same side.
func extendPosition(pos *types.Position, quantity, price decimal.Decimal, ts int64) {
	if pos.Qty.IsZero() {
		pos.Qty = quantity
		pos.EntryPrice = price
		pos.OpenedAt = ts
		return
	}
	pos.EntryPrice = weightedAvg(pos.EntryPrice, pos.Qty.Abs(), price, quantity.Abs())
	pos.Qty = pos.Qty.Add(quantity)
}

// reducePosition handles a fill against the opposite side: it closes up to the
// open quantity and flips into a fresh position with whatever remains.
func (rc *RunContext) reducePosition(pos *types.Position, quantity, price decimal.Decimal, ts int64) *types.ClosedTradeRecord {
	open := pos.Qty.Abs()
	covered := decimal.Min(open, quantity.Abs())

	direction := types.DirectionLong
	pnl := price.Sub(pos.EntryPrice).Mul(covered)
	if pos.Qty.IsNegative() {
		direction = types.DirectionShort
		pnl = pos.EntryPrice.Sub(price).Mul(covered)
	}

	closed := types.ClosedTradeRecord{
		EntryPrice:   pos.EntryPrice,
		ExitPrice:    price,
		Qty:          covered,
		PnL:          pnl,
		OpenedAt:     pos.OpenedAt,
		ClosedAt:     ts,
		StrategyName: rc.strategyName,
		Leverage:     1,
		Side:         direction,
	}
	rc.closedTrades = append(rc.closedTrades, closed)

	newQty := pos.Qty.Add(quantity)
	switch {
	case quantity.Abs().GreaterThan(open):
		pos.Qty = newQty
		pos.EntryPrice = price
		pos.OpenedAt = ts
	case newQty.IsZero():
		pos.Qty = decimal.Zero
		pos.EntryPrice = decimal.Zero
		pos.OpenedAt = 0
	default:
		pos.Qty = newQty
	}
	return &closed
}

func sameSide(a, b decimal.Decimal) bool {
	return (a.GreaterThan(decimal.Zero) && b.GreaterThan(decimal.Zero)) ||
		(a.LessThan(decimal.Zero) && b.LessThan(decimal.Zero))
}

func weightedAvg(existingAvgPrice, existingQty, newPrice, newQty decimal.Decimal) decimal.Decimal {
	if existingQty.IsZero() {
		return newPrice
	}
	return existingAvgPrice.Mul(existingQty).
		Add(newPrice.Mul(newQty)).
		Div(existingQty.Add(newQty))
}
