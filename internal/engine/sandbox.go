package engine

import (
	"context"
	"fmt"

	"fxbot/internal/exchange"
	"fxbot/internal/metrics"
	"fxbot/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var _ exchange.Exchange = (*Sandbox)(nil)

// Sandbox is the simulated exchange a backtest trades against. It books every
// order into the RunContext it was created for.
type Sandbox struct {
	rc     *RunContext
	logger *zap.Logger
}

func NewSandbox(rc *RunContext, logger *zap.Logger) *Sandbox {
	return &Sandbox{rc: rc, logger: orNop(logger)}
}

func (s *Sandbox) Name() string { return SandboxExchange }

// FetchOHLCV returns nothing: the sandbox replays candles loaded elsewhere.
func (s *Sandbox) FetchOHLCV(context.Context, string, types.Timeframe, int64, int64) ([]types.Candle, error) {
	return nil, nil
}

// MarketOrder fills immediately. A zero price means the current close.
func (s *Sandbox) MarketOrder(symbol string, qty, price decimal.Decimal, side types.Side, reduceOnly bool) (*types.Order, error) {
	if price.IsZero() {
		price = s.rc.Price()
	}
	order, err := s.submit(symbol, qty, price, side, types.TypeMarket, reduceOnly)
	if err != nil {
		return nil, err
	}
	if _, err := s.execute(order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Sandbox) LimitOrder(symbol string, qty, price decimal.Decimal, side types.Side, reduceOnly bool) (*types.Order, error) {
	return s.submit(symbol, qty, price, side, types.TypeLimit, reduceOnly)
}

func (s *Sandbox) StopOrder(symbol string, qty, price decimal.Decimal, side types.Side, reduceOnly bool) (*types.Order, error) {
	return s.submit(symbol, qty, price, side, types.TypeStop, reduceOnly)
}

func (s *Sandbox) CancelOrder(symbol, id string) error {
	order := s.rc.findOrder(symbol, id)
	if order == nil {
		return fmt.Errorf("cancel %s/%s: %w", symbol, id, ErrOrderNotFound)
	}
	return order.MarkCanceled()
}

func (s *Sandbox) CancelAllOrders(symbol string) {
	for _, o := range s.rc.activeOrders(symbol) {
		_ = o.MarkCanceled()
	}
}

// cancelEntryOrders cancels the active orders that could open a position.
func (s *Sandbox) cancelEntryOrders(symbol string) {
	for _, o := range s.rc.activeOrders(symbol) {
		if !o.ReduceOnly {
			_ = o.MarkCanceled()
		}
	}
}

func (s *Sandbox) submit(symbol string, qty, price decimal.Decimal, side types.Side, typ types.OrderType, reduceOnly bool) (*types.Order, error) {
	if !qty.IsPositive() {
		return nil, &InvalidInputError{Field: "qty", Value: qty.String()}
	}
	if !price.IsPositive() {
		return nil, &InvalidInputError{Field: "price", Value: price.String()}
	}
	if side != types.SideTypeBuy && side != types.SideTypeSell {
		return nil, &InvalidInputError{Field: "side", Value: string(side)}
	}

	order := &types.Order{
		ID:          s.rc.nextOrderID(),
		Symbol:      symbol,
		Exchange:    SandboxExchange,
		Side:        side,
		Type:        typ,
		Qty:         qty,
		Price:       price,
		Status:      types.OrderActive,
		SubmittedAt: s.rc.Candle().Timestamp,
		ReduceOnly:  reduceOnly,
	}
	s.rc.orders = append(s.rc.orders, order)
	return order, nil
}

// execute fills an active order at its own price. Reduce-only orders are
// re-checked against the position first: they are canceled when nothing is
// left to reduce and clipped so they never flip it. It reports whether the
// order was filled.
func (s *Sandbox) execute(order *types.Order) (bool, error) {
	if !order.IsActive() {
		return false, nil
	}

	if order.ReduceOnly {
		pos := s.rc.Position(order.Exchange, order.Symbol)
		if !pos.IsOpen() || (pos.IsLong() && order.Side == types.SideTypeBuy) || (pos.IsShort() && order.Side == types.SideTypeSell) {
			s.logger.Debug("reduce-only order canceled",
				zap.String("id", order.ID),
				zap.String("symbol", order.Symbol),
				zap.String("position", pos.Qty.String()),
			)
			return false, order.MarkCanceled()
		}
		if order.Qty.GreaterThan(pos.Qty.Abs()) {
			order.Qty = pos.Qty.Abs()
		}
	}

	if err := order.MarkExecuted(s.rc.Candle().Timestamp); err != nil {
		return false, err
	}
	_, closed, balance := s.rc.applyFill(order)

	metrics.FillsTotal.WithLabelValues(string(order.Side), string(order.Type)).Inc()
	s.logger.Debug("order executed",
		zap.String("side", string(order.Side)),
		zap.String("qty", order.Qty.String()),
		zap.String("symbol", order.Symbol),
		zap.String("price", order.Price.String()),
		zap.String("balance", balance.String()),
		zap.Bool("closed_trade", closed != nil),
	)
	return true, nil
}
