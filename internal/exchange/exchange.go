package exchange

import (
	"context"
	"errors"

	"fxbot/types"

	"github.com/shopspring/decimal"
)

var ErrOrderRoutingUnsupported = errors.New("order routing is not supported by this exchange")

// CandleFetcher loads OHLCV history for [startMs, endMs] in ascending timestamp order.
type CandleFetcher interface {
	Name() string
	FetchOHLCV(ctx context.Context, symbol string, timeframe types.Timeframe, startMs, endMs int64) ([]types.Candle, error)
}

// OrderPlacer is the order surface a strategy can reach. Quantities must be
// positive.
type OrderPlacer interface {
	MarketOrder(symbol string, qty, price decimal.Decimal, side types.Side, reduceOnly bool) (*types.Order, error)
	LimitOrder(symbol string, qty, price decimal.Decimal, side types.Side, reduceOnly bool) (*types.Order, error)
	StopOrder(symbol string, qty, price decimal.Decimal, side types.Side, reduceOnly bool) (*types.Order, error)
	CancelOrder(symbol, id string) error
	CancelAllOrders(symbol string)
}

// Exchange is implemented by the in-process sandbox and by market data
// sources. Data sources reject order calls with ErrOrderRoutingUnsupported.
type Exchange interface {
	CandleFetcher
	OrderPlacer
}
