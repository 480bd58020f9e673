package binance

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fxbot/internal/exchange"
	"fxbot/types"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	Name      = "Binance"
	pageLimit = 1000
	pagePause = 100 * time.Millisecond
)

var _ exchange.Exchange = (*Client)(nil)

type klineSource interface {
	Klines(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]*gobinance.Kline, error)
}

type restKlines struct {
	client *gobinance.Client
}

func (r restKlines) Klines(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]*gobinance.Kline, error) {
	return r.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(startMs).
		EndTime(endMs).
		Limit(limit).
		Do(ctx)
}

// Client reads spot klines from Binance's public REST API. It does not place orders.
type Client struct {
	source klineSource
	pause  time.Duration
	logger *zap.Logger
}

func New(timeout time.Duration, logger *zap.Logger) *Client {
	client := gobinance.NewClient("", "")
	client.HTTPClient = &http.Client{Timeout: timeout}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{source: restKlines{client: client}, pause: pagePause, logger: logger}
}

func (c *Client) Name() string { return Name }

// FetchOHLCV pages through klines from startMs until endMs (or the latest
// kline when endMs is zero).
func (c *Client) FetchOHLCV(ctx context.Context, symbol string, timeframe types.Timeframe, startMs, endMs int64) ([]types.Candle, error) {
	if _, ok := types.TimeframeToDuration[timeframe]; !ok {
		return nil, fmt.Errorf("%s: %w", timeframe, types.ErrUnknownTimeframe)
	}
	if endMs == 0 {
		endMs = time.Now().UnixMilli()
	}
	pair := ToExchangeSymbol(symbol)

	var out []types.Candle
	cursor := startMs
	for cursor <= endMs {
		klines, err := c.source.Klines(ctx, pair, string(timeframe), cursor, endMs, pageLimit)
		if err != nil {
			return out, fmt.Errorf("fetch %s klines from %d: %w", pair, cursor, err)
		}
		if len(klines) == 0 {
			break
		}
		for _, kl := range klines {
			if kl == nil {
				continue
			}
			candle, err := convertKline(kl)
			if err != nil {
				return out, err
			}
			out = append(out, candle)
		}
		c.logger.Debug("fetched klines", zap.String("symbol", pair), zap.Int("page", len(klines)), zap.Int("total", len(out)))

		if len(klines) < pageLimit {
			break
		}
		cursor = klines[len(klines)-1].OpenTime + 1

		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-time.After(c.pause):
		}
	}
	return out, nil
}

func (c *Client) MarketOrder(string, decimal.Decimal, decimal.Decimal, types.Side, bool) (*types.Order, error) {
	return nil, exchange.ErrOrderRoutingUnsupported
}

func (c *Client) LimitOrder(string, decimal.Decimal, decimal.Decimal, types.Side, bool) (*types.Order, error) {
	return nil, exchange.ErrOrderRoutingUnsupported
}

func (c *Client) StopOrder(string, decimal.Decimal, decimal.Decimal, types.Side, bool) (*types.Order, error) {
	return nil, exchange.ErrOrderRoutingUnsupported
}

func (c *Client) CancelOrder(string, string) error {
	return exchange.ErrOrderRoutingUnsupported
}

func (c *Client) CancelAllOrders(string) {}

// ToExchangeSymbol strips separators: BTC-USDT and BTC/USDT become BTCUSDT.
func ToExchangeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return strings.NewReplacer("-", "", "/", "").Replace(s)
}

func convertKline(kl *gobinance.Kline) (types.Candle, error) {
	fields := [5]string{kl.Open, kl.High, kl.Low, kl.Close, kl.Volume}
	var values [5]decimal.Decimal
	for i, f := range fields {
		v, err := decimal.NewFromString(f)
		if err != nil {
			return types.Candle{}, fmt.Errorf("kline %d: parse %q: %w", kl.OpenTime, f, err)
		}
		values[i] = v
	}
	return types.Candle{
		Timestamp: kl.OpenTime,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}
