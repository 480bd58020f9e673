package repository

import (
	"context"
	"fmt"

	"fxbot/types"
)

// Market summarises what is stored for one exchange/symbol/timeframe.
type Market struct {
	Exchange  string
	Symbol    string
	Timeframe types.Timeframe
	Candles   int64
	FirstMs   int64
	LastMs    int64
}

// GetMarket reports the stored range of a market. The import mode uses it to
// resume after the last stored candle.
func (db *Database) GetMarket(ctx context.Context, exchange, symbol string, timeframe types.Timeframe) (*Market, error) {
	row, err := db.markets.SelectMarket(ctx, marketParams{Exchange: exchange, Symbol: symbol, Timeframe: string(timeframe)})
	if err != nil {
		return nil, err
	}
	if row.Count == 0 {
		return nil, fmt.Errorf("%s %s %s: %w", exchange, symbol, timeframe, ErrMarketNotFound)
	}
	return &Market{
		Exchange:  exchange,
		Symbol:    symbol,
		Timeframe: timeframe,
		Candles:   row.Count,
		FirstMs:   row.FirstMs,
		LastMs:    row.LastMs,
	}, nil
}
