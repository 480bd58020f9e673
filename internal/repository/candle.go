package repository

import (
	"context"
	"errors"
	"fmt"

	"fxbot/types"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const upsertBatchSize = 500

// GetCandles returns the stored candles of one market with timestamps in
// [startMs, endMs], ascending.
func (db *Database) GetCandles(ctx context.Context, exchange, symbol string, timeframe types.Timeframe, startMs, endMs int64) ([]types.Candle, error) {
	if _, ok := types.TimeframeToDuration[timeframe]; !ok {
		return nil, fmt.Errorf("%s: %w", timeframe, ErrIntervalNotSupported)
	}
	rows, err := db.candles.SelectCandles(ctx, selectCandlesParams{
		Exchange:  exchange,
		Symbol:    symbol,
		Timeframe: string(timeframe),
		StartMs:   startMs,
		EndMs:     endMs,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoCandles
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoCandles
	}
	return convertCandles(rows), nil
}

// UpsertCandles stores candles in batches, replacing rows that already exist
// for the same timestamp.
func (db *Database) UpsertCandles(ctx context.Context, exchange, symbol string, timeframe types.Timeframe, candles []types.Candle) error {
	if _, ok := types.TimeframeToDuration[timeframe]; !ok {
		return fmt.Errorf("%s: %w", timeframe, ErrIntervalNotSupported)
	}
	for i := 0; i < len(candles); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(candles))
		rows := make([]candleRow, 0, end-i)
		for _, c := range candles[i:end] {
			rows = append(rows, candleRow{
				Exchange:  exchange,
				Symbol:    symbol,
				Timeframe: string(timeframe),
				Timestamp: c.Timestamp,
				Open:      c.Open,
				High:      c.High,
				Low:       c.Low,
				Close:     c.Close,
				Volume:    c.Volume,
			})
		}
		if err := db.candles.UpsertCandles(ctx, rows); err != nil {
			return fmt.Errorf("upsert candles %d-%d: %w", i, end, err)
		}
		db.log().Debug("saved candles", zap.String("symbol", symbol), zap.Int("saved", end), zap.Int("total", len(candles)))
	}
	return nil
}

func convertCandles(rows []candleRow) []types.Candle {
	candles := make([]types.Candle, 0, len(rows))
	for _, r := range rows {
		candles = append(candles, types.Candle{
			Timestamp: r.Timestamp,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}
	return candles
}
