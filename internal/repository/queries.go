package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const createCandlesTable = `
CREATE TABLE IF NOT EXISTS candles (
	exchange  TEXT    NOT NULL,
	symbol    TEXT    NOT NULL,
	timeframe TEXT    NOT NULL,
	timestamp BIGINT  NOT NULL,
	open      NUMERIC NOT NULL,
	high      NUMERIC NOT NULL,
	low       NUMERIC NOT NULL,
	close     NUMERIC NOT NULL,
	volume    NUMERIC NOT NULL,
	PRIMARY KEY (exchange, symbol, timeframe, timestamp)
)`

const selectCandles = `
SELECT timestamp, open, high, low, close, volume
FROM candles
WHERE exchange = $1 AND symbol = $2 AND timeframe = $3
  AND timestamp BETWEEN $4 AND $5
ORDER BY timestamp`

const upsertCandle = `
INSERT INTO candles (exchange, symbol, timeframe, timestamp, open, high, low, close, volume)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (exchange, symbol, timeframe, timestamp) DO UPDATE
SET open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
    close = EXCLUDED.close, volume = EXCLUDED.volume`

const selectMarket = `
SELECT COUNT(*), COALESCE(MIN(timestamp), 0), COALESCE(MAX(timestamp), 0)
FROM candles
WHERE exchange = $1 AND symbol = $2 AND timeframe = $3`

type selectCandlesParams struct {
	Exchange  string
	Symbol    string
	Timeframe string
	StartMs   int64
	EndMs     int64
}

type candleRow struct {
	Exchange  string          `db:"-"`
	Symbol    string          `db:"-"`
	Timeframe string          `db:"-"`
	Timestamp int64           `db:"timestamp"`
	Open      decimal.Decimal `db:"open"`
	High      decimal.Decimal `db:"high"`
	Low       decimal.Decimal `db:"low"`
	Close     decimal.Decimal `db:"close"`
	Volume    decimal.Decimal `db:"volume"`
}

type marketParams struct {
	Exchange  string
	Symbol    string
	Timeframe string
}

type marketRow struct {
	Count   int64
	FirstMs int64
	LastMs  int64
}

type queries struct {
	pool *pgxpool.Pool
}

func (q *queries) SelectCandles(ctx context.Context, arg selectCandlesParams) ([]candleRow, error) {
	rows, err := q.pool.Query(ctx, selectCandles, arg.Exchange, arg.Symbol, arg.Timeframe, arg.StartMs, arg.EndMs)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[candleRow])
}

// UpsertCandles writes the rows in one batch inside a transaction.
func (q *queries) UpsertCandles(ctx context.Context, rows []candleRow) error {
	return pgx.BeginFunc(ctx, q.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range rows {
			batch.Queue(upsertCandle, r.Exchange, r.Symbol, r.Timeframe, r.Timestamp, r.Open, r.High, r.Low, r.Close, r.Volume)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (q *queries) SelectMarket(ctx context.Context, arg marketParams) (marketRow, error) {
	var m marketRow
	err := q.pool.QueryRow(ctx, selectMarket, arg.Exchange, arg.Symbol, arg.Timeframe).Scan(&m.Count, &m.FirstMs, &m.LastMs)
	return m, err
}
