package repository

import (
	"context"
	"testing"

	"fxbot/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RangeIsInclusive(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.UpsertCandles(ctx, "Binance", "ETH-USDT", types.OneMinute, mockCandles(0, 10*60_000)))

	got, err := store.GetCandles(ctx, "Binance", "ETH-USDT", types.OneMinute, 60_000, 180_000)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(60_000), got[0].Timestamp)
	assert.Equal(t, int64(180_000), got[2].Timestamp)

	_, err = store.GetCandles(ctx, "Binance", "ETH-USDT", types.Hour, 0, 600_000)
	assert.ErrorIs(t, err, ErrNoCandles)
}

func TestMemoryStore_UpsertReplaces(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	first := []types.Candle{{Timestamp: 120_000, Close: decimal.NewFromInt(1)}, {Timestamp: 60_000, Close: decimal.NewFromInt(2)}}
	second := []types.Candle{{Timestamp: 120_000, Close: decimal.NewFromInt(3)}}

	require.NoError(t, store.UpsertCandles(ctx, "Binance", "ETH-USDT", types.OneMinute, first))
	require.NoError(t, store.UpsertCandles(ctx, "Binance", "ETH-USDT", types.OneMinute, second))

	got, err := store.GetCandles(ctx, "Binance", "ETH-USDT", types.OneMinute, 0, 1_000_000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(60_000), got[0].Timestamp)
	assert.True(t, got[1].Close.Equal(decimal.NewFromInt(3)))
}
