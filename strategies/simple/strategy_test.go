package simple

import (
	"context"
	"testing"

	"fxbot/internal/engine"
	"fxbot/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closes(values ...int64) []types.Candle {
	out := make([]types.Candle, 0, len(values))
	for i, v := range values {
		p := decimal.NewFromInt(v)
		out = append(out, types.Candle{
			Timestamp: int64(i) * 60_000,
			Open:      p,
			High:      p.Add(decimal.NewFromInt(1)),
			Low:       p.Sub(decimal.NewFromInt(1)),
			Close:     p,
		})
	}
	return out
}

func TestStrategy_BuysAfterThreeLowerCloses(t *testing.T) {
	res, err := engine.Simulate(context.Background(), engine.Simulation{
		RunID:   "simple",
		Symbol:  "BTC-USDT",
		Candles: closes(100, 101, 100, 99, 98, 99, 100, 97),
		Factory: New,
		Config:  engine.NewRunConfig(decimal.Zero, decimal.Zero, 0, 0),
	})
	require.NoError(t, err)

	// 101 > 100 > 99 and 100 > 99 > 98
	require.Len(t, res.Trades, 2)
	assert.Equal(t, "99", res.Trades[0].Price.String())
	assert.Equal(t, "98", res.Trades[1].Price.String())
	assert.Equal(t, types.SideTypeBuy, res.Trades[1].Side)
	assert.Equal(t, "2", res.FinalPosition.Qty.String())
	assert.Equal(t, "98.5", res.FinalPosition.EntryPrice.String())
	assert.Equal(t, Name, res.Strategy)
}

func TestStrategy_NeedsThreeCandles(t *testing.T) {
	s := New("BTC-USDT", engine.SandboxExchange, types.OneMinute, engine.NewRunContext("x", decimal.Zero, decimal.Zero))
	assert.False(t, s.ShouldLong())
	assert.False(t, s.ShouldShort())
}
