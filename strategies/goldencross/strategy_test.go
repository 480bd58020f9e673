package goldencross

import (
	"context"
	"testing"

	"fxbot/internal/engine"
	"fxbot/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(values []int64) []types.Candle {
	out := make([]types.Candle, 0, len(values))
	for i, v := range values {
		p := decimal.NewFromInt(v)
		out = append(out, types.Candle{
			Timestamp: int64(i) * 3_600_000,
			Open:      p,
			High:      p.Add(decimal.NewFromInt(1)),
			Low:       p.Sub(decimal.NewFromInt(1)),
			Close:     p,
		})
	}
	return out
}

func TestSMA(t *testing.T) {
	values := []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.NewFromInt(3), decimal.NewFromInt(6)}
	assert.Equal(t, "3", sma(values, 4).String())
	assert.Equal(t, "4.5", sma(values, 2).String())
}

func TestCrossAverages(t *testing.T) {
	ramp := make([]int64, 0, 201)
	for i := int64(1); i <= 201; i++ {
		ramp = append(ramp, i)
	}
	// older history does not move the averages
	withHistory := append(make([]int64, 1000), ramp...)

	tests := []struct {
		name    string
		candles []types.Candle
		ok      bool
	}{
		{name: "too short", candles: series(ramp[:200])},
		{name: "exact window", candles: series(ramp), ok: true},
		{name: "long history", candles: series(withHistory), ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prevFast, prevSlow, fast, slow, ok := crossAverages(tt.candles)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, "175.5", prevFast.String())
			assert.Equal(t, "100.5", prevSlow.String())
			assert.Equal(t, "176.5", fast.String())
			assert.Equal(t, "101.5", slow.String())
		})
	}
}

func BenchmarkCrossAverages(b *testing.B) {
	candles := series(make([]int64, 100_000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		crossAverages(candles)
	}
}

func TestStrategy_CrossesTradeOnce(t *testing.T) {
	// 250 flat candles, then a rally until the fast average crosses up,
	// then a selloff until it crosses back down.
	var values []int64
	for i := 0; i < 250; i++ {
		values = append(values, 100)
	}
	for i := 0; i < 30; i++ {
		values = append(values, 110)
	}
	for i := 0; i < 80; i++ {
		values = append(values, 80)
	}

	res, err := engine.Simulate(context.Background(), engine.Simulation{
		RunID:     "gc",
		Symbol:    "BTC-USDT",
		Timeframe: types.Hour,
		Candles:   series(values),
		Factory:   New,
		Config:    engine.NewRunConfig(decimal.Zero, decimal.Zero, 0, 0),
	})
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	assert.Equal(t, types.SideTypeBuy, res.Trades[0].Side)
	assert.Equal(t, int64(250)*3_600_000, res.Trades[0].Timestamp)
	assert.Equal(t, types.SideTypeSell, res.Trades[1].Side)
	assert.Equal(t, "80", res.Trades[1].Price.String())

	require.Len(t, res.ClosedTrades, 1)
	assert.Equal(t, "-30", res.ClosedTrades[0].PnL.String())
	assert.False(t, res.FinalPosition.IsOpen())
}

func TestStrategy_NoSignalWithoutHistory(t *testing.T) {
	res, err := engine.Simulate(context.Background(), engine.Simulation{
		RunID:   "gc-short",
		Symbol:  "BTC-USDT",
		Candles: series(make([]int64, 200)),
		Factory: New,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
}
