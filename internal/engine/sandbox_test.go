package engine

import (
	"context"
	"testing"

	"fxbot/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSandbox(t *testing.T) (*Sandbox, *RunContext) {
	t.Helper()
	rc := NewRunContext("sandbox-test", decimal.NewFromInt(10000), decimal.Zero)
	rc.setCandle(newCandle(60_000, "100", "110", "90", "100"))
	return NewSandbox(rc, nil), rc
}

func TestSandbox_MarketOrderFillsAtCurrentPrice(t *testing.T) {
	sb, rc := newTestSandbox(t)

	o, err := sb.MarketOrder("BTC-USDT", decimal.NewFromInt(2), decimal.Zero, types.SideTypeBuy, false)
	require.NoError(t, err)

	assert.Equal(t, types.OrderExecuted, o.Status)
	assert.Equal(t, "100", o.Price.String())
	assert.Equal(t, int64(60_000), o.SubmittedAt)
	assert.Equal(t, int64(60_000), o.ExecutedAt)
	assert.Equal(t, "2", rc.Position(SandboxExchange, "BTC-USDT").Qty.String())
	assert.Equal(t, "9800", rc.Balance(SandboxExchange).String())
}

func TestSandbox_RejectsInvalidOrders(t *testing.T) {
	sb, rc := newTestSandbox(t)

	_, err := sb.LimitOrder("BTC-USDT", decimal.Zero, decimal.NewFromInt(95), types.SideTypeBuy, false)
	var invalid *InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "qty", invalid.Field)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = sb.StopOrder("BTC-USDT", decimal.NewFromInt(-1), decimal.NewFromInt(95), types.SideTypeSell, false)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, rc.Orders())
}

func TestSandbox_CancelOrder(t *testing.T) {
	sb, rc := newTestSandbox(t)

	o, err := sb.LimitOrder("BTC-USDT", decimal.NewFromInt(1), decimal.NewFromInt(95), types.SideTypeBuy, false)
	require.NoError(t, err)

	require.NoError(t, sb.CancelOrder("BTC-USDT", o.ID))
	assert.Equal(t, types.OrderCanceled, rc.Orders()[0].Status)

	assert.ErrorIs(t, sb.CancelOrder("BTC-USDT", o.ID), types.ErrOrderNotActive)
	assert.ErrorIs(t, sb.CancelOrder("BTC-USDT", "missing"), ErrOrderNotFound)
	assert.ErrorIs(t, sb.CancelOrder("ETH-USDT", o.ID), ErrOrderNotFound)
}

func TestSandbox_CancelAllOrdersOnlyTouchesSymbol(t *testing.T) {
	sb, rc := newTestSandbox(t)

	_, err := sb.LimitOrder("BTC-USDT", decimal.NewFromInt(1), decimal.NewFromInt(95), types.SideTypeBuy, false)
	require.NoError(t, err)
	_, err = sb.StopOrder("BTC-USDT", decimal.NewFromInt(1), decimal.NewFromInt(120), types.SideTypeBuy, false)
	require.NoError(t, err)
	_, err = sb.LimitOrder("ETH-USDT", decimal.NewFromInt(1), decimal.NewFromInt(95), types.SideTypeBuy, false)
	require.NoError(t, err)

	sb.CancelAllOrders("BTC-USDT")

	assert.Empty(t, rc.activeOrders("BTC-USDT"))
	assert.Len(t, rc.activeOrders("ETH-USDT"), 1)
}

func TestSandbox_ReduceOnly(t *testing.T) {
	tests := []struct {
		name       string
		position   string
		side       types.Side
		qty        string
		wantStatus types.OrderStatus
		wantQty    string
		wantPos    string
	}{
		{"flat position cancels", "0", types.SideTypeSell, "1", types.OrderCanceled, "1", "0"},
		{"same side as long cancels", "2", types.SideTypeBuy, "1", types.OrderCanceled, "1", "2"},
		{"same side as short cancels", "-2", types.SideTypeSell, "1", types.OrderCanceled, "1", "-2"},
		{"partial reduce fills", "5", types.SideTypeSell, "2", types.OrderExecuted, "2", "3"},
		{"oversized reduce is clipped", "2", types.SideTypeSell, "5", types.OrderExecuted, "2", "0"},
		{"oversized cover is clipped", "-3", types.SideTypeBuy, "10", types.OrderExecuted, "3", "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sb, rc := newTestSandbox(t)
			pos := decimal.RequireFromString(tc.position)
			switch {
			case pos.IsPositive():
				_, err := sb.MarketOrder("BTC-USDT", pos, decimal.Zero, types.SideTypeBuy, false)
				require.NoError(t, err)
			case pos.IsNegative():
				_, err := sb.MarketOrder("BTC-USDT", pos.Abs(), decimal.Zero, types.SideTypeSell, false)
				require.NoError(t, err)
			}

			o, err := sb.LimitOrder("BTC-USDT", decimal.RequireFromString(tc.qty), decimal.NewFromInt(100), tc.side, true)
			require.NoError(t, err)

			filled, err := sb.execute(o)
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus == types.OrderExecuted, filled)
			assert.Equal(t, tc.wantStatus, o.Status)
			assert.Equal(t, tc.wantQty, o.Qty.String())
			assert.Equal(t, tc.wantPos, rc.Position(SandboxExchange, "BTC-USDT").Qty.String())
		})
	}
}

func TestSandbox_OrderIDsAreDeterministic(t *testing.T) {
	ids := func() []string {
		sb, _ := newTestSandbox(t)
		var out []string
		for i := 0; i < 3; i++ {
			o, err := sb.LimitOrder("BTC-USDT", decimal.NewFromInt(1), decimal.NewFromInt(95), types.SideTypeBuy, false)
			require.NoError(t, err)
			out = append(out, o.ID)
		}
		return out
	}

	first, second := ids(), ids()
	assert.Equal(t, first, second)
	assert.NotEqual(t, first[0], first[1])

	other := NewSandbox(NewRunContext("another-run", decimal.NewFromInt(1), decimal.Zero), nil)
	o, err := other.LimitOrder("BTC-USDT", decimal.NewFromInt(1), decimal.NewFromInt(95), types.SideTypeBuy, false)
	require.NoError(t, err)
	assert.NotEqual(t, first[0], o.ID)
}

func TestSandbox_FetchOHLCVIsEmpty(t *testing.T) {
	sb, _ := newTestSandbox(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	candles, err := sb.FetchOHLCV(ctx, "BTC-USDT", types.Hour, 0, 1)
	require.NoError(t, err)
	assert.Nil(t, candles)
	assert.Equal(t, SandboxExchange, sb.Name())
}
