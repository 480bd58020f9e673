package session

import (
	"context"
	"path/filepath"
	"testing"

	"fxbot/internal/engine"
	"fxbot/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"), zap.NewNop())
	require.NoError(t, err)
	return store
}

var testRequest = engine.RunRequest{
	Exchange:  "Binance",
	Symbol:    "BTC-USDT",
	Timeframe: "1h",
	StartDate: "2024-01-01",
	EndDate:   "2024-01-31",
	Strategy:  "SimpleStrategy",
}

func testResult(id string) *types.BacktestResult {
	return &types.BacktestResult{
		RunID:          id,
		Status:         types.RunCompleted,
		Strategy:       "SimpleStrategy",
		InitialBalance: decimal.NewFromInt(1000),
		FinalBalance:   decimal.NewFromInt(1100),
		PnLPercent:     decimal.NewFromInt(10),
		Trades: []types.TradeRecord{
			{Timestamp: 0, Symbol: "BTC-USDT", Side: types.SideTypeBuy, Qty: decimal.NewFromInt(1), Price: decimal.NewFromInt(100), Fee: decimal.Zero, Type: types.TypeMarket},
			{Timestamp: 3_600_000, Symbol: "BTC-USDT", Side: types.SideTypeSell, Qty: decimal.NewFromInt(1), Price: decimal.NewFromInt(200), Fee: decimal.Zero, Type: types.TypeMarket},
		},
		ClosedTrades: []types.ClosedTradeRecord{
			{EntryPrice: decimal.NewFromInt(100), ExitPrice: decimal.NewFromInt(200), Qty: decimal.NewFromInt(1), PnL: decimal.NewFromInt(100), ClosedAt: 3_600_000, StrategyName: "SimpleStrategy", Leverage: 1, Side: types.DirectionLong},
		},
		Balances: []types.BalancePoint{
			{Timestamp: 0, Balance: decimal.NewFromInt(900)},
			{Timestamp: 3_600_000, Balance: decimal.NewFromInt(1100)},
		},
		Equity: []types.BalancePoint{
			{Timestamp: 0, Balance: decimal.NewFromInt(1000)},
			{Timestamp: 3_600_000, Balance: decimal.NewFromInt(1100)},
		},
	}
}

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Create(ctx, "run-1", testRequest))
	status, err := store.Status(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, types.RunQueued, status)

	require.NoError(t, store.SetStatus(ctx, "run-1", types.RunProcessing))
	require.NoError(t, store.Complete(ctx, "run-1", testResult("run-1")))

	sess, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, types.RunCompleted, sess.Status)
	assert.Equal(t, "BTC-USDT", sess.Symbol)
	assert.Equal(t, "2024-01-31", sess.EndDate)
	assert.True(t, sess.FinalBalance.Equal(decimal.NewFromInt(1100)))
	assert.True(t, sess.PnLPercent.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, sess.CompletedAt)
	assert.Contains(t, sess.Metrics, `"total_trades":1`)

	res, err := sess.Result()
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)
	require.Len(t, res.ClosedTrades, 1)
	require.Len(t, res.Balances, 2)
	require.Len(t, res.Equity, 2)
	assert.True(t, res.Equity[0].Balance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, res.ClosedTrades[0].PnL.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, types.TypeMarket, res.Trades[1].Type)
}

func TestStore_Fail(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Create(ctx, "run-1", testRequest))

	require.NoError(t, store.Fail(ctx, "run-1", "boom", "goroutine 1"))

	sess, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, types.RunFailed, sess.Status)
	assert.Equal(t, "boom", sess.ErrorMessage)
	assert.Equal(t, "goroutine 1", sess.ErrorTrace)

	res, err := sess.Result()
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
}

func TestStore_Cancel(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Create(ctx, "queued", testRequest))
	require.NoError(t, store.Create(ctx, "done", testRequest))
	require.NoError(t, store.Complete(ctx, "done", testResult("done")))

	require.NoError(t, store.Cancel(ctx, "queued"))
	status, err := store.Status(ctx, "queued")
	require.NoError(t, err)
	assert.Equal(t, types.RunCancelled, status)

	assert.ErrorIs(t, store.Cancel(ctx, "queued"), ErrSessionFinished)
	assert.ErrorIs(t, store.Cancel(ctx, "done"), ErrSessionFinished)
	assert.ErrorIs(t, store.Cancel(ctx, "missing"), ErrSessionNotFound)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Status(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.SetStatus(ctx, "missing", types.RunProcessing), ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "missing"), ErrSessionNotFound)
}

func TestStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Create(ctx, id, testRequest))
	}
	require.NoError(t, store.Complete(ctx, "b", testResult("b")))

	all, err := store.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, sess := range all {
		assert.Empty(t, sess.Trades)
		assert.Empty(t, sess.Equity)
	}

	page, err := store.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	require.NoError(t, store.Delete(ctx, "b"))
	all, err = store.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStore_DuplicateID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Create(ctx, "run-1", testRequest))
	assert.Error(t, store.Create(ctx, "run-1", testRequest))
}
