package repository

import (
	"context"
	"testing"

	"fxbot/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMarketsRepository struct {
	row marketRow
	err error
}

func (m mockMarketsRepository) SelectMarket(_ context.Context, _ marketParams) (marketRow, error) {
	return m.row, m.err
}

func TestDatabase_GetMarket(t *testing.T) {
	tests := []struct {
		name    string
		row     marketRow
		wantErr error
	}{
		{"should throw ErrMarketNotFound", marketRow{}, ErrMarketNotFound},
		{"should return stored range", marketRow{Count: 3, FirstMs: 60_000, LastMs: 180_000}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &Database{markets: mockMarketsRepository{row: tt.row}, logger: zap.NewNop()}
			got, err := db.GetMarket(context.Background(), "Binance", "BTC-USDT", types.OneMinute)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.row.Count, got.Candles)
			assert.Equal(t, tt.row.FirstMs, got.FirstMs)
			assert.Equal(t, tt.row.LastMs, got.LastMs)
		})
	}
}
