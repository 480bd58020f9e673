package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPosition_Side(t *testing.T) {
	tests := []struct {
		name     string
		qty      string
		price    string
		want     Side
		opposite Side
		unreal   string
	}{
		{name: "long", qty: "2", price: "110", want: SideTypeBuy, opposite: SideTypeSell, unreal: "20"},
		{name: "short", qty: "-2", price: "110", want: SideTypeSell, opposite: SideTypeBuy, unreal: "-20"},
		{name: "flat", qty: "0", price: "110", want: "", unreal: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := Position{Qty: decimal.RequireFromString(tt.qty)}
			if pos.IsOpen() {
				pos.EntryPrice = decimal.NewFromInt(100)
			}
			assert.Equal(t, tt.want, pos.Side())
			if tt.opposite != "" {
				assert.Equal(t, tt.opposite, pos.Side().Opposite())
			}
			assert.Equal(t, tt.unreal, pos.UnrealizedPnL(decimal.RequireFromString(tt.price)).String())
		})
	}
}
