package types

import (
	"github.com/shopspring/decimal"
)

// Position is keyed by exchange+symbol. Qty is signed: >0 long, <0 short, 0 flat.
// EntryPrice and OpenedAt are zero exactly when Qty is zero.
type Position struct {
	Qty        decimal.Decimal `json:"qty"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	OpenedAt   int64           `json:"opened_at"`
}

func PositionKey(exchange, symbol string) string {
	return exchange + "-" + symbol
}

func (p Position) IsOpen() bool {
	return !p.Qty.IsZero()
}

func (p Position) IsLong() bool {
	return p.Qty.IsPositive()
}

func (p Position) IsShort() bool {
	return p.Qty.IsNegative()
}

// Side is the side that opened the position. It is empty while flat.
func (p Position) Side() Side {
	switch {
	case p.IsLong():
		return SideTypeBuy
	case p.IsShort():
		return SideTypeSell
	}
	return ""
}

// UnrealizedPnL marks the position against price.
func (p Position) UnrealizedPnL(price decimal.Decimal) decimal.Decimal {
	if p.Qty.IsZero() {
		return decimal.Zero
	}
	return price.Sub(p.EntryPrice).Mul(p.Qty)
}
