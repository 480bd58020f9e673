package types

import (
	"github.com/shopspring/decimal"
)

// Intent is a (qty, price) pair emitted by a strategy for a single step.
type Intent struct {
	Qty   decimal.Decimal
	Price decimal.Decimal
}

func NewIntent(qty, price decimal.Decimal) Intent {
	return Intent{Qty: qty, Price: price}
}
