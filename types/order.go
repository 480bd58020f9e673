package types

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrOrderNotActive = errors.New("order is not active")

// Order is a resting or immediately executed instruction. Status only moves
// ACTIVE -> EXECUTED or ACTIVE -> CANCELED.
type Order struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	Exchange    string          `json:"exchange"`
	Side        Side            `json:"side"`
	Type        OrderType       `json:"type"`
	Qty         decimal.Decimal `json:"qty"`
	Price       decimal.Decimal `json:"price"`
	Status      OrderStatus     `json:"status"`
	SubmittedAt int64           `json:"submitted_at"`
	ExecutedAt  int64           `json:"executed_at,omitempty"`
	ReduceOnly  bool            `json:"reduce_only"`
}

func (o *Order) IsActive() bool {
	return o.Status == OrderActive
}

func (o *Order) MarkExecuted(ts int64) error {
	if !o.IsActive() {
		return fmt.Errorf("execute order %s (%s): %w", o.ID, o.Status, ErrOrderNotActive)
	}
	o.Status = OrderExecuted
	o.ExecutedAt = ts
	return nil
}

func (o *Order) MarkCanceled() error {
	if !o.IsActive() {
		return fmt.Errorf("cancel order %s (%s): %w", o.ID, o.Status, ErrOrderNotActive)
	}
	o.Status = OrderCanceled
	return nil
}
