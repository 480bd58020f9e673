package types

import (
	"github.com/shopspring/decimal"
)

// TradeRecord is appended once per fill.
type TradeRecord struct {
	Timestamp int64           `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Qty       decimal.Decimal `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Fee       decimal.Decimal `json:"fee"`
	Type      OrderType       `json:"type"`
}

// ClosedTradeRecord is emitted once per reduction or close of a position and never mutated.
// PnL excludes fees.
type ClosedTradeRecord struct {
	EntryPrice   decimal.Decimal `json:"entry_price"`
	ExitPrice    decimal.Decimal `json:"exit_price"`
	Qty          decimal.Decimal `json:"qty"`
	PnL          decimal.Decimal `json:"pnl"`
	OpenedAt     int64           `json:"opened_at"`
	ClosedAt     int64           `json:"closed_at"`
	StrategyName string          `json:"strategy_name"`
	Leverage     int             `json:"leverage"`
	Side         Direction       `json:"type"`
}

type BalancePoint struct {
	Timestamp int64           `json:"timestamp"`
	Balance   decimal.Decimal `json:"balance"`
}
