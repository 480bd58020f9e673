package types

import (
	"github.com/shopspring/decimal"
)

type RunStatus string

const (
	RunQueued     RunStatus = "queued"
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
	RunCancelled  RunStatus = "cancelled"
)

// IsActive reports whether a run in this status may keep stepping.
func (s RunStatus) IsActive() bool {
	return s == RunQueued || s == RunProcessing
}

type BacktestResult struct {
	RunID          string              `json:"run_id"`
	Status         RunStatus           `json:"status"`
	Strategy       string              `json:"strategy"`
	InitialBalance decimal.Decimal     `json:"initial_balance"`
	FinalBalance   decimal.Decimal     `json:"final_balance"`
	PnLPercent     decimal.Decimal     `json:"pnl_percent"`
	Trades         []TradeRecord       `json:"trades"`
	ClosedTrades   []ClosedTradeRecord `json:"closed_trades"`
	Balances       []BalancePoint      `json:"balances"`
	Equity         []BalancePoint      `json:"equity"`
	FinalPosition  Position            `json:"final_position"`
	CandlesSeen    int                 `json:"candles_seen"`
}

func PnLPercent(initial, final decimal.Decimal) decimal.Decimal {
	if initial.IsZero() {
		return decimal.Zero
	}
	return final.Sub(initial).Div(initial).Mul(decimal.NewFromInt(100))
}
