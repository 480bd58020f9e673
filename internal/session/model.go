package session

import (
	"encoding/json"
	"fmt"
	"time"

	"fxbot/types"

	"github.com/shopspring/decimal"
)

// BacktestSession is one persisted run: its request, status and, once
// finished, its result.
type BacktestSession struct {
	ID        string          `gorm:"primaryKey;size:36"`
	Status    types.RunStatus `gorm:"size:16;index;not null"`
	Exchange  string          `gorm:"size:32"`
	Symbol    string          `gorm:"size:32"`
	Timeframe string          `gorm:"size:8"`
	StartDate string          `gorm:"size:10"`
	EndDate   string          `gorm:"size:10"`
	Strategy  string          `gorm:"size:64"`

	InitialBalance decimal.Decimal `gorm:"type:text"`
	FinalBalance   decimal.Decimal `gorm:"type:text"`
	PnLPercent     decimal.Decimal `gorm:"type:text;column:pnl_percent"`

	Trades       string `gorm:"type:text"`
	ClosedTrades string `gorm:"type:text"`
	Balances     string `gorm:"type:text"`
	Equity       string `gorm:"type:text"`
	Metrics      string `gorm:"type:text"`

	ErrorMessage string `gorm:"type:text"`
	ErrorTrace   string `gorm:"type:text"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Result rebuilds the stored result. Sessions that never finished return an
// empty trade history.
func (s *BacktestSession) Result() (*types.BacktestResult, error) {
	res := &types.BacktestResult{
		RunID:          s.ID,
		Status:         s.Status,
		Strategy:       s.Strategy,
		InitialBalance: s.InitialBalance,
		FinalBalance:   s.FinalBalance,
		PnLPercent:     s.PnLPercent,
	}
	if err := decodeJSON(s.Trades, &res.Trades); err != nil {
		return nil, fmt.Errorf("session %s trades: %w", s.ID, err)
	}
	if err := decodeJSON(s.ClosedTrades, &res.ClosedTrades); err != nil {
		return nil, fmt.Errorf("session %s closed trades: %w", s.ID, err)
	}
	if err := decodeJSON(s.Balances, &res.Balances); err != nil {
		return nil, fmt.Errorf("session %s balances: %w", s.ID, err)
	}
	if err := decodeJSON(s.Equity, &res.Equity); err != nil {
		return nil, fmt.Errorf("session %s equity: %w", s.ID, err)
	}
	return res, nil
}

func decodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
