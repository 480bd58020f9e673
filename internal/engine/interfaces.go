package engine

import (
	"context"

	"fxbot/types"
)

type dataStore interface {
	GetCandles(ctx context.Context, exchange, symbol string, timeframe types.Timeframe, startMs, endMs int64) ([]types.Candle, error)
}

// StatusProbe reports the externally recorded status of a run. Anything other
// than queued, processing or empty stops the loop.
type StatusProbe interface {
	Status(ctx context.Context, runID string) (types.RunStatus, error)
}

// StrategyResolver maps a registry key to a strategy factory.
type StrategyResolver func(name string) (Factory, error)
