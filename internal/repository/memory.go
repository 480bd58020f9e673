package repository

import (
	"context"
	"sort"
	"sync"

	"fxbot/types"
)

// MemoryStore is a candle store held in process memory, used when no
// database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	candles map[string][]types.Candle
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{candles: make(map[string][]types.Candle)}
}

func marketKey(exchange, symbol string, timeframe types.Timeframe) string {
	return exchange + "|" + symbol + "|" + string(timeframe)
}

func (m *MemoryStore) GetCandles(_ context.Context, exchange, symbol string, timeframe types.Timeframe, startMs, endMs int64) ([]types.Candle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.candles[marketKey(exchange, symbol, timeframe)]
	lo := sort.Search(len(stored), func(i int) bool { return stored[i].Timestamp >= startMs })
	hi := sort.Search(len(stored), func(i int) bool { return stored[i].Timestamp > endMs })
	if lo >= hi {
		return nil, ErrNoCandles
	}
	return append([]types.Candle(nil), stored[lo:hi]...), nil
}

func (m *MemoryStore) UpsertCandles(_ context.Context, exchange, symbol string, timeframe types.Timeframe, candles []types.Candle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := marketKey(exchange, symbol, timeframe)
	byTs := make(map[int64]types.Candle, len(m.candles[key])+len(candles))
	for _, c := range m.candles[key] {
		byTs[c.Timestamp] = c
	}
	for _, c := range candles {
		byTs[c.Timestamp] = c
	}
	merged := make([]types.Candle, 0, len(byTs))
	for _, c := range byTs {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	m.candles[key] = merged
	return nil
}
