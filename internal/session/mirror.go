package session

import (
	"context"

	"fxbot/internal/engine"
	"fxbot/types"

	"go.uber.org/zap"
)

// Mirror is a Store whose status changes are copied to Redis. Status reads
// go to Redis first and fall back to the database.
type Mirror struct {
	*Store
	redis *RedisStatus
}

var _ engine.StatusProbe = (*Mirror)(nil)

func NewMirror(store *Store, redis *RedisStatus) *Mirror {
	return &Mirror{Store: store, redis: redis}
}

func (m *Mirror) SetStatus(ctx context.Context, id string, status types.RunStatus) error {
	if err := m.Store.SetStatus(ctx, id, status); err != nil {
		return err
	}
	m.publish(ctx, id, status)
	return nil
}

func (m *Mirror) Status(ctx context.Context, id string) (types.RunStatus, error) {
	status, err := m.redis.Status(ctx, id)
	if err == nil && status != "" {
		return status, nil
	}
	if err != nil {
		m.logger.Warn("redis status read failed", zap.String("id", id), zap.Error(err))
	}
	return m.Store.Status(ctx, id)
}

func (m *Mirror) Complete(ctx context.Context, id string, res *types.BacktestResult) error {
	if err := m.Store.Complete(ctx, id, res); err != nil {
		return err
	}
	m.publish(ctx, id, res.Status)
	return nil
}

func (m *Mirror) Fail(ctx context.Context, id, message, trace string) error {
	if err := m.Store.Fail(ctx, id, message, trace); err != nil {
		return err
	}
	m.publish(ctx, id, types.RunFailed)
	return nil
}

func (m *Mirror) Cancel(ctx context.Context, id string) error {
	if err := m.Store.Cancel(ctx, id); err != nil {
		return err
	}
	m.publish(ctx, id, types.RunCancelled)
	return nil
}

// publish is best-effort: the database stays the source of truth.
func (m *Mirror) publish(ctx context.Context, id string, status types.RunStatus) {
	if err := m.redis.SetStatus(ctx, id, status); err != nil {
		m.logger.Warn("redis status write failed", zap.String("id", id), zap.Error(err))
	}
}
