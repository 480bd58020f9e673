package session

import (
	"context"
	"errors"
	"time"

	"fxbot/types"

	"github.com/redis/go-redis/v9"
)

const statusKeyPrefix = "backtest:status:"

type statusClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisStatus mirrors run statuses into Redis so workers on other hosts can
// poll them without touching the session database.
type RedisStatus struct {
	client statusClient
	ttl    time.Duration
}

func NewRedisStatus(client *redis.Client, ttl time.Duration) *RedisStatus {
	return &RedisStatus{client: client, ttl: ttl}
}

func statusKey(id string) string { return statusKeyPrefix + id }

func (r *RedisStatus) SetStatus(ctx context.Context, id string, status types.RunStatus) error {
	return r.client.Set(ctx, statusKey(id), string(status), r.ttl).Err()
}

// Status returns an empty status for unknown runs, which the engine reads as
// "no signal".
func (r *RedisStatus) Status(ctx context.Context, id string) (types.RunStatus, error) {
	val, err := r.client.Get(ctx, statusKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return types.RunStatus(val), nil
}
