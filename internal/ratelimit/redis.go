package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cryptoforge/internal/metrics"
)

const keyPrefix = "ratelimit:"

type RedisClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	PExpire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisStore shares counters between replicas. Expiry is left to redis, so it needs no
// sweeping.
type RedisStore struct {
	client RedisClient
}

func NewRedisStore(client RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Incr(ctx context.Context, key string, window time.Duration, now time.Time) (int64, time.Time, error) {
	start := time.Now()
	defer func() {
		metrics.StoreOperationDuration.WithLabelValues(metrics.StoreTypeRedis, metrics.StoreOperationIncr).Observe(time.Since(start).Seconds())
	}()

	k := keyPrefix + key
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := r.client.PExpire(ctx, k, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("failed to set rate limit window: %w", err)
		}
		return count, now.Add(window), nil
	}

	ttl, err := r.client.PTTL(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to read rate limit window: %w", err)
	}
	if ttl < 0 {
		// The first hit's PEXPIRE was lost; restart the window rather than never expiring.
		if err := r.client.PExpire(ctx, k, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("failed to set rate limit window: %w", err)
		}
		ttl = window
	}
	return count, now.Add(ttl), nil
}
