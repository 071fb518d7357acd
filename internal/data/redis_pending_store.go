package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"cryptoforge/internal/metrics"
)

const pendingKeyPrefix = "pending:request:"

// RedisPendingClient is the subset of the go-redis client the ledger needs.
type RedisPendingClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
}

// RedisPendingStore lets every replica see the same pending requests. Entries expire with
// the configured TTL.
type RedisPendingStore struct {
	client RedisPendingClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisPendingStore(client RedisPendingClient, ttl time.Duration, logger *slog.Logger) *RedisPendingStore {
	return &RedisPendingStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *RedisPendingStore) key(requestID string) string {
	return pendingKeyPrefix + requestID
}

func (r *RedisPendingStore) Put(ctx context.Context, req PendingRequest) error {
	start := time.Now()
	defer observe(metrics.StoreTypeRedis, metrics.StoreOperationPut, start)

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal pending request: %w", err)
	}

	if err := r.client.Set(ctx, r.key(req.RequestID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store pending request %s: %w", req.RequestID, err)
	}
	return nil
}

func (r *RedisPendingStore) Get(ctx context.Context, requestID string) (PendingRequest, error) {
	start := time.Now()
	defer observe(metrics.StoreTypeRedis, metrics.StoreOperationGet, start)

	raw, err := r.client.Get(ctx, r.key(requestID)).Result()
	if errors.Is(err, redis.Nil) {
		return PendingRequest{}, ErrPendingNotFound
	}
	if err != nil {
		return PendingRequest{}, fmt.Errorf("failed to read pending request %s: %w", requestID, err)
	}

	var req PendingRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return PendingRequest{}, fmt.Errorf("failed to decode pending request %s: %w", requestID, err)
	}
	return req, nil
}

// List skips entries that vanish or fail to decode between KEYS and GET.
func (r *RedisPendingStore) List(ctx context.Context) ([]PendingRequest, error) {
	start := time.Now()
	defer observe(metrics.StoreTypeRedis, metrics.StoreOperationList, start)

	keys, err := r.client.Keys(ctx, pendingKeyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	out := make([]PendingRequest, 0, len(keys))
	for _, key := range keys {
		req, err := r.Get(ctx, key[len(pendingKeyPrefix):])
		if err != nil {
			if !errors.Is(err, ErrPendingNotFound) {
				r.logger.Warn("skipping unreadable pending request", "key", key, "error", err)
			}
			continue
		}
		out = append(out, req)
	}
	metrics.PendingRequests.Set(float64(len(out)))

	sortPending(out)
	return out, nil
}

func (r *RedisPendingStore) Delete(ctx context.Context, requestID string) error {
	start := time.Now()
	defer observe(metrics.StoreTypeRedis, metrics.StoreOperationDelete, start)

	if err := r.client.Del(ctx, r.key(requestID)).Err(); err != nil {
		return fmt.Errorf("failed to delete pending request %s: %w", requestID, err)
	}
	return nil
}
