// Package distributed elects one leader among replicas sharing a redis instance so that
// ledger polling runs once per deployment.
package distributed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"cryptoforge/internal/config"
	"cryptoforge/internal/metrics"
)

const leaderKey = "cryptoforge:leader"

var resignScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

type ElectionClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

type Election struct {
	Redis      ElectionClient
	InstanceID string
	TTL        time.Duration
	logger     *slog.Logger
	isLeader   bool
	mu         sync.RWMutex
}

func NewElection(client ElectionClient, instanceID string, ttl time.Duration, logger *slog.Logger) *Election {
	if ttl <= 0 {
		ttl = config.DefaultDistributedConfig.TTL
	}
	return &Election{
		Redis:      client,
		InstanceID: instanceID,
		TTL:        ttl,
		logger:     logger,
	}
}

func (e *Election) IsLeader() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.isLeader
}

func (e *Election) campaign(ctx context.Context) {
	ok, err := e.Redis.SetNX(ctx, leaderKey, e.InstanceID, e.TTL).Result()
	if err != nil {
		e.logger.Error("failed to campaign for leadership", "error", err, "instance", e.InstanceID)
		return
	}

	e.mu.Lock()
	wasLeader := e.isLeader

	if ok {
		e.isLeader = true
	} else {
		currentLeader, err := e.Redis.Get(ctx, leaderKey).Result()
		if err == nil && currentLeader == e.InstanceID {
			e.isLeader = true
			e.Redis.Expire(ctx, leaderKey, e.TTL)
		} else {
			e.isLeader = false
		}
	}
	isLeader := e.isLeader
	e.mu.Unlock()

	if isLeader && !wasLeader {
		e.logger.Info("became leader", "instance", e.InstanceID)
		metrics.IsLeader.Set(1)
		metrics.LeadershipChanges.Inc()
	} else if !isLeader && wasLeader {
		e.logger.Info("lost leadership", "instance", e.InstanceID)
		metrics.IsLeader.Set(0)
		metrics.LeadershipChanges.Inc()
	}
}

// Start campaigns every TTL/3 until ctx is cancelled, then resigns.
func (e *Election) Start(ctx context.Context) {
	ticker := time.NewTicker(e.TTL / 3)
	defer ticker.Stop()

	e.campaign(ctx)

	for {
		select {
		case <-ctx.Done():
			resignCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			e.resign(resignCtx)
			cancel()
			return
		case <-ticker.C:
			e.campaign(ctx)
		}
	}
}

func (e *Election) resign(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isLeader {
		return
	}

	_, err := resignScript.Run(ctx, e.Redis, []string{leaderKey}, e.InstanceID).Result()
	if err != nil {
		e.logger.Error("failed to resign leadership", "error", err, "instance", e.InstanceID)
	} else {
		e.logger.Info("resigned leadership", "instance", e.InstanceID)
		metrics.IsLeader.Set(0)
	}

	e.isLeader = false
}
