package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cryptoforge/internal/metrics"
	"cryptoforge/internal/ratelimit"
)

// RateLimitSweepJob evicts expired windows from an in-memory rate limit store. Every
// replica owns its own store, so it runs everywhere.
type RateLimitSweepJob struct {
	sweeper  ratelimit.Sweeper
	interval time.Duration
	logger   *slog.Logger
}

func NewRateLimitSweepJob(sweeper ratelimit.Sweeper, interval time.Duration, logger *slog.Logger) *RateLimitSweepJob {
	return &RateLimitSweepJob{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
}

func (j *RateLimitSweepJob) Name() string {
	return "rate_limit_sweep"
}

func (j *RateLimitSweepJob) RequiresLeadership() bool {
	return false
}

func (j *RateLimitSweepJob) Interval() time.Duration {
	return j.interval
}

func (j *RateLimitSweepJob) Run(ctx context.Context) error {
	if j.interval <= 0 {
		return fmt.Errorf("rate limit sweep interval must be positive")
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			removed := j.sweeper.Sweep(now)
			metrics.StoreOperationDuration.WithLabelValues(metrics.StoreTypeMemory, metrics.StoreOperationSweep).
				Observe(time.Since(now).Seconds())
			if removed > 0 {
				j.logger.Debug("swept rate limit windows", "removed", removed)
			}
		}
	}
}
