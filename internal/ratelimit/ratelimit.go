// Package ratelimit counts requests per caller in fixed windows. Counters live in an
// injected Store so each server (and each test) owns its own state.
package ratelimit

import (
	"context"
	"time"
)

type Store interface {
	// Incr counts one hit for key in the window that is current at now and returns the
	// new count together with the time the window ends.
	Incr(ctx context.Context, key string, window time.Duration, now time.Time) (int64, time.Time, error)
}

// Sweeper is implemented by stores that have to evict expired windows themselves.
type Sweeper interface {
	Sweep(now time.Time) int
}

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewLimiter(store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *Limiter) Store() Store {
	return l.store
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, resetAt, err := l.store.Incr(ctx, key, l.window, l.now())
	if err != nil {
		return Decision{}, err
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
