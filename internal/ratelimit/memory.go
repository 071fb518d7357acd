package ratelimit

import (
	"context"
	"sync"
	"time"

	"cryptoforge/internal/metrics"
)

type counter struct {
	count   int64
	resetAt time.Time
}

type MemoryStore struct {
	counters map[string]*counter
	mutex    sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]*counter)}
}

func (m *MemoryStore) Incr(_ context.Context, key string, window time.Duration, now time.Time) (int64, time.Time, error) {
	start := time.Now()
	defer func() {
		metrics.StoreOperationDuration.WithLabelValues(metrics.StoreTypeMemory, metrics.StoreOperationIncr).Observe(time.Since(start).Seconds())
	}()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	c, ok := m.counters[key]
	if !ok || !now.Before(c.resetAt) {
		c = &counter{resetAt: now.Add(window)}
		m.counters[key] = c
	}
	c.count++
	return c.count, c.resetAt, nil
}

// Sweep drops windows that ended before now and returns how many were removed.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	removed := 0
	for key, c := range m.counters {
		if !now.Before(c.resetAt) {
			delete(m.counters, key)
			removed++
		}
	}
	return removed
}

func (m *MemoryStore) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.counters)
}
