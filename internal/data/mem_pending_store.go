package data

import (
	"context"
	"sort"
	"sync"
	"time"

	"cryptoforge/internal/metrics"
)

type MemPendingStore struct {
	entries map[string]PendingRequest
	ttl     time.Duration
	now     func() time.Time
	mutex   sync.RWMutex
}

func NewMemPendingStore(ttl time.Duration) *MemPendingStore {
	return &MemPendingStore{
		entries: make(map[string]PendingRequest),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemPendingStore) Put(_ context.Context, req PendingRequest) error {
	start := time.Now()
	defer observe(metrics.StoreTypeMemory, metrics.StoreOperationPut, start)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.entries[req.RequestID] = req
	metrics.PendingRequests.Set(float64(len(m.entries)))
	return nil
}

func (m *MemPendingStore) Get(_ context.Context, requestID string) (PendingRequest, error) {
	start := time.Now()
	defer observe(metrics.StoreTypeMemory, metrics.StoreOperationGet, start)

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	req, ok := m.entries[requestID]
	if !ok || m.expired(req) {
		return PendingRequest{}, ErrPendingNotFound
	}
	return req, nil
}

// List returns live entries oldest first and drops expired ones.
func (m *MemPendingStore) List(_ context.Context) ([]PendingRequest, error) {
	start := time.Now()
	defer observe(metrics.StoreTypeMemory, metrics.StoreOperationList, start)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	out := make([]PendingRequest, 0, len(m.entries))
	for id, req := range m.entries {
		if m.expired(req) {
			delete(m.entries, id)
			continue
		}
		out = append(out, req)
	}
	metrics.PendingRequests.Set(float64(len(m.entries)))

	sortPending(out)
	return out, nil
}

func (m *MemPendingStore) Delete(_ context.Context, requestID string) error {
	start := time.Now()
	defer observe(metrics.StoreTypeMemory, metrics.StoreOperationDelete, start)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.entries, requestID)
	metrics.PendingRequests.Set(float64(len(m.entries)))
	return nil
}

func (m *MemPendingStore) expired(req PendingRequest) bool {
	return m.ttl > 0 && m.now().Sub(req.SubmittedAt) > m.ttl
}

func sortPending(reqs []PendingRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].SubmittedAt.Equal(reqs[j].SubmittedAt) {
			return reqs[i].RequestID < reqs[j].RequestID
		}
		return reqs[i].SubmittedAt.Before(reqs[j].SubmittedAt)
	})
}

func observe(store, op string, start time.Time) {
	metrics.StoreOperationDuration.WithLabelValues(store, op).Observe(time.Since(start).Seconds())
}
