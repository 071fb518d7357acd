package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemPendingStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemPendingStore(time.Hour)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	older := PendingRequest{RequestID: "12", Template: "WebServer", SubmittedAt: now.Add(-30 * time.Minute)}
	newer := PendingRequest{RequestID: "7", Template: "Machine", SubmittedAt: now.Add(-10 * time.Minute)}
	require.NoError(t, store.Put(ctx, newer))
	require.NoError(t, store.Put(ctx, older))

	got, err := store.Get(ctx, "12")
	require.NoError(t, err)
	assert.Equal(t, older, got)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []PendingRequest{older, newer}, list)

	require.NoError(t, store.Delete(ctx, "12"))
	_, err = store.Get(ctx, "12")
	assert.ErrorIs(t, err, ErrPendingNotFound)

	require.NoError(t, store.Delete(ctx, "does-not-exist"))
}

func TestMemPendingStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemPendingStore(time.Hour)

	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, PendingRequest{RequestID: "1", SubmittedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, store.Put(ctx, PendingRequest{RequestID: "2", SubmittedAt: now}))

	_, err := store.Get(ctx, "1")
	assert.ErrorIs(t, err, ErrPendingNotFound)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2", list[0].RequestID)
	assert.Len(t, store.entries, 1)
}

func TestMemPendingStoreWithoutTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemPendingStore(0)

	require.NoError(t, store.Put(ctx, PendingRequest{RequestID: "1", SubmittedAt: time.Now().Add(-365 * 24 * time.Hour)}))
	_, err := store.Get(ctx, "1")
	assert.NoError(t, err)
}
