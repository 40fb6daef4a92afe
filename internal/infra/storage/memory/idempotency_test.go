package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directstay/internal/app/middleware"
)

func TestIdempotencyStore_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	store := NewIdempotencyStore(24 * time.Hour)
	store.Now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "storefront.submit_draft:k1", OccurredAt: now, Payload: []byte(`{}`)}))

	now = now.Add(23 * time.Hour)
	rec, ok, err := store.Get(ctx, "storefront.submit_draft:k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{}`), rec.Payload)

	now = now.Add(time.Hour)
	_, ok, err = store.Get(ctx, "storefront.submit_draft:k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdempotencyStore_ZeroTTLKeeps(t *testing.T) {
	store := NewIdempotencyStore(0)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", OccurredAt: time.Unix(0, 1)}))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
