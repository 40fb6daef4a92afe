package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainavailability "directstay/internal/domain/availability"
	domainproperties "directstay/internal/domain/properties"
	"directstay/internal/domain/shared/daterange"
)

type countingPort struct {
	calls int
	snap  domainavailability.Snapshot
	err   error
}

func (p *countingPort) PropertyAvailability(context.Context, domainproperties.PropertyID) (domainavailability.Snapshot, error) {
	p.calls++
	return p.snap, p.err
}

type countingObserver map[string]int

func (o countingObserver) ObserveCache(_ string, event string) { o[event]++ }

func setup(t *testing.T) (*miniredis.Miniredis, *countingPort, countingObserver, *AvailabilityCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	port := &countingPort{snap: domainavailability.Snapshot{
		ConfirmedBookings: []daterange.Inclusive{{Start: daterange.MustDay("2025-04-05"), End: daterange.MustDay("2025-04-12")}},
		ManualBlocks:      []daterange.Inclusive{},
	}}
	obs := countingObserver{}
	cache := NewAvailabilityCache(NewClient(mr.Addr(), "", 0), port, time.Minute, obs, nil)
	return mr, port, obs, cache
}

func TestAvailabilityCache_HitAfterMiss(t *testing.T) {
	mr, port, obs, cache := setup(t)
	ctx := context.Background()

	first, err := cache.PropertyAvailability(ctx, "villa")
	require.NoError(t, err)
	second, err := cache.PropertyAvailability(ctx, "villa")
	require.NoError(t, err)

	assert.Equal(t, 1, port.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, obs["miss"])
	assert.Equal(t, 1, obs["hit"])
	assert.True(t, mr.Exists("directstay:availability:villa"))
	assert.Equal(t, time.Minute, mr.TTL("directstay:availability:villa"))
}

func TestAvailabilityCache_EvictForcesReload(t *testing.T) {
	_, port, _, cache := setup(t)
	ctx := context.Background()

	_, err := cache.PropertyAvailability(ctx, "villa")
	require.NoError(t, err)
	require.NoError(t, cache.Evict(ctx, "villa"))
	_, err = cache.PropertyAvailability(ctx, "villa")
	require.NoError(t, err)
	assert.Equal(t, 2, port.calls)
}

func TestAvailabilityCache_ExpiresWithTTL(t *testing.T) {
	mr, port, _, cache := setup(t)
	ctx := context.Background()

	_, err := cache.PropertyAvailability(ctx, "villa")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = cache.PropertyAvailability(ctx, "villa")
	require.NoError(t, err)
	assert.Equal(t, 2, port.calls)
}

func TestAvailabilityCache_BackendErrorNotCached(t *testing.T) {
	mr, port, _, cache := setup(t)
	port.err = errors.New("backend down")

	_, err := cache.PropertyAvailability(context.Background(), "villa")
	assert.Error(t, err)
	assert.False(t, mr.Exists("directstay:availability:villa"))
}

func TestAvailabilityCache_RedisDownFallsThrough(t *testing.T) {
	mr, port, _, cache := setup(t)
	mr.Close()

	snap, err := cache.PropertyAvailability(context.Background(), "villa")
	require.NoError(t, err)
	assert.Equal(t, port.snap, snap)
	assert.Error(t, cache.Ping(context.Background()))
}

func TestAvailabilityCache_CorruptEntryReloaded(t *testing.T) {
	mr, port, _, cache := setup(t)
	require.NoError(t, mr.Set("directstay:availability:villa", "{not json"))

	_, err := cache.PropertyAvailability(context.Background(), "villa")
	require.NoError(t, err)
	assert.Equal(t, 1, port.calls)
}
