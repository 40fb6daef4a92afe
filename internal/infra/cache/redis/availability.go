// Package redis caches backend availability snapshots per property.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"directstay/internal/app/policies"
	domainavailability "directstay/internal/domain/availability"
	domainproperties "directstay/internal/domain/properties"
)

// CacheObserver counts cache events: hit, miss, set or del.
type CacheObserver interface {
	ObserveCache(cache, event string)
}

// AvailabilityCache sits in front of the backend's availability endpoint.
// Redis failures fall through to the backend.
type AvailabilityCache struct {
	client   goredis.UniversalClient
	next     policies.AvailabilityPort
	ttl      time.Duration
	observer CacheObserver
	logger   *slog.Logger
}

var _ policies.AvailabilityPort = (*AvailabilityCache)(nil)

func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
}

func NewAvailabilityCache(client goredis.UniversalClient, next policies.AvailabilityPort, ttl time.Duration, observer CacheObserver, logger *slog.Logger) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AvailabilityCache{client: client, next: next, ttl: ttl, observer: observer, logger: logger}
}

func (c *AvailabilityCache) PropertyAvailability(ctx context.Context, id domainproperties.PropertyID) (domainavailability.Snapshot, error) {
	raw, err := c.client.Get(ctx, availabilityKey(id)).Bytes()
	switch {
	case err == nil:
		var snap domainavailability.Snapshot
		if jerr := json.Unmarshal(raw, &snap); jerr == nil {
			c.observe("hit")
			return snap, nil
		}
		c.logger.Warn("discarding unreadable availability cache entry", "property_id", id)
	case errors.Is(err, goredis.Nil):
		c.observe("miss")
	default:
		c.logger.Warn("availability cache read failed", "property_id", id, "err", err)
	}

	snap, err := c.next.PropertyAvailability(ctx, id)
	if err != nil {
		return domainavailability.Snapshot{}, err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return snap, nil
	}
	if err := c.client.Set(ctx, availabilityKey(id), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("availability cache write failed", "property_id", id, "err", err)
		return snap, nil
	}
	c.observe("set")
	return snap, nil
}

// Evict drops the cached snapshot of a property.
func (c *AvailabilityCache) Evict(ctx context.Context, id domainproperties.PropertyID) error {
	c.observe("del")
	return c.client.Del(ctx, availabilityKey(id)).Err()
}

// Ping reports whether redis answers.
func (c *AvailabilityCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *AvailabilityCache) observe(event string) {
	if c.observer != nil {
		c.observer.ObserveCache("availability", event)
	}
}

func availabilityKey(id domainproperties.PropertyID) string {
	return "directstay:availability:" + string(id)
}
