package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	eventListKey   = "events:list"
	defaultListTTL = 30 * time.Second
)

// EventsCache is a cache-aside layer for the public event listing, the one
// read-heavy endpoint. Writes to events, tickets or inventory invalidate the
// key; a short TTL bounds staleness if an invalidation is missed.
type EventsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewEventsCache(rdb *redis.Client, ttl time.Duration) *EventsCache {
	if ttl <= 0 {
		ttl = defaultListTTL
	}
	return &EventsCache{rdb: rdb, ttl: ttl}
}

// GetList returns the cached listing payload, or ok=false on miss or error.
// Cache errors are swallowed: the caller falls back to the database.
func (c *EventsCache) GetList(ctx context.Context) ([]byte, bool) {
	payload, err := c.rdb.Get(ctx, eventListKey).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (c *EventsCache) SetList(ctx context.Context, payload []byte) {
	c.rdb.Set(ctx, eventListKey, payload, c.ttl)
}

func (c *EventsCache) Invalidate(ctx context.Context) {
	c.rdb.Del(ctx, eventListKey)
}
