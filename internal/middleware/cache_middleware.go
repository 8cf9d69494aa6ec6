package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tikitihq/tikiti/internal/cache"
)

func CacheMiddleware(eventsCache *cache.EventsCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("events_cache", eventsCache)
		c.Next()
	}
}

func GetEventsCache(c *gin.Context) *cache.EventsCache {
	value, exists := c.Get("events_cache")
	if !exists {
		return nil
	}
	eventsCache, ok := value.(*cache.EventsCache)
	if !ok {
		return nil
	}
	return eventsCache
}
