package cache

import (
	"context"
	"strings"
	"time"

	"github.com/flexprice/bigdata-platform/internal/config"
	goCache "github.com/patrickmn/go-cache"
)

// DefaultExpiration is the default expiration time for cache entries
const DefaultExpiration = 30 * time.Minute

// DefaultCleanupInterval is how often expired items are removed from the cache
const DefaultCleanupInterval = 10 * time.Minute

// InMemoryCache implements the Cache interface using github.com/patrickmn/go-cache
type InMemoryCache struct {
	cache *goCache.Cache
}

// NewInMemoryCache creates a new InMemoryCache instance
func NewInMemoryCache(cfg *config.Configuration) *InMemoryCache {
	cleanup := DefaultCleanupInterval
	if cfg != nil && cfg.Store.CleanupInterval > 0 {
		cleanup = cfg.Store.CleanupInterval
	}

	return &InMemoryCache{
		cache: goCache.New(DefaultExpiration, cleanup),
	}
}

// Get retrieves a value from the cache
func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.cache.Get(key)
}

// Set adds a value to the cache with the specified expiration
func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) {
	if expiration <= 0 {
		expiration = goCache.DefaultExpiration
	}
	c.cache.Set(key, value, expiration)
}

// GetByPrefix returns all unexpired items with the given prefix
func (c *InMemoryCache) GetByPrefix(_ context.Context, prefix string) map[string]interface{} {
	result := make(map[string]interface{})

	// Items already skips expired entries that the janitor has not purged yet
	for k, item := range c.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			result[k] = item.Object
		}
	}

	return result
}

// Delete removes a key from the cache
func (c *InMemoryCache) Delete(_ context.Context, key string) {
	c.cache.Delete(key)
}

// Flush removes all items from the cache
func (c *InMemoryCache) Flush(_ context.Context) {
	c.cache.Flush()
}
