package services

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// CatalogCache keeps recently fetched store entities in memory with a fixed time-to-live.
type CatalogCache struct {
	cache *ttlcache.Cache[string, any]
}

// NewCatalogCache creates a cache and starts its expiry loop. Call [CatalogCache.Stop] to release it.
func NewCatalogCache(ttl time.Duration) *CatalogCache {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, any](ttl),
		ttlcache.WithDisableTouchOnHit[string, any](),
	)

	go cache.Start()

	return &CatalogCache{cache: cache}
}

// Len is the number of live entries.
func (c *CatalogCache) Len() int {
	return c.cache.Len()
}

// Clear drops every entry.
func (c *CatalogCache) Clear() {
	c.cache.DeleteAll()
}

// Stop ends the expiry loop.
func (c *CatalogCache) Stop() {
	c.cache.Stop()
}

func catalogKey(kind, id string) string {
	return kind + ":" + id
}

// cached returns the entry for kind/id, calling fetch and storing the result on a miss.
// A nil cache always calls fetch.
//
// Entries are stored by value and every call gets its own copy, so a caller mutating its
// result never changes what later callers see.
func cached[T any](c *CatalogCache, kind, id string, fetch func() (*T, error)) (*T, error) {
	if c == nil {
		return fetch()
	}

	key := catalogKey(kind, id)
	if item := c.cache.Get(key); item != nil {
		if v, ok := item.Value().(T); ok {
			return &v, nil
		}
	}

	v, err := fetch()
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, *v, ttlcache.DefaultTTL)
	out := *v
	return &out, nil
}
