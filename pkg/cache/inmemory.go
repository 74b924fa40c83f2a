package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// NoExpiration keeps an entry until it is deleted or the cache is flushed.
const NoExpiration = gocache.NoExpiration

type Cache interface {
	Set(key string, value interface{}, ttl time.Duration)
	Get(key string) (interface{}, bool)
	Delete(key string)
	Flush()
	// Do runs fn at most once at a time per key; concurrent callers share its result.
	Do(key string, fn func() (interface{}, error)) (interface{}, error)
}

type memoryCache struct {
	items  *gocache.Cache
	flight singleflight.Group
}

// NewCache returns an in-process cache. A zero ttl on Set means defaultExpiration.
func NewCache(defaultExpiration, cleanupInterval time.Duration) Cache {
	return &memoryCache{items: gocache.New(defaultExpiration, cleanupInterval)}
}

func (c *memoryCache) Set(key string, value interface{}, ttl time.Duration) {
	c.items.Set(key, value, ttl)
}

func (c *memoryCache) Get(key string) (interface{}, bool) {
	return c.items.Get(key)
}

func (c *memoryCache) Delete(key string) {
	c.items.Delete(key)
}

func (c *memoryCache) Flush() {
	c.items.Flush()
}

func (c *memoryCache) Do(key string, fn func() (interface{}, error)) (interface{}, error) {
	v, err, _ := c.flight.Do(key, fn)
	return v, err
}

// GetAs reads key from c and asserts it to T. A value of another type is a miss.
func GetAs[T any](c Cache, key string) (T, bool) {
	var zero T
	val, found := c.Get(key)
	if !found {
		return zero, false
	}
	typed, ok := val.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Remember returns the cached T under key, computing and storing it with ttl
// on a miss. Concurrent misses on one key compute once.
func Remember[T any](c Cache, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	if v, ok := GetAs[T](c, key); ok {
		return v, nil
	}

	v, err := c.Do(key, func() (interface{}, error) {
		if v, ok := GetAs[T](c, key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
