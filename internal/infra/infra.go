// Package infra provides shared infrastructure used by the market-data
// source: a TTL cache with single-flight loading and request throttling.
package infra

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// --- In-memory TTL cache ---

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a thread-safe in-memory cache with TTL. Concurrent loads of the
// same key through GetOrLoad share a single call to the loader. Expired
// entries are dropped when read and swept at most once per TTL on write.
type Cache[V any] struct {
	mu          sync.RWMutex
	entries     map[string]cacheEntry[V]
	ttl         time.Duration
	loadTimeout time.Duration
	nextSweep   time.Time
	group       singleflight.Group
	now         func() time.Time
}

// NewCache creates a cache with the given TTL. A non-positive TTL disables
// caching: Set is a no-op and every GetOrLoad calls the loader. A positive
// loadTimeout bounds each shared load.
func NewCache[V any](ttl, loadTimeout time.Duration) *Cache[V] {
	return &Cache[V]{
		entries:     make(map[string]cacheEntry[V]),
		ttl:         ttl,
		loadTimeout: loadTimeout,
		now:         time.Now,
	}
}

// Get retrieves a value. Returns the zero value and false if absent or
// expired; an expired entry is removed.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if now := c.now(); now.After(entry.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && now.After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return entry.value, true
}

// Set stores a value with the cache TTL.
func (c *Cache[V]) Set(key string, value V) {
	if c.ttl <= 0 {
		return
	}
	now := c.now()
	c.mu.Lock()
	if !now.Before(c.nextSweep) {
		c.sweepLocked(now)
		c.nextSweep = now.Add(c.ttl)
	}
	c.entries[key] = cacheEntry[V]{value: value, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
}

// GetOrLoad returns the cached value for key, or calls load once for all
// concurrent callers and caches a successful result. The bool reports a
// cache hit.
//
// The loader runs on a context detached from any single caller, so one
// caller giving up does not fail the others waiting on the same key; it is
// bounded by the cache's load timeout instead. Each caller still returns
// early with its own ctx error.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		lctx := context.WithoutCancel(ctx)
		if c.loadTimeout > 0 {
			var cancel context.CancelFunc
			lctx, cancel = context.WithTimeout(lctx, c.loadTimeout)
			defer cancel()
		}
		v, err := load(lctx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})
	select {
	case res := <-ch:
		v, _ := res.Val.(V)
		return v, false, res.Err
	case <-ctx.Done():
		var zero V
		return zero, false, ctx.Err()
	}
}

// Len returns the number of stored entries, expired ones not yet swept
// included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[V]) sweepLocked(now time.Time) {
	for k, v := range c.entries {
		if now.After(v.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// --- Rate limiting ---

// Throttle limits outbound requests to a steady rate. A nil *Throttle never
// blocks.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle allows perSecond requests per second with a burst of one
// second's worth. A non-positive rate returns nil (unlimited).
func NewThrottle(perSecond float64) *Throttle {
	if perSecond <= 0 {
		return nil
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a request may proceed or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return ctx.Err()
	}
	return t.limiter.Wait(ctx)
}
