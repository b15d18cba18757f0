package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	v        any
	inserted time.Time
}

// TTLCache memoizes fetch results by key. An entry is fresh while its age is below
// the TTL given at lookup time; stale entries are dropped lazily. There is no size bound.
// Concurrent misses on one key share a single fetch.
type TTLCache struct {
	mu    sync.Mutex
	m     map[string]entry
	group singleflight.Group
	now   func() time.Time
}

type Option func(*TTLCache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *TTLCache) { c.now = now }
}

func NewTTLCache(opts ...Option) *TTLCache {
	c := &TTLCache{m: make(map[string]entry), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key if it is younger than ttl.
func (c *TTLCache) Get(key string, ttl time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.inserted) >= ttl {
		delete(c.m, key)
		return nil, false
	}
	return e.v, true
}

// Set stores v under key, stamped with the current time.
func (c *TTLCache) Set(key string, v any) {
	c.SetAt(key, v, time.Time{})
}

// SetAt stores v as if it had been inserted at origin, so a value copied from
// another tier keeps aging from when it was first fetched. A zero or future
// origin means now.
func (c *TTLCache) SetAt(key string, v any, origin time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if origin.IsZero() || origin.After(now) {
		origin = now
	}
	c.m[key] = entry{v: v, inserted: origin}
}

// Len counts stored entries, fresh or not.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// GetOrFetch returns the fresh value for key, or runs fetch and stores its result.
// A fetch error is returned and nothing is stored. hit reports whether the value
// came from the cache without this call triggering a fetch.
//
// The shared fetch runs detached from any single caller's cancellation; a caller
// whose ctx ends stops waiting and gets ctx.Err().
func (c *TTLCache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch func(ctx context.Context) (any, error)) (v any, hit bool, err error) {
	return c.GetOrFetchAt(ctx, key, ttl, func(ctx context.Context) (any, time.Time, error) {
		v, err := fetch(ctx)
		return v, time.Time{}, err
	})
}

// GetOrFetchAt is GetOrFetch for fetches that also report when the value was
// originally produced. The entry expires ttl after that origin.
func (c *TTLCache) GetOrFetchAt(ctx context.Context, key string, ttl time.Duration, fetch func(ctx context.Context) (any, time.Time, error)) (v any, hit bool, err error) {
	if v, ok := c.Get(key, ttl); ok {
		return v, true, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// another flight may have filled the key between our miss and this call
		if v, ok := c.Get(key, ttl); ok {
			return v, nil
		}
		v, origin, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.SetAt(key, v, origin)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val, false, nil
	}
}

// Fetch is a typed wrapper over GetOrFetch.
func Fetch[T any](ctx context.Context, c *TTLCache, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, bool, error) {
	return FetchAt(ctx, c, key, ttl, func(ctx context.Context) (T, time.Time, error) {
		v, err := fetch(ctx)
		return v, time.Time{}, err
	})
}

// FetchAt is a typed wrapper over GetOrFetchAt.
func FetchAt[T any](ctx context.Context, c *TTLCache, key string, ttl time.Duration, fetch func(ctx context.Context) (T, time.Time, error)) (T, bool, error) {
	var zero T
	v, hit, err := c.GetOrFetchAt(ctx, key, ttl, func(ctx context.Context) (any, time.Time, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, false, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, false, fmt.Errorf("cache: key %q holds %T", key, v)
	}
	return t, hit, nil
}
