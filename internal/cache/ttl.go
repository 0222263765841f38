package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// FetchFunc materializes a fresh value.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// TTL holds one value that stays valid for a fixed duration after it was
// fetched. Reads never block on a refresh in progress and always see a
// complete snapshot; refreshes are serialized.
type TTL[T any] struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	current atomic.Pointer[entry[T]]
}

// NewTTL creates an empty cache. A non-positive ttl disables caching.
func NewTTL[T any](ttl time.Duration) *TTL[T] {
	return &TTL[T]{ttl: ttl, now: time.Now}
}

// Get returns the cached value and the time it was fetched, if still fresh.
func (c *TTL[T]) Get() (T, time.Time, bool) {
	e := c.current.Load()
	if e == nil || !c.fresh(e) {
		var zero T
		return zero, time.Time{}, false
	}
	return e.value, e.fetchedAt, true
}

// GetOrRefresh returns the cached value while it is fresh. Otherwise it calls
// fetch once, even with concurrent callers, and stores the result. Failed
// fetches are not cached.
func (c *TTL[T]) GetOrRefresh(ctx context.Context, fetch FetchFunc[T]) (T, time.Time, error) {
	if v, at, ok := c.Get(); ok {
		return v, at, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refreshed while we waited.
	if v, at, ok := c.Get(); ok {
		return v, at, nil
	}

	return c.refreshLocked(ctx, fetch)
}

// Refresh fetches unconditionally and replaces the cached value on success.
func (c *TTL[T]) Refresh(ctx context.Context, fetch FetchFunc[T]) (T, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx, fetch)
}

// Invalidate drops the cached value so the next read fetches again.
func (c *TTL[T]) Invalidate() {
	c.current.Store(nil)
}

func (c *TTL[T]) refreshLocked(ctx context.Context, fetch FetchFunc[T]) (T, time.Time, error) {
	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, time.Time{}, err
	}

	e := &entry[T]{value: value, fetchedAt: c.now()}
	c.current.Store(e)
	return e.value, e.fetchedAt, nil
}

func (c *TTL[T]) fresh(e *entry[T]) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(e.fetchedAt) < c.ttl
}
