package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrTypeMismatch is returned when a key holds a value of another type than the caller reads.
var ErrTypeMismatch = errors.New("query: cached value has unexpected type")

// Status is the state of a cache entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusSuccess Status = "success"
)

type entry struct {
	key       Key
	data      any
	hasData   bool
	fetchedAt time.Time
	status    Status
	err       error
	stale     bool
	gen       uint64
}

// Entry is a read-only view of a cache entry.
type Entry struct {
	Data      any
	HasData   bool
	FetchedAt time.Time
	Status    Status
	Err       error
	Stale     bool
}

// Cache holds fetched data by key. The zero value is not usable; use NewCache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	flights singleflight.Group
	now     func() time.Time
	retry   RetryPolicy
	gen     uint64 // source of entry generations; never reused
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock replaces time.Now for staleness checks.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRetry sets the retry policy for every fetch.
func WithRetry(p RetryPolicy) CacheOption {
	return func(c *Cache) { c.retry = p }
}

// NewCache returns an empty cache using DefaultRetryPolicy.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		now:     time.Now,
		retry:   DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) entryLocked(key Key) *entry {
	k := key.String()
	e, ok := c.entries[k]
	if !ok {
		c.gen++
		e = &entry{key: key, status: StatusIdle, gen: c.gen}
		c.entries[k] = e
	}
	return e
}

// Fetch returns the cached value for key when it is younger than staleTime and not
// invalidated. Otherwise it runs fn, sharing one in-flight call among concurrent callers of
// the same key. A caller whose ctx ends gets ctx.Err(); the shared fetch continues and still
// fills the cache. A failed fetch keeps the previous data.
func Fetch[T any](ctx context.Context, c *Cache, key Key, staleTime time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	k := key.String()

	c.mu.Lock()
	e := c.entryLocked(key)
	if e.hasData && !e.stale && c.now().Sub(e.fetchedAt) < staleTime {
		data := e.data
		c.mu.Unlock()
		return valueAs[T](key, data)
	}
	e.status = StatusLoading
	c.mu.Unlock()

	ch := c.flights.DoChan(k, func() (any, error) {
		c.mu.Lock()
		gen := c.entryLocked(key).gen
		c.mu.Unlock()

		v, err := Run(context.WithoutCancel(ctx), c.retry, fn)

		c.mu.Lock()
		defer c.mu.Unlock()
		e, ok := c.entries[k]
		if !ok || e.gen != gen {
			// Invalidated or cleared while in flight; the result is already outdated.
			return v, err
		}
		if err != nil {
			e.status, e.err = StatusError, err
			return v, err
		}
		e.data, e.hasData, e.fetchedAt = v, true, c.now()
		e.status, e.err, e.stale = StatusSuccess, nil, false
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		return valueAs[T](key, r.Val)
	}
}

func valueAs[T any](key Key, v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T, want %T", ErrTypeMismatch, key, v, zero)
	}
	return t, nil
}

// Invalidate marks every entry of kind (and id, when non-empty) stale. A fetch in flight for
// a matching key is detached so the next read starts a new one.
func (c *Cache) Invalidate(kind, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if e.key.matches(kind, id) {
			c.gen++
			e.stale, e.gen = true, c.gen
			c.flights.Forget(k)
		}
	}
}

// Set stores v under key as freshly fetched.
func (c *Cache) Set(key Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key)
	e.data, e.hasData, e.fetchedAt = v, true, c.now()
	e.status, e.err, e.stale = StatusSuccess, nil, false
	c.gen++
	e.gen = c.gen
}

// Peek returns the entry for key without fetching.
func (c *Cache) Peek(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Data: e.data, HasData: e.hasData, FetchedAt: e.fetchedAt,
		Status: e.status, Err: e.err, Stale: e.stale,
	}, true
}

// Clear drops every entry, e.g. after the session changes hands.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		c.flights.Forget(k)
	}
	c.entries = make(map[string]*entry)
}
