// Package cache holds the in-process TTL stores that sit in front of the
// content tree. Each process owns its own instances; nothing is shared across
// processes.
package cache

import (
	"sync"
	"time"

	"github.com/goliatone/go-writeups/pkg/interfaces"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTL is a mutex guarded map of (value, timestamp) pairs. An entry is valid
// while now-storedAt < ttl; stale entries are never returned and are replaced
// on the next Put. Size is unbounded.
type TTL[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   interfaces.Clock
	entries map[string]entry[V]
}

var _ interfaces.Cache[string] = (*TTL[string])(nil)

type Option func(*options)

type options struct {
	clock interfaces.Clock
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(clock interfaces.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func New[V any](ttl time.Duration, opts ...Option) *TTL[V] {
	cfg := options{clock: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TTL[V]{
		ttl:     ttl,
		clock:   cfg.clock,
		entries: map[string]entry[V]{},
	}
}

func (c *TTL[V]) Get(key string) (V, bool) {
	now := c.clock()
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.fresh(e, now) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTL[V]) Put(key string, value V) {
	now := c.clock()
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, storedAt: now}
	c.mu.Unlock()
}

func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *TTL[V]) Purge() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// Sweep drops stale entries and reports how many were removed. It only
// reclaims memory; Get already ignores stale entries.
func (c *TTL[V]) Sweep() int {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.entries {
		if !c.fresh(e, now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len counts stored entries, stale ones included.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TTL[V]) TTL() time.Duration { return c.ttl }

func (c *TTL[V]) fresh(e entry[V], now time.Time) bool {
	return now.Sub(e.storedAt) < c.ttl
}
