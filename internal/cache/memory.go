package cache

import (
	"context"
	"sync"
	"time"

	"sp1assist/internal/core"
)

type entry struct {
	value     *core.Artifact
	expiresAt time.Time
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock replaces time.Now. Used by tests to simulate expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

// WithSweepTicks drives the sweeper from the given channel instead of a ticker.
func WithSweepTicks(ticks <-chan time.Time) MemoryOption {
	return func(c *MemoryCache) {
		c.ticks = ticks
	}
}

// MemoryCache is an in-process TTL map. Expired entries are dropped lazily on
// Get and by a background sweep, so write-heavy workloads cannot grow it
// without bound.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time

	ticks     <-chan time.Time
	ticker    *time.Ticker
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCache creates a memory cache and starts its sweeper.
// A negative ttl is treated as zero (entries expire immediately).
func NewMemoryCache(ttl, sweepInterval time.Duration, opts ...MemoryOption) *MemoryCache {
	if ttl < 0 {
		ttl = 0
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	c := &MemoryCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ticks == nil {
		c.ticker = time.NewTicker(sweepInterval)
		c.ticks = c.ticker.C
	}

	go c.sweepLoop()
	return c
}

// Get returns a copy of the stored artifact. An expired entry is removed.
func (c *MemoryCache) Get(_ context.Context, key string) (*core.Artifact, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.expired(e) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have refreshed the entry.
		if cur, ok := c.entries[key]; ok && c.expired(cur) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value.Clone(), true
}

// Set stores a copy of the artifact.
func (c *MemoryCache) Set(_ context.Context, key string, artifact *core.Artifact) error {
	e := entry{value: artifact.Clone(), expiresAt: c.now().Add(c.ttl)}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	return nil
}

// Size returns the number of stored entries, including expired ones the
// sweeper has not reached yet.
func (c *MemoryCache) Size(_ context.Context) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes all expired entries and returns how many were dropped.
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Close stops the sweeper and waits for it to exit. Safe to call more than once.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
		<-c.done
		if c.ticker != nil {
			c.ticker.Stop()
		}
	})
	return nil
}

func (c *MemoryCache) sweepLoop() {
	defer close(c.done)
	for {
		select {
		case <-c.stop:
			return
		case <-c.ticks:
			c.Sweep()
		}
	}
}

// expired reports whether e is past its expiry. An entry expiring exactly now
// counts as expired, so a zero TTL never serves a value.
func (c *MemoryCache) expired(e entry) bool {
	return !c.now().Before(e.expiresAt)
}
