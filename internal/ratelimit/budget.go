// Package ratelimit owns the per-client request budget.
//
// A Budget hands out at most Limit requests per key inside a fixed window
// that starts with the key's first request and rolls over once Window has
// elapsed. State is process-local; running several instances multiplies the
// effective limit.
package ratelimit

import (
	"sync"
	"time"

	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

// Budget tracks request counts per key.
type Budget struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	windows map[string]*counter

	stop     chan struct{}
	stopOnce sync.Once
}

type counter struct {
	mu      sync.Mutex
	start   time.Time
	count   int
	touched time.Time
	// dead is set by Prune once the counter has left the map.
	dead bool
}

// Option customizes a Budget.
type Option func(*Budget)

// WithWindow overrides the default one-minute window.
func WithWindow(d time.Duration) Option {
	return func(b *Budget) {
		if d > 0 {
			b.window = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Budget) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBudget creates a budget of limit requests per window. A non-positive
// limit falls back to the default of 60.
func NewBudget(limit int, opts ...Option) *Budget {
	if limit <= 0 {
		limit = consts.DefaultRequestsPerMinute
	}
	b := &Budget{
		limit:   limit,
		window:  consts.RateWindow,
		now:     time.Now,
		windows: make(map[string]*counter),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Limit returns the per-window request limit.
func (b *Budget) Limit() int { return b.limit }

// CheckAndConsume records one request for key and reports whether it fits
// in the current window. Rejected requests are not counted.
func (b *Budget) CheckAndConsume(key string) bool {
	for {
		c := b.counterFor(key)
		now := b.now()

		c.mu.Lock()
		if c.dead {
			c.mu.Unlock()
			continue
		}
		allowed := c.consume(now, b.window, b.limit)
		c.mu.Unlock()
		return allowed
	}
}

// consume must be called with c.mu held.
func (c *counter) consume(now time.Time, window time.Duration, limit int) bool {
	c.touched = now
	if c.start.IsZero() || now.Sub(c.start) >= window {
		c.start = now
		c.count = 0
	}
	if c.count >= limit {
		return false
	}
	c.count++
	return true
}

// Remaining returns how many requests key may still make in its window.
func (b *Budget) Remaining(key string) int {
	b.mu.RLock()
	c, ok := b.windows[key]
	b.mu.RUnlock()
	if !ok {
		return b.limit
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.start.IsZero() || b.now().Sub(c.start) >= b.window {
		return b.limit
	}
	return b.limit - c.count
}

func (b *Budget) counterFor(key string) *counter {
	b.mu.RLock()
	c, ok := b.windows[key]
	b.mu.RUnlock()
	if ok {
		return c
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok = b.windows[key]; ok {
		return c
	}
	c = &counter{}
	b.windows[key] = c
	return c
}

// Prune drops counters whose window has fully expired. It returns the number
// of keys removed.
func (b *Budget) Prune() int {
	now := b.now()
	removed := 0

	b.mu.Lock()
	defer b.mu.Unlock()
	for key, c := range b.windows {
		c.mu.Lock()
		idle := now.Sub(c.touched) >= b.window && now.Sub(c.start) >= b.window
		if idle {
			c.dead = true
		}
		c.mu.Unlock()
		if idle {
			delete(b.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (b *Budget) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.windows)
}

// StartCleanup prunes expired counters every interval until Stop is called.
func (b *Budget) StartCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = b.window
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.Prune()
			case <-b.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (b *Budget) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
}
