package util

import (
	"sync"
	"time"
)

// Clock provides the current time and can be swapped for a fixed clock in
// tests. Every time-dependent decision (session validity, warning thresholds,
// appointment bounds) goes through a Clock so the properties are testable.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using system time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock implements Clock with a settable instant for tests.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a FixedClock pinned to the given instant.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set pins the clock to a new instant.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
