package testutil

import (
	"sync"
	"time"
)

// FakeClock is a manually advanced clock for tests.
//
// Unlike measure.SystemClock, FakeClock only moves when told to. This
// lets tests produce exact elapsed durations instead of asserting on
// wall-time-dependent values, and makes rendered reports byte-stable
// for golden-file comparison.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a fake clock frozen at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time without advancing it.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
//
// Monotonic by construction as long as d is non-negative.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to an absolute instant.
//
// Prefer Advance inside a single scenario to keep the monotonic property.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
