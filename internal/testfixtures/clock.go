package testfixtures

import (
	"sync"
	"time"
)

// Clock is a frozen time source for tests. It only moves when Set or Advance
// is called, which makes code expiry and timestamp assertions deterministic.
type Clock struct {
	mu sync.Mutex
	at time.Time
}

// NewClock returns a clock frozen at start, or at ReferenceTime when start is
// the zero value.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{at: start}
}

// Now reports the frozen instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

// NowFunc adapts the clock to the `now func() time.Time` dependency the
// services take. A nil clock falls back to the real time.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set freezes the clock at t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.at = t
	c.mu.Unlock()
}

// Advance moves the frozen instant forward by d and returns the new value.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
	return c.at
}
