package sim

import (
	"sync"
	"time"
)

// Clock implements bridge.Clock over simulated time: Sleep advances the
// clock instead of blocking, and an optional hook observes every
// advance, which lets tests script waveforms against elapsed time.
type Clock struct {
	mu        sync.Mutex
	now       time.Time
	onAdvance func(now time.Time)
}

// NewClock returns a simulated clock starting at an arbitrary epoch.
func NewClock() *Clock {
	return &Clock{now: time.Unix(0, 0)}
}

// OnAdvance installs a hook called after every Sleep with the new time.
func (c *Clock) OnAdvance(f func(now time.Time)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAdvance = f
}

// Now implements bridge.Clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep implements bridge.Clock by advancing simulated time.
func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	f := c.onAdvance
	c.mu.Unlock()
	if f != nil {
		f(now)
	}
}

// Elapsed returns the simulated time since the epoch.
func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Sub(time.Unix(0, 0))
}
