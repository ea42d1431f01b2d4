package testutil

import (
	"sync"
	"time"
)

// DeterministicClock provides a thread-safe, stepping wall clock for tests.
//
// Every call to Next returns the previous time plus step, so rows created in
// a test receive predictable DateTime defaults.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	seq   int64
}

// NewDeterministicClock creates a clock whose first Next returns start.
// A zero step defaults to one second.
func NewDeterministicClock(start time.Time, step time.Duration) *DeterministicClock {
	if step == 0 {
		step = time.Second
	}
	return &DeterministicClock{start: start.UTC(), step: step}
}

// Next advances the clock and returns the new time.
func (c *DeterministicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.seq) * c.step)
	c.seq++
	return t
}

// Current returns the most recent time handed out, or start when Next has
// not been called.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq == 0 {
		return c.start
	}
	return c.start.Add(time.Duration(c.seq-1) * c.step)
}

// Reset rewinds the clock so the next call to Next returns start.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

// DefaultFunc adapts the clock to field.DefaultFunc / field.OnUpdateFunc.
func (c *DeterministicClock) DefaultFunc() func() any {
	return func() any { return c.Next() }
}
