package player

import (
	"sync"
	"time"
)

// clock is the progress clock's scheduling core: a cancellable, reschedulable
// one-shot timer guarded by a generation counter. Changing the active track
// bumps the generation, so a tick scheduled for the previous track observes a
// stale generation and does nothing instead of advancing the wrong track.
type clock struct {
	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

// reset cancels any pending tick and returns a fresh generation for the next
// schedule call.
func (c *clock) reset() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	return c.gen
}

// schedule arms a one-shot tick after d, tagged with gen. Scheduling against
// a stale generation is ignored.
func (c *clock) schedule(d time.Duration, gen uint64, fn func(gen uint64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.timer = time.AfterFunc(d, func() { fn(gen) })
}

// valid reports whether gen is still the live generation.
func (c *clock) valid(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}

// current returns the live generation.
func (c *clock) current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}
