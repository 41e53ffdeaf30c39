package engine

import "sync/atomic"

// Clock issues the strictly increasing version numbers stamped on
// every published snapshot. Readers compare versions to detect stale
// results: an asynchronous validation computed against version N is
// discarded if the element was edited at a later version.
//
// Thread-safety: atomic operations, safe for concurrent use, though
// the engine's serialized transaction path means only one goroutine
// normally calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first published
// snapshot gets version 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a specific version.
// Used by journal replay to continue a recorded session.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next version number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the latest issued version without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
