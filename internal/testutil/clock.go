// Package testutil provides deterministic helpers shared by engine,
// harness and CLI tests: pinned time sources, sequenced transaction
// tokens, and canned configurations.
package testutil

import (
	"sync"
	"time"
)

// BaseTime is the pinned instant deterministic tests start from.
// Arbitrary but fixed so golden files never churn.
var BaseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// StaticNow returns a time source frozen at t.
func StaticNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// SteppingNow returns a time source that starts at start and advances
// by step on every call. The same sequence of engine operations then
// produces the same sequence of error timestamps.
//
// Thread-safe: calls are serialized by an internal mutex.
func SteppingNow(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}
