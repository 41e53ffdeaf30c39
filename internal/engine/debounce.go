package engine

import (
	"sync"
	"time"

	"github.com/roach88/formic/internal/config"
)

// debouncer coalesces rapid repeated edits to the same element.
// Each element holds at most one pending timer; a new edit replaces
// the pending value and restarts the window, so only the final value
// of a burst reaches validation.
type debouncer struct {
	mu     sync.Mutex
	queue  *eventQueue
	timers map[config.ElementID]*time.Timer
}

func newDebouncer(q *eventQueue) *debouncer {
	return &debouncer{
		queue:  q,
		timers: make(map[config.ElementID]*time.Timer),
	}
}

// schedule enqueues an edit after the element's debounce window.
// A zero delay enqueues immediately.
func (d *debouncer) schedule(id config.ElementID, v config.Value, delay time.Duration) {
	if delay <= 0 {
		d.queue.Enqueue(Event{Type: EventTypeEdit, ElementID: id, Value: v})
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[id]; ok {
		t.Stop()
	}
	d.timers[id] = time.AfterFunc(delay, func() {
		d.mu.Lock()
		delete(d.timers, id)
		d.mu.Unlock()
		d.queue.Enqueue(Event{Type: EventTypeEdit, ElementID: id, Value: v})
	})
}

// stopAll cancels every pending timer. Edits still in their window are
// dropped; the engine is shutting down.
func (d *debouncer) stopAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
}
