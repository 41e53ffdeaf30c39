package engine

import (
	"sync"

	"github.com/roach88/formic/internal/config"
)

// EventType distinguishes queued event kinds.
type EventType int

const (
	// EventTypeEdit is a value edit to apply (used by the debounced
	// schedule path; direct UpdateValue calls bypass the queue).
	EventTypeEdit EventType = iota + 1
	// EventTypeAsyncResult is a completed asynchronous validation to
	// fold back into form state.
	EventTypeAsyncResult
)

// Event wraps edits and async validation results for the event queue.
type Event struct {
	Type      EventType
	ElementID config.ElementID
	Value     config.Value

	// Async result fields
	Function     string
	BasisVersion int64 // version the validation was computed against
	Failure      error // nil means the validation passed
	Message      string
}

// eventQueue is a thread-safe FIFO queue feeding the Run loop.
//
// Unbounded: debounce timers and async validators enqueue from their
// own goroutines and must never block. A channel with a one-slot
// buffer signals availability so Run can wait with context awareness.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, e)

	// Non-blocking signal; the single-slot buffer coalesces bursts
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue attempts to dequeue without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}
	e := q.events[0]

	// Zero the slot so the Value/Failure references can be collected
	q.events[0] = Event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait returns the availability signal channel for select-based
// waiting alongside context cancellation.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops further enqueues and wakes all waiters.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
