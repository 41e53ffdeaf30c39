package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formic/internal/config"
)

func TestEventQueue_TryDequeue_FIFO(t *testing.T) {
	q := newEventQueue()

	require.True(t, q.Enqueue(Event{Type: EventTypeEdit, ElementID: "a"}))
	require.True(t, q.Enqueue(Event{Type: EventTypeEdit, ElementID: "b"}))
	require.True(t, q.Enqueue(Event{Type: EventTypeAsyncResult, ElementID: "c"}))

	e, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, config.ElementID("a"), e.ElementID)

	e, ok = q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, config.ElementID("b"), e.ElementID)

	e, ok = q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, config.ElementID("c"), e.ElementID)
	assert.Equal(t, EventTypeAsyncResult, e.Type)

	_, ok = q.TryDequeue()
	assert.False(t, ok)
}

func TestEventQueue_TryDequeue_Empty(t *testing.T) {
	q := newEventQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestEventQueue_Enqueue_SignalsWaiter(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Event{Type: EventTypeEdit, ElementID: "a"})

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected availability signal after enqueue")
	}
}

func TestEventQueue_Enqueue_CoalescesSignals(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Event{Type: EventTypeEdit, ElementID: "a"})
	q.Enqueue(Event{Type: EventTypeEdit, ElementID: "b"})
	q.Enqueue(Event{Type: EventTypeEdit, ElementID: "c"})

	// One buffered signal regardless of burst size; events are drained
	// by length, not by signal count.
	assert.Equal(t, 3, q.Len())
	<-q.Wait()
	select {
	case <-q.Wait():
		t.Fatal("signal channel should be drained after one receive")
	default:
	}
}

func TestEventQueue_Close_RejectsEnqueue(t *testing.T) {
	q := newEventQueue()
	q.Close()

	assert.False(t, q.Enqueue(Event{Type: EventTypeEdit, ElementID: "a"}))
	assert.Equal(t, 0, q.Len())
}

func TestEventQueue_Close_Idempotent(t *testing.T) {
	q := newEventQueue()
	q.Close()
	assert.NotPanics(t, func() { q.Close() })
}

func TestEventQueue_Close_WakesWaiters(t *testing.T) {
	q := newEventQueue()
	q.Close()

	// Closed signal channel yields immediately.
	_, open := <-q.Wait()
	assert.False(t, open)
}
