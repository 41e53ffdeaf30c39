package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/state"
	"github.com/roach88/formic/internal/testutil"
)

const asyncDemoJSON = `{
  "id": "async-demo",
  "pages": [{"id": "p", "order": 1, "sections": [{"id": "s", "order": 1, "components": [
    {"id": "username", "type": "text", "order": 1, "rules": [
      {"type": "required"},
      {"type": "custom", "function": "remote-unique", "async": true, "params": {"table": "users"}}
    ]}
  ]}]}]
}`

func newAsyncEngine(t *testing.T, fn AsyncValidatorFunc, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{
		WithNow(testutil.StaticNow(testutil.BaseTime)),
		WithAsyncValidator("remote-unique", fn),
	}, opts...)
	eng, err := New(testutil.MustCompile(asyncDemoJSON), opts...)
	require.NoError(t, err)
	t.Cleanup(eng.Stop)
	return eng
}

// drainAsyncEvent waits for the launched validation goroutine to
// enqueue its result and returns it.
func drainAsyncEvent(t *testing.T, eng *Engine) Event {
	t.Helper()
	var event Event
	require.Eventually(t, func() bool {
		e, ok := eng.queue.TryDequeue()
		if ok {
			event = e
		}
		return ok
	}, 2*time.Second, time.Millisecond)
	return event
}

func TestUpdateValue_AsyncRule_NoImmediateError(t *testing.T) {
	eng := newAsyncEngine(t, func(context.Context, config.Value, config.Object) error {
		return errors.New("username taken")
	})

	snap, err := eng.UpdateValue("username", config.String("ada"))
	require.NoError(t, err)

	// The async result arrives as a follow-up transaction; the edit
	// itself publishes without a custom error.
	assert.Empty(t, snap.ErrorsFor("username"))
}

func TestApplyAsyncResult_FailureAppendsError(t *testing.T) {
	eng := newAsyncEngine(t, func(context.Context, config.Value, config.Object) error {
		return errors.New("username taken")
	})

	s1, err := eng.UpdateValue("username", config.String("ada"))
	require.NoError(t, err)

	event := drainAsyncEvent(t, eng)
	assert.Equal(t, EventTypeAsyncResult, event.Type)
	assert.Equal(t, config.ElementID("username"), event.ElementID)
	assert.Equal(t, "remote-unique", event.Function)
	assert.Equal(t, s1.Version, event.BasisVersion)

	require.NoError(t, eng.applyAsyncResult(context.Background(), event))

	snap := eng.Snapshot()
	assert.Greater(t, snap.Version, s1.Version)
	require.Equal(t, []state.ErrorKind{state.KindCustomValidation}, errorKinds(snap, "username"))

	ve := snap.ErrorsFor("username")[0]
	assert.Equal(t, "remote-unique", ve.Function)
	assert.Equal(t, "username taken", ve.Message)
	assert.Equal(t, config.String("users"), ve.Params["table"])
}

func TestApplyAsyncResult_SuccessClearsPreviousResult(t *testing.T) {
	eng := newAsyncEngine(t, func(context.Context, config.Value, config.Object) error {
		return nil
	})

	s1, err := eng.UpdateValue("username", config.String("ada"))
	require.NoError(t, err)
	_ = drainAsyncEvent(t, eng)

	// Seed a stale failure from the same function, then fold in a
	// passing result computed against the same basis.
	fail := Event{
		Type: EventTypeAsyncResult, ElementID: "username", Function: "remote-unique",
		BasisVersion: s1.Version, Failure: errors.New("username taken"), Message: "username taken",
	}
	require.NoError(t, eng.applyAsyncResult(context.Background(), fail))
	require.NotEmpty(t, eng.Snapshot().ErrorsFor("username"))

	pass := Event{
		Type: EventTypeAsyncResult, ElementID: "username", Function: "remote-unique",
		BasisVersion: s1.Version,
	}
	require.NoError(t, eng.applyAsyncResult(context.Background(), pass))
	assert.Empty(t, eng.Snapshot().ErrorsFor("username"))
}

func TestApplyAsyncResult_KeepsUnrelatedErrors(t *testing.T) {
	eng := newAsyncEngine(t, func(context.Context, config.Value, config.Object) error {
		return errors.New("username taken")
	})

	s1, err := eng.UpdateValue("username", config.String(""))
	require.NoError(t, err)
	require.Equal(t, []state.ErrorKind{state.KindRequired}, errorKinds(s1, "username"))
	event := drainAsyncEvent(t, eng)

	require.NoError(t, eng.applyAsyncResult(context.Background(), event))

	kinds := errorKinds(eng.Snapshot(), "username")
	assert.Equal(t, []state.ErrorKind{state.KindRequired, state.KindCustomValidation}, kinds)
}

func TestApplyAsyncResult_SupersededResultDiscarded(t *testing.T) {
	eng := newAsyncEngine(t, func(context.Context, config.Value, config.Object) error {
		return errors.New("username taken")
	})

	_, err := eng.UpdateValue("username", config.String("ada"))
	require.NoError(t, err)
	stale := drainAsyncEvent(t, eng)

	// A newer edit supersedes the in-flight validation.
	s2, err := eng.UpdateValue("username", config.String("grace"))
	require.NoError(t, err)
	_ = drainAsyncEvent(t, eng)

	require.NoError(t, eng.applyAsyncResult(context.Background(), stale))

	snap := eng.Snapshot()
	assert.Equal(t, s2.Version, snap.Version, "discarded result publishes nothing")
	assert.Empty(t, snap.ErrorsFor("username"))
}

func TestApplyAsyncResult_RecordsAsyncTransaction(t *testing.T) {
	rec := &captureRecorder{}
	eng := newAsyncEngine(t, func(context.Context, config.Value, config.Object) error {
		return errors.New("username taken")
	}, WithRecorder(rec))

	_, err := eng.UpdateValue("username", config.String("ada"))
	require.NoError(t, err)
	event := drainAsyncEvent(t, eng)
	require.NoError(t, eng.applyAsyncResult(context.Background(), event))

	txs := rec.recorded()
	require.Len(t, txs, 2)
	assert.Equal(t, "update", txs[0].Kind)
	assert.Equal(t, "async", txs[1].Kind)
	assert.Equal(t, config.ElementID("username"), txs[1].ElementID)
}

func TestUpdateValue_AsyncRule_UnregisteredValidator(t *testing.T) {
	eng, err := New(testutil.MustCompile(asyncDemoJSON),
		WithNow(testutil.StaticNow(testutil.BaseTime)))
	require.NoError(t, err)
	defer eng.Stop()

	snap, err := eng.UpdateValue("username", config.String("ada"))
	require.NoError(t, err)

	// No goroutine to wait for: the missing registration is reported
	// synchronously as a dependency error.
	require.Equal(t, []state.ErrorKind{state.KindDependency}, errorKinds(snap, "username"))
	assert.Contains(t, snap.ErrorsFor("username")[0].Message, "not registered")
	assert.Equal(t, 0, eng.queue.Len())
}
