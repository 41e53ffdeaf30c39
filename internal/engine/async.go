package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/state"
)

// asyncJob is one deferred custom validation, captured during a
// transaction and launched after its snapshot publishes so slow
// validators never sit on the update path.
type asyncJob struct {
	element  config.ElementID
	function string
	value    config.Value
	params   config.Object
}

// launchAsync starts each job in its own goroutine. The result is
// enqueued as an event tagged with the version the validation was
// computed against; the Run loop folds it back in, or discards it if
// the element has been edited since.
func (e *Engine) launchAsync(jobs []asyncJob, basisVersion int64) {
	for _, job := range jobs {
		fn := e.asyncValidators[job.function]
		job := job
		go func() {
			err := fn(e.asyncCtx, job.value, job.params)
			if e.asyncCtx.Err() != nil {
				return // engine stopped, result has nowhere to go
			}
			msg := ""
			if err != nil {
				msg = err.Error()
			}
			ok := e.queue.Enqueue(Event{
				Type:         EventTypeAsyncResult,
				ElementID:    job.element,
				Function:     job.function,
				BasisVersion: basisVersion,
				Failure:      err,
				Message:      msg,
			})
			if !ok {
				slog.Debug("async result dropped: queue closed",
					"element", job.element,
					"function", job.function,
				)
			}
		}()
	}
}

// applyAsyncResult folds a completed asynchronous validation into form
// state as its own transaction. A result computed against a version
// older than the element's last edit is superseded and discarded.
func (e *Engine) applyAsyncResult(ctx context.Context, event Event) error {
	e.txMu.Lock()
	defer e.txMu.Unlock()

	if e.lastEdit[event.ElementID] > event.BasisVersion {
		slog.Debug("async result superseded, discarding",
			"element", event.ElementID,
			"function", event.Function,
			"basis_version", event.BasisVersion,
			"last_edit", e.lastEdit[event.ElementID],
		)
		return nil
	}

	draft := e.store.Current().Draft()

	// Replace any previous result from this function, keep the rest
	kept := make([]state.ValidationError, 0, len(draft.ErrorsFor(event.ElementID)))
	for _, ve := range draft.ErrorsFor(event.ElementID) {
		if ve.Kind == state.KindCustomValidation && ve.Function == event.Function {
			continue
		}
		kept = append(kept, ve)
	}
	if event.Failure != nil {
		comp := e.idx.Component(event.ElementID)
		var params config.Object
		if comp != nil {
			for _, rule := range comp.Rules {
				if rule.Type == config.RuleCustom && rule.Function == event.Function {
					params = rule.Params
				}
			}
		}
		kept = append(kept, state.NewCustomValidationError(
			event.ElementID, event.Function, params, event.Message, e.now()))
	}
	draft.SetErrors(event.ElementID, kept)

	snap, err := e.publish(ctx, draft, "async", event.ElementID, nil)
	if err != nil {
		return err
	}
	slog.Debug("async result applied",
		"element", event.ElementID,
		"function", event.Function,
		"failed", event.Failure != nil,
		"version", snap.Version,
	)
	return nil
}
