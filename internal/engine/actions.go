package engine

import (
	"log/slog"
	"strings"

	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/state"
)

// DispatchResult reports what dispatching an action did.
type DispatchResult struct {
	Action   config.Action
	Blocked  bool // submit refused because of blocking errors
	Snapshot *state.Snapshot
}

// DispatchAction executes the action declared on the origin element.
//
// Submit first revalidates every visible, enabled element and refuses
// to proceed - without invoking any collaborator - if that produced a
// blocking error (required, pattern, length, range, or cross-field) on
// a visible element. Navigate, reset, and custom actions are forwarded
// to their collaborators without engine-internal validation.
func (e *Engine) DispatchAction(origin config.ElementID) (*DispatchResult, error) {
	comp := e.idx.Component(origin)
	if comp == nil {
		return nil, NewUnknownElementError(origin)
	}
	if comp.Action == nil {
		return nil, &RuntimeError{
			Code:      ErrCodeUnknownAction,
			Message:   "element declares no action",
			ElementID: origin,
		}
	}
	action := *comp.Action

	slog.Debug("dispatching action",
		"action", action.ID,
		"kind", action.Kind,
		"origin", origin,
	)

	switch action.Kind {
	case config.ActionSubmit:
		return e.dispatchSubmit(action, origin)

	case config.ActionReset:
		snap, err := e.Reset()
		if err != nil {
			return nil, err
		}
		return &DispatchResult{Action: action, Snapshot: snap}, nil

	case config.ActionNavigate:
		if err := e.forwardNavigation(action.Target); err != nil {
			return nil, err
		}
		return &DispatchResult{Action: action, Snapshot: e.store.Current()}, nil

	case config.ActionCustom:
		if e.handler == nil {
			return nil, &RuntimeError{
				Code:      ErrCodeNoCollaborator,
				Message:   "no action handler configured",
				ElementID: origin,
			}
		}
		if err := e.handler.HandleAction(action, origin); err != nil {
			return nil, err
		}
		return &DispatchResult{Action: action, Snapshot: e.store.Current()}, nil

	default:
		return nil, &RuntimeError{
			Code:      ErrCodeUnknownAction,
			Message:   "unknown action kind " + string(action.Kind),
			ElementID: origin,
		}
	}
}

func (e *Engine) dispatchSubmit(action config.Action, origin config.ElementID) (*DispatchResult, error) {
	snap, err := e.ValidateAll()
	if err != nil {
		return nil, err
	}

	if hasBlockingErrors(snap) {
		slog.Info("submission blocked by validation errors",
			"action", action.ID,
			"origin", origin,
			"version", snap.Version,
		)
		return &DispatchResult{Action: action, Blocked: true, Snapshot: snap}, nil
	}

	// Clean submission: hand off to the outside world.
	if action.Target != "" && e.nav != nil {
		if err := e.forwardNavigation(action.Target); err != nil {
			return nil, err
		}
	} else if e.handler != nil {
		if err := e.handler.HandleAction(action, origin); err != nil {
			return nil, err
		}
	}
	return &DispatchResult{Action: action, Snapshot: snap}, nil
}

// forwardNavigation routes a navigation target to the collaborator.
// "back" and "home" are pseudo-targets; anything else is a page id.
func (e *Engine) forwardNavigation(target string) error {
	if e.nav == nil {
		return &RuntimeError{Code: ErrCodeNoCollaborator, Message: "no navigator configured"}
	}
	switch strings.ToLower(target) {
	case "back":
		return e.nav.NavigateBack()
	case "home":
		return e.nav.NavigateHome()
	default:
		return e.nav.Navigate(target)
	}
}

// hasBlockingErrors reports whether any visible, enabled element
// carries an error of a kind that gates submission.
func hasBlockingErrors(snap *state.Snapshot) bool {
	for id, errs := range snap.Errors {
		if !snap.Visible(id) || !snap.IsEnabled(id) {
			continue
		}
		for _, ve := range errs {
			if ve.Blocking() {
				return true
			}
		}
	}
	return false
}
