package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/expr"
	"github.com/roach88/formic/internal/state"
)

// UpdateValue applies one value edit as a full transaction: write the
// value into a draft snapshot, validate the edited element, recompute
// the dependency closure, then publish the draft atomically. Readers
// see either the complete result or nothing.
//
// Returns the published snapshot, or a RuntimeError if the element is
// not defined in the configuration (in which case no state changes).
func (e *Engine) UpdateValue(id config.ElementID, v config.Value) (*state.Snapshot, error) {
	comp := e.idx.Component(id)
	if comp == nil {
		return nil, NewUnknownElementError(id)
	}

	e.txMu.Lock()
	defer e.txMu.Unlock()

	draft := e.store.Current().Draft()
	draft.Values[id] = v
	draft.MarkTouched(id)

	var jobs []asyncJob

	// Validate the edited element, then every element reachable
	// through reverse dependency edges.
	e.revalidate(draft, comp, &jobs)
	e.recomputeClosure(draft, id, &jobs)

	snap, err := e.publish(context.Background(), draft, "update", id, v)
	if err != nil {
		return nil, err
	}
	e.lastEdit[id] = snap.Version
	e.launchAsync(jobs, snap.Version)

	slog.Debug("value updated",
		"element", id,
		"version", snap.Version,
		"errors", len(snap.ErrorsFor(id)),
	)
	return snap, nil
}

// ValidateAll revalidates every currently visible, enabled element
// regardless of touched state, as submission does. Publishes the
// result as one transaction and returns the new snapshot.
func (e *Engine) ValidateAll() (*state.Snapshot, error) {
	e.txMu.Lock()
	defer e.txMu.Unlock()
	return e.validateAllLocked()
}

func (e *Engine) validateAllLocked() (*state.Snapshot, error) {
	draft := e.store.Current().Draft()
	var jobs []asyncJob

	for _, id := range e.idx.Elements() {
		comp := e.idx.Component(id)
		depErrs := e.recomputeDerived(draft, comp)
		if !draft.Visible(id) || !draft.IsEnabled(id) {
			draft.SetErrors(id, depErrs)
			continue
		}
		dataErrs := e.runRules(draft, comp, &jobs)
		draft.SetErrors(id, append(dataErrs, depErrs...))
	}

	snap, err := e.publish(context.Background(), draft, "validate_all", "", nil)
	if err != nil {
		return nil, err
	}
	e.launchAsync(jobs, snap.Version)
	return snap, nil
}

// Reset restores every element to its configured default, clears all
// errors and touched flags, and publishes the result.
func (e *Engine) Reset() (*state.Snapshot, error) {
	e.txMu.Lock()
	defer e.txMu.Unlock()

	draft := state.NewSnapshot()
	draft.Version = e.store.Current().Version
	for _, id := range e.idx.Elements() {
		comp := e.idx.Component(id)
		if comp.Default != nil {
			draft.Values[id] = comp.Default
		}
	}
	for _, id := range e.idx.Elements() {
		e.recomputeDerived(draft, e.idx.Component(id))
	}
	return e.publish(context.Background(), draft, "reset", "", nil)
}

// recomputeClosure walks the reverse dependency edges breadth-first
// from the changed element. Each element is visited at most once per
// transaction, with a hard bound of the total element count, so a
// cyclic graph (which static analysis rejects, but the engine does not
// trust its callers) still terminates.
func (e *Engine) recomputeClosure(draft *state.Snapshot, origin config.ElementID, jobs *[]asyncJob) {
	bound := e.idx.Len()
	visited := map[config.ElementID]bool{origin: true}
	queue := append([]config.ElementID(nil), e.idx.Component(origin).DependentIDs...)
	steps := 0

	for len(queue) > 0 {
		if steps > bound {
			// Unreachable with a validated configuration; guards
			// against hand-built graphs.
			slog.Error("dependency closure exceeded element count, stopping",
				"origin", origin,
				"bound", bound,
			)
			return
		}
		steps++

		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		comp := e.idx.Component(id)
		if comp == nil {
			continue
		}
		e.revalidate(draft, comp, jobs)
		queue = append(queue, comp.DependentIDs...)
	}
}

// revalidate recomputes one element's derived attributes and, when the
// element's data has been validated before (touched, or flagged by a
// validate-all pass), re-runs its rules. Untouched clean elements only
// get derived-state recomputation: validation must not conjure
// required-field errors for fields the user has never reached. A data
// error, once attached, clears only by passing the rules again or by
// the element becoming invisible - never as a side effect of a
// neighbor's edit.
func (e *Engine) revalidate(draft *state.Snapshot, comp *config.Component, jobs *[]asyncJob) {
	id := comp.ID
	depErrs := e.recomputeDerived(draft, comp)

	if !draft.Visible(id) {
		// Hidden elements are exempt from data checks; any stale data
		// errors are cleared. Dependency errors stay so the broken
		// rule remains diagnosable.
		draft.SetErrors(id, depErrs)
		return
	}

	if draft.IsTouched(id) || hasDataErrors(draft.ErrorsFor(id)) {
		dataErrs := e.runRules(draft, comp, jobs)
		draft.SetErrors(id, append(dataErrs, depErrs...))
		return
	}

	if len(draft.ErrorsFor(id)) == 0 && len(depErrs) == 0 {
		return
	}
	draft.SetErrors(id, depErrs)
}

// hasDataErrors reports whether the list contains any rule-produced
// error, as opposed to dependency diagnostics about broken expressions.
func hasDataErrors(errs []state.ValidationError) bool {
	for _, ve := range errs {
		if ve.Kind != state.KindDependency {
			return true
		}
	}
	return false
}

// recomputeDerived evaluates an element's visibility and enablement
// expressions against the draft. A failed expression falls back to the
// safe default (visible, enabled) and yields a dependency error
// attributed to this element; it never aborts the transaction.
func (e *Engine) recomputeDerived(draft *state.Snapshot, comp *config.Component) []state.ValidationError {
	var depErrs []state.ValidationError
	id := comp.ID

	if comp.VisibleWhen != nil {
		vis, err := e.eval.EvaluateBool(comp.VisibleWhen, draft)
		if err != nil {
			depErrs = append(depErrs, state.NewDependencyError(
				id, expr.Format(comp.VisibleWhen), "visibility", err, e.now()))
			vis = true
		}
		draft.Visibility[id] = vis
	} else {
		delete(draft.Visibility, id)
	}

	if comp.EnabledWhen != nil {
		en, err := e.eval.EvaluateBool(comp.EnabledWhen, draft)
		if err != nil {
			depErrs = append(depErrs, state.NewDependencyError(
				id, expr.Format(comp.EnabledWhen), "enablement", err, e.now()))
			en = true
		}
		draft.Enabled[id] = en
	} else {
		delete(draft.Enabled, id)
	}

	return depErrs
}

// runRules evaluates every validation rule the element owns against
// the draft, producing zero or more validation errors. Async custom
// rules are collected into jobs and run after the snapshot publishes.
func (e *Engine) runRules(draft *state.Snapshot, comp *config.Component, jobs *[]asyncJob) []state.ValidationError {
	var errs []state.ValidationError
	id := comp.ID
	v := draft.Values[id]
	now := e.now()

	for _, rule := range comp.Rules {
		switch rule.Type {
		case config.RuleRequired:
			if isEmptyValue(v) {
				errs = append(errs, state.NewRequiredError(id, rule.Message, now))
			}

		case config.RulePattern:
			s, ok := config.AsString(v)
			if !ok || s == "" {
				continue // empty input is the required rule's concern
			}
			re, cached := e.patterns[rule.Pattern]
			if !cached {
				errs = append(errs, state.NewValidationRuleError(id, rule.Type, rule.Pattern,
					"pattern could not be compiled", now))
				continue
			}
			if !re.MatchString(s) {
				errs = append(errs, state.NewPatternError(id, rule.Pattern, rule.Message, now))
			}

		case config.RuleLength:
			l, ok := lengthOf(v)
			if !ok || l == 0 {
				continue
			}
			if (rule.MinLength != nil && l < *rule.MinLength) ||
				(rule.MaxLength != nil && l > *rule.MaxLength) {
				errs = append(errs, state.NewLengthError(id, rule.MinLength, rule.MaxLength, rule.Message, now))
			}

		case config.RuleRange:
			if isEmptyValue(v) {
				continue
			}
			f, ok := config.AsNumber(v)
			if !ok {
				continue
			}
			if (rule.MinValue != nil && f < *rule.MinValue) ||
				(rule.MaxValue != nil && f > *rule.MaxValue) {
				errs = append(errs, state.NewRangeError(id, rule.MinValue, rule.MaxValue, rule.Message, now))
			}

		case config.RuleCrossField:
			errs = append(errs, e.runCrossFieldRule(draft, comp, rule, now)...)

		case config.RuleCustom:
			errs = append(errs, e.runCustomRule(draft, comp, rule, jobs, now)...)

		default:
			errs = append(errs, state.NewValidationRuleError(id, rule.Type, "",
				fmt.Sprintf("unsupported rule type %q", rule.Type), now))
		}
	}
	return errs
}

// runCrossFieldRule evaluates a relational rule between this element
// and its related element. An absent side means the rule cannot fail
// yet; a broken expression yields a dependency error and the rule
// passes (safe default).
func (e *Engine) runCrossFieldRule(draft *state.Snapshot, comp *config.Component, rule config.Rule, now time.Time) []state.ValidationError {
	id := comp.ID
	own := draft.Values[id]
	related := draft.Values[rule.RelatedField]

	if rule.Expression != nil {
		ok, err := e.eval.EvaluateBool(rule.Expression, draft)
		if err != nil {
			return []state.ValidationError{state.NewDependencyError(
				id, expr.Format(rule.Expression), "crossField", err, now)}
		}
		if !ok {
			return []state.ValidationError{state.NewCrossFieldError(
				id, rule.RelatedField, rule.Relation, related, rule.Message, now)}
		}
		return nil
	}

	if isEmptyValue(own) || isEmptyValue(related) {
		return nil
	}
	holds, comparable := relationHolds(rule.Relation, own, related)
	if comparable && !holds {
		return []state.ValidationError{state.NewCrossFieldError(
			id, rule.RelatedField, rule.Relation, related, rule.Message, now)}
	}
	return nil
}

// runCustomRule dispatches to a registered validation function.
// Synchronous validators run inline; asynchronous ones are deferred to
// after publish. An unregistered or panicking function produces a
// dependency error plus a failing custom error: the rule "fails safe"
// without blocking submission.
func (e *Engine) runCustomRule(draft *state.Snapshot, comp *config.Component, rule config.Rule, jobs *[]asyncJob, now time.Time) (errs []state.ValidationError) {
	id := comp.ID
	v := draft.Values[id]

	if rule.Async {
		if _, ok := e.asyncValidators[rule.Function]; !ok {
			return []state.ValidationError{state.NewDependencyError(
				id, rule.Function, "custom", fmt.Errorf("async validator %q not registered", rule.Function), now)}
		}
		*jobs = append(*jobs, asyncJob{element: id, function: rule.Function, value: v, params: rule.Params})
		return nil
	}

	fn, ok := e.validators[rule.Function]
	if !ok {
		return []state.ValidationError{
			state.NewDependencyError(id, rule.Function, "custom",
				fmt.Errorf("validator %q not registered", rule.Function), now),
			state.NewCustomValidationError(id, rule.Function, rule.Params, "", now),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			errs = []state.ValidationError{
				state.NewDependencyError(id, rule.Function, "custom",
					fmt.Errorf("validator panicked: %v", r), now),
				state.NewCustomValidationError(id, rule.Function, rule.Params, "", now),
			}
		}
	}()

	if err := fn(v, rule.Params); err != nil {
		return []state.ValidationError{state.NewCustomValidationError(
			id, rule.Function, rule.Params, err.Error(), now)}
	}
	return nil
}

// publish assigns the next version, publishes the draft, and records
// the transaction in the journal if one is attached.
func (e *Engine) publish(ctx context.Context, draft *state.Snapshot, kind string, id config.ElementID, v config.Value) (*state.Snapshot, error) {
	draft.Version = e.clock.Next()
	if err := e.store.Publish(draft); err != nil {
		return nil, fmt.Errorf("publish transaction: %w", err)
	}

	if e.recorder != nil {
		tx := Transaction{
			Token:      e.tokenGen.Generate(),
			Version:    draft.Version,
			Kind:       kind,
			ElementID:  id,
			Value:      v,
			ErrorCount: len(draft.Errors),
			ConfigHash: e.hash,
		}
		if err := e.recorder.Record(ctx, tx); err != nil {
			// Journal failures are logged, not propagated: the form
			// stays usable even if the audit trail is broken.
			slog.Error("journal record failed",
				"error", err,
				"version", tx.Version,
				"kind", kind,
			)
		}
	}
	return draft, nil
}

// relationHolds applies a relation between two values. eq/neq work on
// any comparable values; the ordering relations require both sides to
// coerce to numbers, otherwise the pair is reported as not comparable.
func relationHolds(rel config.Relation, own, related config.Value) (holds, comparable bool) {
	switch rel {
	case config.RelationEq:
		return config.Equal(own, related), true
	case config.RelationNeq:
		return !config.Equal(own, related), true
	}
	a, aok := config.AsNumber(own)
	b, bok := config.AsNumber(related)
	if !aok || !bok {
		return false, false
	}
	switch rel {
	case config.RelationGt:
		return a > b, true
	case config.RelationLt:
		return a < b, true
	case config.RelationGte:
		return a >= b, true
	case config.RelationLte:
		return a <= b, true
	}
	return false, false
}

// isEmptyValue reports whether a value counts as missing for the
// required rule: absent, null, or an empty string/collection. Zero and
// false are real values.
func isEmptyValue(v config.Value) bool {
	switch val := v.(type) {
	case nil, config.Null:
		return true
	case config.String:
		return val == ""
	case config.List:
		return len(val) == 0
	case config.Object:
		return len(val) == 0
	default:
		return false
	}
}

// lengthOf returns the measurable length of a value: rune count for
// strings, element count for lists.
func lengthOf(v config.Value) (int, bool) {
	switch val := v.(type) {
	case config.String:
		return utf8.RuneCountInString(string(val)), true
	case config.List:
		return len(val), true
	default:
		return 0, false
	}
}
