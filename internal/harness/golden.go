package harness

import (
	"fmt"
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/formic/internal/config"
)

// StateSnapshot is the canonical form of a scenario's outcome, built
// for golden comparison. Timestamps are omitted; everything else the
// runner produces is deterministic.
type StateSnapshot struct {
	Scenario string
	Result   *Result
}

// toCanonical converts the snapshot to a plain map that canonical JSON
// serialization accepts. Only non-default entries appear: values that
// were set, visibility and enablement that an expression turned off,
// elements carrying errors.
func (s *StateSnapshot) toCanonical() map[string]any {
	final := s.Result.Final

	values := map[string]any{}
	for id, v := range final.Values {
		values[string(id)] = config.ToAny(v)
	}
	visibility := map[string]any{}
	for id, v := range final.Visibility {
		visibility[string(id)] = v
	}
	enabled := map[string]any{}
	for id, v := range final.Enabled {
		enabled[string(id)] = v
	}
	errors := map[string]any{}
	for id, errs := range final.Errors {
		list := make([]any, len(errs))
		for i, e := range errs {
			list[i] = map[string]any{
				"kind":    string(e.Kind),
				"message": e.Message,
			}
		}
		errors[string(id)] = list
	}
	var touched []string
	for id, v := range final.Touched {
		if v {
			touched = append(touched, string(id))
		}
	}
	sort.Strings(touched)
	touchedList := make([]any, len(touched))
	for i, id := range touched {
		touchedList[i] = id
	}

	trace := make([]any, len(s.Result.Trace))
	for i, step := range s.Result.Trace {
		m := map[string]any{
			"kind":        step.Kind,
			"version":     step.Version,
			"error_count": step.ErrorCount,
		}
		if step.Element != "" {
			m["element"] = step.Element
		}
		if step.Blocked {
			m["blocked"] = true
		}
		if step.Failed {
			m["failed"] = true
			m["error"] = step.Error
		}
		trace[i] = m
	}

	return map[string]any{
		"scenario":   s.Scenario,
		"version":    final.Version,
		"values":     values,
		"visibility": visibility,
		"enabled":    enabled,
		"errors":     errors,
		"touched":    touchedList,
		"trace":      trace,
	}
}

// RunWithGolden executes a scenario and compares the canonical outcome
// against testdata/golden/{scenario.Name}.golden.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, baseDir string) error {
	t.Helper()

	result, err := Run(scenario, baseDir)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already-obtained result against the
// scenario's golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := StateSnapshot{Scenario: scenarioName, Result: result}
	val, err := config.FromAny(snapshot.toCanonical())
	if err != nil {
		return fmt.Errorf("failed to canonicalize result: %w", err)
	}
	data, err := config.MarshalCanonical(val)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
