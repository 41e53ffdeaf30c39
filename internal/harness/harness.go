// Package harness runs scripted form sessions against the real engine
// for conformance testing. A scenario YAML file names a configuration,
// a sequence of edits and action dispatches, and assertions over the
// final snapshot; the runner executes it with deterministic timestamps
// and transaction tokens so the same scenario always produces the same
// trace, which makes the results suitable for golden comparison.
package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/formic/internal/compiler"
	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/engine"
	"github.com/roach88/formic/internal/state"
	"github.com/roach88/formic/internal/testutil"
)

// Run executes a scenario whose Config path is resolved relative to
// baseDir. Returns an error only for harness-level problems (missing
// files, broken configuration); step and assertion failures are
// reported in the Result.
func Run(scenario *Scenario, baseDir string) (*Result, error) {
	if scenario.Config == "" {
		return nil, fmt.Errorf("scenario %s names no configuration", scenario.Name)
	}
	path := filepath.Join(baseDir, scenario.Config)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	cfg, cfgErrs := compiler.Compile(data)
	if len(cfgErrs) > 0 {
		return nil, fmt.Errorf("configuration invalid: %v", cfgErrs[0])
	}
	return RunWithConfig(scenario, cfg)
}

// RunWithConfig executes a scenario against an already-compiled
// configuration. Each run gets a fresh engine with deterministic
// helpers, so scenarios are isolated and repeatable.
func RunWithConfig(scenario *Scenario, cfg *config.Config) (*Result, error) {
	eng, err := engine.New(cfg,
		engine.WithNow(testutil.SteppingNow(testutil.BaseTime, time.Second)),
		engine.WithTokenGenerator(testutil.NewSequenceGenerator("txn")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}
	defer eng.Stop()

	result := NewResult()
	for i, step := range scenario.Steps {
		trace, err := executeStep(eng, step)
		result.Trace = append(result.Trace, trace)
		checkExpect(result, i, step.Expect, trace, err)
	}

	result.Final = eng.Snapshot()
	checkAssertions(result, scenario.Assertions, eng)
	return result, nil
}

func executeStep(eng *engine.Engine, step Step) (StepTrace, error) {
	switch {
	case step.Set != nil:
		trace := StepTrace{Kind: "set", Element: step.Set.Element}
		value, err := config.FromAny(step.Set.Value)
		if err != nil {
			return failTrace(trace, err), err
		}
		snap, err := eng.UpdateValue(config.ElementID(step.Set.Element), value)
		if err != nil {
			return failTrace(trace, err), err
		}
		trace.Version = snap.Version
		trace.ErrorCount = totalErrors(snap)
		return trace, nil

	case step.Action != "":
		trace := StepTrace{Kind: "action", Element: step.Action}
		res, err := eng.DispatchAction(config.ElementID(step.Action))
		if err != nil {
			return failTrace(trace, err), err
		}
		trace.Blocked = res.Blocked
		if res.Snapshot != nil {
			trace.Version = res.Snapshot.Version
			trace.ErrorCount = totalErrors(res.Snapshot)
		}
		return trace, nil

	default:
		trace := StepTrace{Kind: "validate_all"}
		snap, err := eng.ValidateAll()
		if err != nil {
			return failTrace(trace, err), err
		}
		trace.Version = snap.Version
		trace.ErrorCount = totalErrors(snap)
		return trace, nil
	}
}

func failTrace(trace StepTrace, err error) StepTrace {
	trace.Failed = true
	trace.Error = err.Error()
	return trace
}

func checkExpect(result *Result, stepIdx int, expect *ExpectClause, trace StepTrace, err error) {
	if expect == nil {
		if err != nil {
			result.AddError(fmt.Sprintf("step %d: unexpected failure: %v", stepIdx, err))
		}
		return
	}
	if expect.Error != "" {
		if err == nil {
			result.AddError(fmt.Sprintf("step %d: expected error containing %q, step succeeded", stepIdx, expect.Error))
		} else if !strings.Contains(err.Error(), expect.Error) {
			result.AddError(fmt.Sprintf("step %d: error %q does not contain %q", stepIdx, err.Error(), expect.Error))
		}
	} else if err != nil {
		result.AddError(fmt.Sprintf("step %d: unexpected failure: %v", stepIdx, err))
		return
	}
	if expect.Blocked != nil && trace.Blocked != *expect.Blocked {
		result.AddError(fmt.Sprintf("step %d: expected blocked=%t, got %t", stepIdx, *expect.Blocked, trace.Blocked))
	}
}

func totalErrors(snap *state.Snapshot) int {
	n := 0
	for _, errs := range snap.Errors {
		n += len(errs)
	}
	return n
}
