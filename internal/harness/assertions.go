package harness

import (
	"fmt"

	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/engine"
	"github.com/roach88/formic/internal/state"
)

// checkAssertions evaluates every assertion against the final snapshot
// and records failures on the result. All assertions run; a failure
// does not short-circuit the rest.
func checkAssertions(result *Result, assertions []Assertion, eng *engine.Engine) {
	snap := result.Final
	for i, a := range assertions {
		id := config.ElementID(a.Element)
		switch a.Type {
		case AssertValue:
			checkValue(result, i, snap, id, a.Equals)

		case AssertVisible:
			want := true
			if a.Visible != nil {
				want = *a.Visible
			}
			if got := snap.Visible(id); got != want {
				result.AddError(fmt.Sprintf("assertion %d: %s visibility = %t, want %t", i, id, got, want))
			}

		case AssertEnabled:
			want := true
			if a.Enabled != nil {
				want = *a.Enabled
			}
			if got := snap.IsEnabled(id); got != want {
				result.AddError(fmt.Sprintf("assertion %d: %s enabled = %t, want %t", i, id, got, want))
			}

		case AssertErrors:
			checkErrorKinds(result, i, snap, id, a.Kinds)

		case AssertState:
			if got := string(snap.StateOf(id)); got != a.State {
				result.AddError(fmt.Sprintf("assertion %d: %s state = %s, want %s", i, id, got, a.State))
			}

		case AssertErrorCount:
			if got := totalErrors(snap); got != a.Count {
				result.AddError(fmt.Sprintf("assertion %d: total error count = %d, want %d", i, got, a.Count))
			}
		}
	}
}

func checkValue(result *Result, i int, snap *state.Snapshot, id config.ElementID, rawWant any) {
	want, err := config.FromAny(rawWant)
	if err != nil {
		result.AddError(fmt.Sprintf("assertion %d: bad expected value: %v", i, err))
		return
	}
	got, ok := snap.Value(id)
	if !ok {
		if _, isNull := want.(config.Null); isNull || rawWant == nil {
			return // absent matches an expected null
		}
		result.AddError(fmt.Sprintf("assertion %d: %s has no value, want %v", i, id, rawWant))
		return
	}
	if !config.Equal(got, want) {
		result.AddError(fmt.Sprintf("assertion %d: %s = %v, want %v", i, id, config.ToAny(got), rawWant))
	}
}

func checkErrorKinds(result *Result, i int, snap *state.Snapshot, id config.ElementID, wantKinds []string) {
	errs := snap.ErrorsFor(id)
	if len(errs) != len(wantKinds) {
		result.AddError(fmt.Sprintf("assertion %d: %s has %d error(s), want %d (%v)", i, id, len(errs), len(wantKinds), kinds(errs)))
		return
	}
	for j, want := range wantKinds {
		if string(errs[j].Kind) != want {
			result.AddError(fmt.Sprintf("assertion %d: %s error[%d] kind = %s, want %s", i, id, j, errs[j].Kind, want))
		}
	}
}

func kinds(errs []state.ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = string(e.Kind)
	}
	return out
}
