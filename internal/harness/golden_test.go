package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/state"
)

func TestStateSnapshot_ToCanonical(t *testing.T) {
	final := state.NewSnapshot()
	final.Version = 3
	final.Values["nickname"] = config.String("alan")
	final.Visibility["extras"] = false
	final.MarkTouched("nickname")
	final.SetErrors("email", []state.ValidationError{
		{Kind: state.KindRequired, ElementID: "email", Message: "value is required"},
	})

	result := NewResult()
	result.Trace = []StepTrace{
		{Kind: "set", Element: "nickname", Version: 2, ErrorCount: 1},
		{Kind: "action", Element: "submitBtn", Version: 3, ErrorCount: 1, Blocked: true},
	}
	result.Final = final

	snapshot := StateSnapshot{Scenario: "demo", Result: result}
	got := snapshot.toCanonical()

	assert.Equal(t, "demo", got["scenario"])
	assert.Equal(t, int64(3), got["version"])
	assert.Equal(t, map[string]any{"nickname": "alan"}, got["values"])
	assert.Equal(t, map[string]any{"extras": false}, got["visibility"])
	assert.Equal(t, map[string]any{}, got["enabled"])
	assert.Equal(t, []any{"nickname"}, got["touched"])
	assert.Equal(t, map[string]any{
		"email": []any{map[string]any{"kind": "REQUIRED", "message": "value is required"}},
	}, got["errors"])

	trace, ok := got["trace"].([]any)
	require.True(t, ok)
	require.Len(t, trace, 2)
	assert.Equal(t, map[string]any{
		"kind": "set", "element": "nickname", "version": int64(2), "error_count": 1,
	}, trace[0])
	assert.Equal(t, map[string]any{
		"kind": "action", "element": "submitBtn", "version": int64(3), "error_count": 1, "blocked": true,
	}, trace[1])
}

func TestStateSnapshot_ToCanonical_OmitsTimestamps(t *testing.T) {
	final := state.NewSnapshot()
	final.SetErrors("email", []state.ValidationError{
		{Kind: state.KindPattern, ElementID: "email", Message: "not an email address"},
	})

	result := NewResult()
	result.Final = final
	snapshot := StateSnapshot{Scenario: "demo", Result: result}

	errs := snapshot.toCanonical()["errors"].(map[string]any)
	entry := errs["email"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"kind": "PATTERN", "message": "not an email address"}, entry)
}

func TestRunWithGolden_MiniSession(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/mini-session.yaml")
	require.NoError(t, err)

	require.NoError(t, RunWithGolden(t, scenario, "testdata/scenarios"))
}
