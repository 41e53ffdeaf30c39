package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/testutil"
)

func boolPtr(b bool) *bool { return &b }

func TestRunWithConfig_HappyPath(t *testing.T) {
	scenario := &Scenario{
		Name: "signup-happy-path",
		Steps: []Step{
			{Set: &SetStep{Element: "name", Value: "Ada Lovelace"}},
			{Set: &SetStep{Element: "email", Value: "ada@example.org"}},
			{Set: &SetStep{Element: "age", Value: 36}},
			{Set: &SetStep{Element: "password", Value: "secret123"}},
			{Set: &SetStep{Element: "confirm", Value: "secret123"}},
			{Action: "submitBtn", Expect: &ExpectClause{Blocked: boolPtr(false)}},
		},
		Assertions: []Assertion{
			{Type: AssertValue, Element: "name", Equals: "Ada Lovelace"},
			{Type: AssertVisible, Element: "guardian", Visible: boolPtr(false)},
			{Type: AssertErrors, Element: "email", Kinds: []string{}},
			{Type: AssertState, Element: "name", State: "valid"},
			{Type: AssertErrorCount, Count: 0},
		},
	}

	result, err := RunWithConfig(scenario, testutil.RegistrationConfig())
	require.NoError(t, err)

	assert.True(t, result.Pass, "failures: %v", result.Errors)
	require.Len(t, result.Trace, 6)
	assert.Equal(t, int64(2), result.Trace[0].Version)
	assert.Equal(t, int64(7), result.Trace[5].Version, "submit revalidates as its own transaction")
	assert.False(t, result.Trace[5].Blocked)
	assert.Equal(t, 0, result.Trace[5].ErrorCount)
	require.NotNil(t, result.Final)
	assert.Equal(t, int64(7), result.Final.Version)
}

func TestRunWithConfig_BlockedSubmit(t *testing.T) {
	scenario := &Scenario{
		Name: "signup-blocked",
		Steps: []Step{
			{Set: &SetStep{Element: "name", Value: "Ada Lovelace"}},
			{Action: "submitBtn", Expect: &ExpectClause{Blocked: boolPtr(true)}},
		},
		Assertions: []Assertion{
			{Type: AssertErrors, Element: "email", Kinds: []string{"REQUIRED"}},
			{Type: AssertErrors, Element: "password", Kinds: []string{"REQUIRED"}},
			{Type: AssertState, Element: "email", State: "invalid"},
		},
	}

	result, err := RunWithConfig(scenario, testutil.RegistrationConfig())
	require.NoError(t, err)

	assert.True(t, result.Pass, "failures: %v", result.Errors)
	assert.True(t, result.Trace[1].Blocked)
	assert.Positive(t, result.Trace[1].ErrorCount)
}

func TestRunWithConfig_ExpectedStepError(t *testing.T) {
	scenario := &Scenario{
		Name: "unknown-element",
		Steps: []Step{
			{
				Set:    &SetStep{Element: "ghost", Value: "x"},
				Expect: &ExpectClause{Error: "UNKNOWN_ELEMENT"},
			},
		},
	}

	result, err := RunWithConfig(scenario, testutil.RegistrationConfig())
	require.NoError(t, err)

	assert.True(t, result.Pass, "failures: %v", result.Errors)
	require.Len(t, result.Trace, 1)
	assert.True(t, result.Trace[0].Failed)
	assert.Contains(t, result.Trace[0].Error, "UNKNOWN_ELEMENT")
}

func TestRunWithConfig_UnexpectedStepError(t *testing.T) {
	scenario := &Scenario{
		Name: "unexpected-failure",
		Steps: []Step{
			{Set: &SetStep{Element: "ghost", Value: "x"}},
		},
	}

	result, err := RunWithConfig(scenario, testutil.RegistrationConfig())
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected failure")
}

func TestRunWithConfig_ExpectedErrorMissing(t *testing.T) {
	scenario := &Scenario{
		Name: "error-never-happened",
		Steps: []Step{
			{
				Set:    &SetStep{Element: "name", Value: "Ada"},
				Expect: &ExpectClause{Error: "UNKNOWN_ELEMENT"},
			},
		},
	}

	result, err := RunWithConfig(scenario, testutil.RegistrationConfig())
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "step succeeded")
}

func TestRunWithConfig_AssertionFailuresAllReported(t *testing.T) {
	scenario := &Scenario{
		Name: "all-assertions-run",
		Steps: []Step{
			{Set: &SetStep{Element: "name", Value: "Ada"}},
		},
		Assertions: []Assertion{
			{Type: AssertValue, Element: "name", Equals: "Grace"},
			{Type: AssertVisible, Element: "guardian", Visible: boolPtr(true)},
			{Type: AssertErrorCount, Count: 5},
		},
	}

	result, err := RunWithConfig(scenario, testutil.RegistrationConfig())
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 3, "a failed assertion must not short-circuit the rest")
}

func TestRunWithConfig_ValidateAllStep(t *testing.T) {
	scenario := &Scenario{
		Name: "force-validation",
		Steps: []Step{
			{ValidateAll: true},
		},
		Assertions: []Assertion{
			{Type: AssertErrors, Element: "name", Kinds: []string{"REQUIRED"}},
			{Type: AssertState, Element: "name", State: "pristine"},
		},
	}

	result, err := RunWithConfig(scenario, testutil.RegistrationConfig())
	require.NoError(t, err)

	assert.True(t, result.Pass, "failures: %v", result.Errors)
	assert.Equal(t, "validate_all", result.Trace[0].Kind)
	assert.Equal(t, 3, result.Trace[0].ErrorCount, "name, email and password are required")
}

func TestRunWithConfig_InvalidExpectedValue(t *testing.T) {
	scenario := &Scenario{
		Name: "bad-expected-value",
		Steps: []Step{
			{Set: &SetStep{Element: "name", Value: "Ada"}},
		},
		Assertions: []Assertion{
			{Type: AssertValue, Element: "name", Equals: struct{ X int }{1}},
		},
	}

	result, err := RunWithConfig(scenario, testutil.RegistrationConfig())
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "bad expected value")
}

func TestRun_ResolvesConfigRelativeToScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/mini-session.yaml")
	require.NoError(t, err)

	result, err := Run(scenario, "testdata/scenarios")
	require.NoError(t, err)

	assert.True(t, result.Pass, "failures: %v", result.Errors)
	v, ok := result.Final.Value("nickname")
	require.True(t, ok)
	assert.True(t, config.Equal(config.String("alan"), v))
}

func TestRun_MissingConfig(t *testing.T) {
	scenario := &Scenario{
		Name:   "no-config",
		Config: "does-not-exist.json",
		Steps:  []Step{{ValidateAll: true}},
	}

	_, err := Run(scenario, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read configuration")
}

func TestRun_ConfigPathRequired(t *testing.T) {
	scenario := &Scenario{
		Name:  "config-free",
		Steps: []Step{{ValidateAll: true}},
	}

	_, err := Run(scenario, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "names no configuration")
}
