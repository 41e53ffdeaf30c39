package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: signup-happy-path
description: Fill everything and submit.
config: registration.json
steps:
  - set:
      element: name
      value: Ada Lovelace
  - action: submitBtn
    expect:
      blocked: false
  - validateAll: true
assertions:
  - type: value
    element: name
    equals: Ada Lovelace
  - type: error_count
    count: 0
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "signup-happy-path", s.Name)
	assert.Equal(t, "registration.json", s.Config)
	require.Len(t, s.Steps, 3)
	require.NotNil(t, s.Steps[0].Set)
	assert.Equal(t, "name", s.Steps[0].Set.Element)
	assert.Equal(t, "Ada Lovelace", s.Steps[0].Set.Value)
	assert.Equal(t, "submitBtn", s.Steps[1].Action)
	require.NotNil(t, s.Steps[1].Expect)
	require.NotNil(t, s.Steps[1].Expect.Blocked)
	assert.False(t, *s.Steps[1].Expect.Blocked)
	assert.True(t, s.Steps[2].ValidateAll)
	require.Len(t, s.Assertions, 2)
	assert.Equal(t, AssertErrorCount, s.Assertions[1].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenario(t, `
name: typo-demo
steps:
  - set:
      element: name
      value: x
    expcet:
      blocked: true
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_NameRequired(t *testing.T) {
	path := writeScenario(t, `
steps:
  - validateAll: true
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadScenario_StepsRequired(t *testing.T) {
	path := writeScenario(t, `
name: empty
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one step is required")
}

func TestLoadScenario_AmbiguousStep(t *testing.T) {
	path := writeScenario(t, `
name: ambiguous
steps:
  - set:
      element: name
      value: x
    action: submitBtn
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of set, action, validateAll")
}

func TestLoadScenario_SetElementRequired(t *testing.T) {
	path := writeScenario(t, `
name: no-element
steps:
  - set:
      value: x
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set.element is required")
}

func TestLoadScenario_AssertionElementRequired(t *testing.T) {
	path := writeScenario(t, `
name: no-assert-element
steps:
  - validateAll: true
assertions:
  - type: visible
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "element is required for type visible")
}

func TestLoadScenario_UnknownAssertionType(t *testing.T) {
	path := writeScenario(t, `
name: bad-assert
steps:
  - validateAll: true
assertions:
  - type: eventually
    element: name
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown type "eventually"`)
}
