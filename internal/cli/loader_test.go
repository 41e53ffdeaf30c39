package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formic/internal/compiler"
	"github.com/roach88/formic/internal/testutil"
)

func writeConfig(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfig(t, testutil.RegistrationJSON())

	result, errs := LoadConfig(path)
	require.Empty(t, errs)
	require.NotNil(t, result)
	assert.Equal(t, "registration", result.Config.ID)
	assert.Equal(t, testutil.RegistrationJSON(), result.Raw)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	result, errs := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Nil(t, result)
	require.Len(t, errs, 1)

	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeNotFound, le.Code)
	assert.Contains(t, le.Message, "not found")
}

func TestLoadConfig_MalformedJSON(t *testing.T) {
	path := writeConfig(t, []byte(`{"id": "broken",`))

	result, errs := LoadConfig(path)
	assert.Nil(t, result)
	require.NotEmpty(t, errs)

	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeSchema, le.Code)
}

func TestLoadConfig_SchemaViolation(t *testing.T) {
	// Component is missing its required type field.
	path := writeConfig(t, []byte(`{
	  "id": "bad",
	  "pages": [{"id": "p", "order": 1, "sections": [{"id": "s", "order": 1, "components": [
	    {"id": "x", "order": 1}
	  ]}]}]
	}`))

	result, errs := LoadConfig(path)
	assert.Nil(t, result)
	require.NotEmpty(t, errs)

	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeSchema, le.Code)
}

func TestLoadConfig_BadRuleTypeCaughtBySchema(t *testing.T) {
	path := writeConfig(t, []byte(`{
	  "id": "bad",
	  "pages": [{"id": "p", "order": 1, "sections": [{"id": "s", "order": 1, "components": [
	    {"id": "x", "type": "text", "order": 1, "rules": [{"type": "requird"}]}
	  ]}]}]
	}`))

	result, errs := LoadConfig(path)
	assert.Nil(t, result)
	require.NotEmpty(t, errs)

	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeSchema, le.Code)
}

func TestLoadConfig_SemanticErrorsFromCompiler(t *testing.T) {
	// Structurally fine, semantically broken: the dependent id names
	// no element.
	path := writeConfig(t, []byte(`{
	  "id": "bad",
	  "pages": [{"id": "p", "order": 1, "sections": [{"id": "s", "order": 1, "components": [
	    {"id": "x", "type": "text", "order": 1, "dependentIds": ["ghost"]}
	  ]}]}]
	}`))

	result, errs := LoadConfig(path)
	assert.Nil(t, result)
	require.Len(t, errs, 1)

	var le *LoadError
	assert.False(t, errors.As(errs[0], &le), "semantic problems are compiler errors, not load errors")

	var ce compiler.ConfigError
	require.ErrorAs(t, errs[0], &ce)
	assert.Equal(t, compiler.ErrUnknownDependent, ce.Code)
}
