package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formic/internal/testutil"
)

func TestSummarize_Registration(t *testing.T) {
	cfg := testutil.RegistrationConfig()

	result := summarize(cfg)

	assert.Equal(t, "registration", result.ID)
	assert.Equal(t, cfg.Fingerprint(), result.Fingerprint)

	require.Len(t, result.Pages, 1)
	page := result.Pages[0]
	assert.Equal(t, "main", page.ID)
	assert.Equal(t, 3, page.Sections)
	assert.Equal(t, 8, page.Components)
	assert.Contains(t, page.Elements, "guardian (text)")
	assert.Contains(t, page.Elements, "submitBtn (button)")

	require.Len(t, result.Journeys, 1)
	assert.Equal(t, "signup", result.Journeys[0].ID)
	assert.Equal(t, []string{"main"}, result.Journeys[0].Pages)
	assert.True(t, result.Journeys[0].AllowBack)
	assert.False(t, result.Journeys[0].AllowForward)

	assert.Equal(t, map[string][]string{
		"age":      {"guardian"},
		"password": {"confirm"},
	}, result.Dependents)
}

func TestSummarize_NoDependencies(t *testing.T) {
	cfg := testutil.MustCompile(`{
	  "id": "flat",
	  "pages": [{"id": "p", "order": 1, "sections": [{"id": "s", "order": 1, "components": [
	    {"id": "x", "type": "text", "order": 1}
	  ]}]}]
	}`)

	result := summarize(cfg)
	assert.Nil(t, result.Dependents)
	assert.Empty(t, result.Journeys)
}

func TestInspectCommand_Text(t *testing.T) {
	path := writeConfig(t, testutil.RegistrationJSON())

	out, _, err := runCLI(t, "inspect", path)
	require.NoError(t, err)

	assert.Contains(t, out, "configuration: registration")
	assert.Contains(t, out, "fingerprint:   "+testutil.RegistrationConfig().Fingerprint())
	assert.Contains(t, out, "page main: 3 section(s), 8 component(s)")
	assert.Contains(t, out, "  - email (text)")
	assert.Contains(t, out, "journey signup: [main] (back=true forward=false)")
	assert.Contains(t, out, "dependents age -> [guardian]")
}

func TestInspectCommand_JSON(t *testing.T) {
	path := writeConfig(t, testutil.RegistrationJSON())

	out, _, err := runCLI(t, "inspect", path, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   InspectResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "registration", resp.Data.ID)
	assert.Len(t, resp.Data.Pages, 1)
	assert.Equal(t, []string{"confirm"}, resp.Data.Dependents["password"])
}

func TestInspectCommand_InvalidConfig(t *testing.T) {
	path := writeConfig(t, []byte(`{"id": ""}`))

	_, _, err := runCLI(t, "inspect", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
