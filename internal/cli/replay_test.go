package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/engine"
	"github.com/roach88/formic/internal/journal"
	"github.com/roach88/formic/internal/testutil"
)

// recordJournal runs a short session against the registration fixture
// and returns the journal path it was recorded to.
func recordJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := journal.Open(path)
	require.NoError(t, err)

	eng, err := engine.New(testutil.RegistrationConfig(),
		engine.WithNow(testutil.StaticNow(testutil.BaseTime)),
		engine.WithRecorder(j),
	)
	require.NoError(t, err)

	_, err = eng.UpdateValue("name", config.String("Ada Lovelace"))
	require.NoError(t, err)
	_, err = eng.UpdateValue("age", config.Number(36))
	require.NoError(t, err)

	eng.Stop()
	require.NoError(t, j.Close())
	return path
}

func TestReplayCommand_Text(t *testing.T) {
	configPath := writeConfig(t, testutil.RegistrationJSON())
	journalPath := recordJournal(t)

	out, _, err := runCLI(t, "replay", configPath, journalPath)
	require.NoError(t, err)

	assert.Contains(t, out, "replayed to version 3")
	assert.Contains(t, out, "  age = 36")
	assert.Contains(t, out, "  name = Ada Lovelace")
}

func TestReplayCommand_JSON(t *testing.T) {
	configPath := writeConfig(t, testutil.RegistrationJSON())
	journalPath := recordJournal(t)

	out, _, err := runCLI(t, "replay", configPath, journalPath, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(3), resp.Data.Version)
	assert.Equal(t, testutil.RegistrationConfig().Fingerprint(), resp.Data.ConfigHash)
	assert.Equal(t, "Ada Lovelace", resp.Data.Values["name"])
	assert.Empty(t, resp.Data.Errors)
}

func TestReplayCommand_MissingJournal(t *testing.T) {
	configPath := writeConfig(t, testutil.RegistrationJSON())

	out, _, err := runCLI(t, "replay", configPath, filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "journal not found")
}

func TestReplayCommand_EmptyJournal(t *testing.T) {
	configPath := writeConfig(t, testutil.RegistrationJSON())

	// A journal with no rows for this configuration.
	journalPath := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.Open(journalPath)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	out, _, err := runCLI(t, "replay", configPath, journalPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "no transactions")
}

func TestReplayCommand_InvalidConfig(t *testing.T) {
	configPath := writeConfig(t, []byte(`{"id": ""}`))
	journalPath := recordJournal(t)

	_, _, err := runCLI(t, "replay", configPath, journalPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
