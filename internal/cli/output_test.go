package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError_Error(t *testing.T) {
	e := NewExitError(ExitFailure, "validation failed")
	assert.Equal(t, "validation failed", e.Error())

	wrapped := &ExitError{Code: ExitCommandError, Message: "load", Err: errors.New("no such file")}
	assert.Equal(t, "load: no such file", wrapped.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "no such file")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "boom")))
	assert.Equal(t, ExitSuccess, GetExitCode(NewExitError(ExitSuccess, "fine")))

	wrapped := fmt.Errorf("context: %w", NewExitError(ExitCommandError, "boom"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))

	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestOutputFormatter_Success_Text(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Success("all good"))
	assert.Equal(t, "all good\n", buf.String())
}

func TestOutputFormatter_Success_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]any{"valid": true}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_Error_Text(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Error("L001", "file not found", nil))
	assert.Equal(t, "Error [L001]: file not found\n", buf.String())
}

func TestOutputFormatter_Error_TextVerboseDetails(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf, Verbose: true}

	require.NoError(t, f.Error("L003", "schema violation", "pages[0].id"))
	assert.Contains(t, buf.String(), "Details: pages[0].id")
}

func TestOutputFormatter_Error_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Error("L001", "file not found", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "L001", resp.Error.Code)
	assert.Equal(t, "file not found", resp.Error.Message)
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	var out, errBuf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errBuf, Verbose: true}

	f.VerboseLog("loaded %d elements", 8)

	assert.Empty(t, out.String(), "diagnostics must not pollute parseable output")
	assert.Equal(t, "loaded 8 elements\n", errBuf.String())
}

func TestOutputFormatter_VerboseLog_Quiet(t *testing.T) {
	var out bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out}

	f.VerboseLog("should not appear")
	assert.Empty(t, out.String())
}

func TestOutputFormatter_VerboseLog_DefaultsToWriter(t *testing.T) {
	var out bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out, Verbose: true}

	f.VerboseLog("to writer")
	assert.Equal(t, "to writer\n", out.String())
}
