package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/journal"
)

// ReplayResult summarizes a journal replay.
type ReplayResult struct {
	ConfigHash string         `json:"config_hash"`
	Version    int64          `json:"version"`
	Values     map[string]any `json:"values"`
	Errors     map[string]int `json:"errors,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <config.json> <journal.db>",
		Short: "Rebuild form state from a journal",
		Long: `Replay the recorded transactions for a configuration from a journal
database and print the reconstructed final state.

Rows are selected by the configuration fingerprint, so a journal shared
by several configurations replays only the matching session. Replaying
against a modified configuration finds no rows and fails rather than
silently rebuilding the wrong state.

Exit codes:
  0 - state reconstructed
  1 - no recorded transactions for this configuration
  2 - command error (missing files, broken configuration)`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runReplay(opts *RootOptions, configPath, journalPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, loadErrs := LoadConfig(configPath)
	if len(loadErrs) > 0 {
		return outputLoadErrors(formatter, loadErrs)
	}

	if _, err := os.Stat(journalPath); os.IsNotExist(err) {
		msg := fmt.Sprintf("journal not found: %s", journalPath)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	j, err := journal.Open(journalPath)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	defer j.Close()

	snap, err := j.Replay(cmd.Context(), loaded.Config)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	result := ReplayResult{
		ConfigHash: loaded.Config.Fingerprint(),
		Version:    snap.Version,
		Values:     make(map[string]any, len(snap.Values)),
	}
	for id, v := range snap.Values {
		result.Values[string(id)] = config.ToAny(v)
	}
	for id, errs := range snap.Errors {
		if result.Errors == nil {
			result.Errors = make(map[string]int)
		}
		result.Errors[string(id)] = len(errs)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "replayed to version %d (config %s)\n", result.Version, result.ConfigHash[:12])
	ids := make([]string, 0, len(result.Values))
	for id := range result.Values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(formatter.Writer, "  %s = %v\n", id, result.Values[id])
	}
	for id, n := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  %s: %d error(s)\n", id, n)
	}
	return nil
}
