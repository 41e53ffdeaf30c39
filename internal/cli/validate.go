package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/formic/internal/compiler"
)

// ValidationResult holds validate command results.
type ValidationResult struct {
	Valid  bool                   `json:"valid"`
	Errors []compiler.ConfigError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.json>",
		Short: "Validate a form configuration",
		Long: `Validate a form configuration file without starting an engine.

Checks the document against the structural schema, then runs the full
compiler: reference resolution, rule field checks, expression parsing,
and dependency cycle analysis. All errors are reported, not just the
first.

Exit codes:
  0 - configuration is valid
  1 - configuration has errors
  2 - command error (file not found, unreadable)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result, loadErrs := LoadConfig(path)
	if len(loadErrs) > 0 {
		return outputLoadErrors(formatter, loadErrs)
	}

	formatter.VerboseLog("Loaded configuration %s (%d elements)",
		result.Config.ID, result.Config.BuildIndex().Len())

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintln(formatter.Writer, "✓ Configuration valid")
	return nil
}

// outputLoadErrors renders loader and compiler errors and maps them to
// exit codes: file problems are command errors, configuration problems
// are validation failures.
func outputLoadErrors(formatter *OutputFormatter, errs []error) error {
	var loadErr *LoadError
	if errors.As(errs[0], &loadErr) && loadErr.Code != ErrCodeSchema {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return NewExitError(ExitCommandError, loadErr.Error())
	}

	var cfgErrs []compiler.ConfigError
	for _, err := range errs {
		var ce compiler.ConfigError
		if errors.As(err, &ce) {
			cfgErrs = append(cfgErrs, ce)
			continue
		}
		cfgErrs = append(cfgErrs, compiler.ConfigError{Code: ErrCodeSchema, Field: "schema", Message: err.Error()})
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: cfgErrs},
			Error:  &CLIError{Code: cfgErrs[0].Code, Message: cfgErrs[0].Message},
		}
		enc := json.NewEncoder(formatter.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(cfgErrs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range cfgErrs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", e.Code, e.Field, e.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(cfgErrs)))
}
