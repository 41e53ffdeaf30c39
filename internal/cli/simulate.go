package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/formic/internal/harness"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Config string // override the scenario's configuration path
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Run a scripted form session",
		Long: `Execute a scenario file against a fresh engine: apply its edits and
action dispatches in order, then evaluate its assertions against the
final form state.

The scenario's configuration path is resolved relative to the scenario
file unless --config overrides it.

Exit codes:
  0 - scenario passed
  1 - expectations or assertions failed
  2 - command error (missing files, broken configuration)

Examples:
  formic simulate scenarios/minor-needs-guardian.yaml
  formic simulate scenarios/happy-path.yaml --config configs/registration.json
  formic simulate scenarios/happy-path.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "configuration file overriding the scenario's config path")

	return cmd
}

func runSimulate(opts *SimulateOptions, scenarioPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scenario, err := harness.LoadScenario(scenarioPath)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	var result *harness.Result
	if opts.Config != "" {
		loaded, loadErrs := LoadConfig(opts.Config)
		if len(loadErrs) > 0 {
			return outputLoadErrors(formatter, loadErrs)
		}
		result, err = harness.RunWithConfig(scenario, loaded.Config)
	} else {
		result, err = harness.Run(scenario, filepath.Dir(scenarioPath))
	}
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	formatter.VerboseLog("Executed %d step(s), final version %d",
		len(result.Trace), result.Final.Version)

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
		if !result.Pass {
			return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
		}
		return nil
	}

	for i, step := range result.Trace {
		status := "ok"
		if step.Failed {
			status = "failed: " + step.Error
		} else if step.Blocked {
			status = "blocked"
		}
		fmt.Fprintf(formatter.Writer, "  step %d [%s %s] v%d errors=%d %s\n",
			i+1, step.Kind, step.Element, step.Version, step.ErrorCount, status)
	}
	if result.Pass {
		fmt.Fprintf(formatter.Writer, "✓ %s passed\n", scenario.Name)
		return nil
	}
	fmt.Fprintf(formatter.Writer, "✗ %s failed\n", scenario.Name)
	for _, e := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  %s\n", e)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
}
