// Command formic is the CLI entry point: validate, inspect, simulate
// and replay declarative form configurations.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/formic/internal/cli"
)

func main() {
	// Engine and journal diagnostics go to stderr so command output
	// stays parseable.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
