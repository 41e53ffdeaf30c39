package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/formic/internal/config"
)

// InspectResult is the inspect command's summary of a configuration.
type InspectResult struct {
	ID          string            `json:"id"`
	Fingerprint string            `json:"fingerprint"`
	Pages       []PageSummary     `json:"pages"`
	Journeys    []JourneySummary  `json:"journeys,omitempty"`
	Dependents  map[string][]string `json:"dependents,omitempty"`
}

// PageSummary is one page's shape.
type PageSummary struct {
	ID         string   `json:"id"`
	Sections   int      `json:"sections"`
	Components int      `json:"components"`
	Elements   []string `json:"elements"`
}

// JourneySummary is one journey's page sequence.
type JourneySummary struct {
	ID           string   `json:"id"`
	Pages        []string `json:"pages"`
	AllowBack    bool     `json:"allowBack"`
	AllowForward bool     `json:"allowForward"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <config.json>",
		Short: "Summarize a form configuration",
		Long: `Print a structural summary of a configuration: pages, sections,
components, journeys, the dependency graph and the configuration
fingerprint used to key journal rows.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, loadErrs := LoadConfig(path)
	if len(loadErrs) > 0 {
		return outputLoadErrors(formatter, loadErrs)
	}

	result := summarize(loaded.Config)

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "configuration: %s\n", result.ID)
	fmt.Fprintf(formatter.Writer, "fingerprint:   %s\n", result.Fingerprint)
	for _, p := range result.Pages {
		fmt.Fprintf(formatter.Writer, "page %s: %d section(s), %d component(s)\n", p.ID, p.Sections, p.Components)
		for _, el := range p.Elements {
			fmt.Fprintf(formatter.Writer, "  - %s\n", el)
		}
	}
	for _, j := range result.Journeys {
		fmt.Fprintf(formatter.Writer, "journey %s: %v (back=%t forward=%t)\n", j.ID, j.Pages, j.AllowBack, j.AllowForward)
	}
	for from, to := range result.Dependents {
		fmt.Fprintf(formatter.Writer, "dependents %s -> %v\n", from, to)
	}
	return nil
}

func summarize(cfg *config.Config) InspectResult {
	result := InspectResult{
		ID:          cfg.ID,
		Fingerprint: cfg.Fingerprint(),
		Dependents:  make(map[string][]string),
	}
	for _, page := range cfg.Pages {
		ps := PageSummary{ID: page.ID, Sections: len(page.Sections)}
		for _, sec := range page.Sections {
			ps.Components += len(sec.Components)
			for _, comp := range sec.Components {
				ps.Elements = append(ps.Elements, fmt.Sprintf("%s (%s)", comp.ID, comp.Type))
				if len(comp.DependentIDs) > 0 {
					deps := make([]string, len(comp.DependentIDs))
					for i, d := range comp.DependentIDs {
						deps[i] = string(d)
					}
					result.Dependents[string(comp.ID)] = deps
				}
			}
		}
		result.Pages = append(result.Pages, ps)
	}
	for _, j := range cfg.Journeys {
		result.Journeys = append(result.Journeys, JourneySummary{
			ID:           j.ID,
			Pages:        j.Pages,
			AllowBack:    j.AllowBack,
			AllowForward: j.AllowForward,
		})
	}
	if len(result.Dependents) == 0 {
		result.Dependents = nil
	}
	return result
}
