package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/mobserve/internal/app"
	"github.com/emiliopalmerini/mobserve/internal/domain"
)

func newPhasesCmd() *cobra.Command {
	var catalogFile string

	cmd := &cobra.Command{
		Use:   "phases",
		Short: "List the workflow phases and their transitions",
		Long: `Prints the phase catalog the trajectory engine scores against: the tools
that indicate each phase with their weights, and the phases predicted to follow.
The built-in catalog is extended by the catalog file when one exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("catalog") {
				cfg.CatalogFile = catalogFile
			}

			catalog, _, err := app.LoadCatalog(cfg)
			if err != nil {
				return err
			}
			renderPhases(cmd.OutOrStdout(), catalog)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogFile, "catalog", "", "TOML file extending the phase catalog")
	return cmd
}

func renderPhases(w io.Writer, catalog *domain.Catalog) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Phase", "Description", "Indicators", "Error Bonus", "Next"})

	for _, p := range catalog.Phases() {
		bonus := "-"
		if p.ErrorBonus > 0 {
			bonus = fmt.Sprintf("+%d", p.ErrorBonus)
		}
		next := "-"
		if successors := catalog.Successors(p.Name); len(successors) > 0 {
			next = strings.Join(successors, ", ")
		}
		t.AppendRow(table.Row{p.Name, p.Description, formatWeights(p.Weights), bonus, next})
	}
	t.Render()
}

// formatWeights renders weights heaviest first, e.g. "write_file=3 edit_file=3 bash=1".
func formatWeights(weights map[string]int) string {
	tools := make([]string, 0, len(weights))
	for tool := range weights {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		if weights[tools[i]] != weights[tools[j]] {
			return weights[tools[i]] > weights[tools[j]]
		}
		return tools[i] < tools[j]
	})

	parts := make([]string, len(tools))
	for i, tool := range tools {
		parts[i] = fmt.Sprintf("%s=%d", tool, weights[tool])
	}
	return strings.Join(parts, " ")
}
