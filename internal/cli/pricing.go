package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/mobserve/internal/app"
	"github.com/emiliopalmerini/mobserve/internal/domain"
)

func newPricingCmd() *cobra.Command {
	var catalogFile string

	cmd := &cobra.Command{
		Use:   "pricing [model-id]",
		Short: "List model pricing or resolve one model id",
		Long: `Without arguments, lists the pricing table (USD per 1M tokens).

With a model id, shows which entry prices it. Dated ids resolve to the longest
matching prefix, unknown ids to the fallback model:

  mobserve pricing claude-sonnet-4-5-20250929`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("catalog") {
				cfg.CatalogFile = catalogFile
			}

			_, pricing, err := app.LoadCatalog(cfg)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return resolvePricing(cmd.OutOrStdout(), pricing, args[0], cfg.Model)
			}
			renderPricing(cmd.OutOrStdout(), pricing, cfg.Model)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogFile, "catalog", "", "TOML file extending the pricing table")
	return cmd
}

func renderPricing(w io.Writer, pricing domain.PricingTable, fallback string) {
	models := make([]string, 0, len(pricing))
	for id := range pricing {
		models = append(models, id)
	}
	sort.Strings(models)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Model", "Input/1M", "Output/1M", "Fallback"})
	for _, id := range models {
		p := pricing[id]
		mark := ""
		if id == fallback {
			mark = "*"
		}
		t.AppendRow(table.Row{id, fmt.Sprintf("$%.2f", p.InputPerMillion), fmt.Sprintf("$%.2f", p.OutputPerMillion), mark})
	}
	t.Render()
}

func resolvePricing(w io.Writer, pricing domain.PricingTable, model, fallback string) error {
	p, ok := pricing.Lookup(model)
	via := "matched"
	if !ok {
		p, ok = pricing.Lookup(fallback)
		via = "fallback"
	}
	if !ok {
		return fmt.Errorf("no pricing for %s and no fallback model %s", model, fallback)
	}

	_, err := fmt.Fprintf(w, "%s -> %s (%s): input $%.2f/1M, output $%.2f/1M\n",
		model, p.ID, via, p.InputPerMillion, p.OutputPerMillion)
	return err
}
