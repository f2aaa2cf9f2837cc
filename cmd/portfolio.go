package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/finquarry/finquarry/internal/facts"
	"github.com/finquarry/finquarry/internal/portfolio"
	"github.com/finquarry/finquarry/internal/render"
)

var portfolioJSON bool

var portfolioCmd = &cobra.Command{
	Use:   "portfolio FILE",
	Short: "Price a portfolio file against current quotes",
	Long:  "Reads a YAML portfolio of positions, fetches a quote per symbol, and prints market value and unrealized gain per holding.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pf, err := portfolio.Load(args[0])
		if err != nil {
			return err
		}

		env, err := initEnv()
		if err != nil {
			return err
		}

		holdings := portfolio.Enrich(ctx, env.Market, pf.Positions, cfg.EDGAR.MaxConcurrency)

		if portfolioJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(holdings)
		}

		if pf.Name != "" {
			fmt.Println(pf.Name)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SYMBOL\tSHARES\tPRICE\tVALUE\tGAIN")
		for _, h := range holdings {
			if h.Err != "" {
				fmt.Fprintf(tw, "%s\t%.2f\t-\t-\t(%s)\n", h.Symbol, h.Shares, h.Err)
				continue
			}
			fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%s\t%s\n",
				h.Symbol, h.Shares, h.Quote.Price,
				render.FormatValue(h.MarketValue, facts.UnitCurrency),
				render.FormatValue(h.UnrealizedGain, facts.UnitCurrency),
			)
		}
		fmt.Fprintf(tw, "TOTAL\t\t\t%s\t\n", render.FormatValue(portfolio.TotalValue(holdings), facts.UnitCurrency))
		return tw.Flush()
	},
}

func init() {
	portfolioCmd.Flags().BoolVar(&portfolioJSON, "json", false, "print holdings as JSON")
	rootCmd.AddCommand(portfolioCmd)
}
