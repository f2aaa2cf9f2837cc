package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finquarry/finquarry/internal/render"
)

var (
	chartConcepts string
	chartAnnual   bool
	chartTitle    string
	chartOut      string
)

var chartCmd = &cobra.Command{
	Use:   "chart SYMBOL",
	Short: "Render normalized series as an HTML line chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		symbol := strings.ToUpper(args[0])

		env, err := initEnv()
		if err != nil {
			return err
		}

		n, err := env.loadNormalized(ctx, symbol)
		if err != nil {
			return err
		}

		table := n.Result.Quarterly
		subtitle := "quarterly"
		if chartAnnual {
			table = n.Result.Annual
			subtitle = "annual"
		}

		concepts, err := selectConcepts(table, chartConcepts)
		if err != nil {
			return err
		}

		title := chartTitle
		if title == "" {
			title = fmt.Sprintf("%s (%s)", n.EntityName, symbol)
		}

		outDir := chartOut
		if outDir == "" {
			outDir = cfg.Render.OutDir
		}

		path, err := render.LineChart(table, concepts, render.ChartOptions{
			Title:    title,
			Subtitle: subtitle,
			OutDir:   outDir,
			FileName: fmt.Sprintf("%s_%s.html", strings.ToLower(symbol), subtitle),
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
		return nil
	},
}

func init() {
	chartCmd.Flags().StringVar(&chartConcepts, "concepts", "", "comma-separated concept ids; default all")
	chartCmd.Flags().BoolVar(&chartAnnual, "annual", false, "chart the annual table instead of quarterly")
	chartCmd.Flags().StringVar(&chartTitle, "title", "", "chart title (default entity name)")
	chartCmd.Flags().StringVar(&chartOut, "out", "", "output directory (default from config)")
	rootCmd.AddCommand(chartCmd)
}
