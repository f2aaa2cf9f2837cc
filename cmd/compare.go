package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/finquarry/finquarry/internal/facts"
	"github.com/finquarry/finquarry/internal/render"
)

var (
	compareAnnual bool
	compareOut    string
)

var compareCmd = &cobra.Command{
	Use:   "compare CONCEPT SYMBOL...",
	Short: "Chart one concept across companies",
	Long:  "Normalizes the given concept for every symbol and renders all of them on a single chart, one series per company.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		concept := args[0]
		symbols := args[1:]

		env, err := initEnv()
		if err != nil {
			return err
		}

		var (
			mu       sync.Mutex
			bySymbol = make(map[string]facts.Series, len(symbols))
		)

		g, gctx := errgroup.WithContext(ctx)
		for _, raw := range symbols {
			symbol := strings.ToUpper(raw)
			g.Go(func() error {
				n, err := env.loadNormalized(gctx, symbol)
				if err != nil {
					return eris.Wrapf(err, "load %s", symbol)
				}

				table := n.Result.Quarterly
				if compareAnnual {
					table = n.Result.Annual
				}
				s := table.Column(concept)
				if len(s) == 0 {
					return eris.Errorf("concept %s not present for %s", concept, symbol)
				}

				mu.Lock()
				bySymbol[symbol] = s
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		subtitle := "quarterly"
		if compareAnnual {
			subtitle = "annual"
		}

		outDir := compareOut
		if outDir == "" {
			outDir = cfg.Render.OutDir
		}

		path, err := render.CompareChart(bySymbol, render.ChartOptions{
			Title:    concept,
			Subtitle: subtitle,
			OutDir:   outDir,
			FileName: fmt.Sprintf("compare_%s.html", sanitizeFileName(concept)),
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
		return nil
	},
}

// sanitizeFileName makes a concept id safe as a file name component.
func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', '/', '\\', ' ':
			return '_'
		}
		return r
	}, strings.ToLower(s))
}

func init() {
	compareCmd.Flags().BoolVar(&compareAnnual, "annual", false, "compare annual series instead of quarterly")
	compareCmd.Flags().StringVar(&compareOut, "out", "", "output directory (default from config)")
	rootCmd.AddCommand(compareCmd)
}
