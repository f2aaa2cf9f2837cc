package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finquarry/finquarry/internal/facts"
	"github.com/finquarry/finquarry/internal/render"
	"github.com/finquarry/finquarry/internal/store"
)

var (
	factsConcepts string
	factsAnnual   bool
	factsJSON     bool
	factsXLSX     string
	factsSave     bool
	factsTail     int
)

var factsCmd = &cobra.Command{
	Use:   "facts SYMBOL",
	Short: "Fetch and normalize a company's reported facts",
	Long:  "Resolves the symbol via EDGAR, fetches its XBRL company facts, and prints aligned quarterly (or annual) series with irregular periods filtered and missing fourth quarters inferred.",
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
		res := n.Result

		for _, u := range res.Unresolved {
			zap.L().Warn("concept lacks period spans, used filing-date fallback",
				zap.String("concept", u.Concept),
			)
		}

		if factsSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			snap, err := st.SaveSnapshot(ctx, store.Snapshot{
				Symbol:          symbol,
				CIK:             n.CIK,
				EntityName:      n.EntityName,
				ConceptCount:    len(res.UnitKinds),
				UnresolvedCount: len(res.Unresolved),
				Result:          res,
			})
			if err != nil {
				return err
			}
			zap.L().Info("snapshot saved", zap.String("id", snap.ID), zap.String("symbol", symbol))
		}

		if factsXLSX != "" {
			if err := render.WriteXLSX(factsXLSX, res.Quarterly, res.Annual, res.UnitKinds); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %s\n", factsXLSX)
		}

		if factsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		table := res.Quarterly
		if factsAnnual {
			table = res.Annual
		}

		concepts, err := selectConcepts(table, factsConcepts)
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s, CIK %s)\n", n.EntityName, symbol, n.CIK)
		return printTable(os.Stdout, table, concepts, res.UnitKinds, factsTail)
	},
}

// selectConcepts resolves a comma-separated concept list against the table,
// defaulting to every column.
func selectConcepts(table facts.WideTable, list string) ([]string, error) {
	if list == "" {
		return table.Concepts, nil
	}

	known := make(map[string]bool, len(table.Concepts))
	for _, c := range table.Concepts {
		known[c] = true
	}

	var out []string
	for _, c := range strings.Split(list, ",") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !known[c] {
			return nil, eris.Errorf("concept %s not present for this issuer", c)
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, eris.New("no concepts selected")
	}
	return out, nil
}

// printTable writes the selected columns as an aligned text table, newest
// rows last. tail > 0 limits output to the last tail rows.
func printTable(w io.Writer, table facts.WideTable, concepts []string, kinds map[string]facts.UnitKind, tail int) error {
	rows := table.Rows
	if tail > 0 && len(rows) > tail {
		rows = rows[len(rows)-tail:]
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "END")
	for _, c := range concepts {
		fmt.Fprintf(tw, "\t%s", c)
	}
	fmt.Fprintln(tw)

	for _, row := range rows {
		fmt.Fprintf(tw, "%s", render.FormatEnd(row.End))
		for _, c := range concepts {
			if v, ok := row.Values[c]; ok {
				fmt.Fprintf(tw, "\t%s", render.FormatValue(v, kinds[c]))
			} else {
				fmt.Fprintf(tw, "\t-")
			}
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func init() {
	factsCmd.Flags().StringVar(&factsConcepts, "concepts", "", "comma-separated concept ids (e.g. us-gaap:Revenues); default all")
	factsCmd.Flags().BoolVar(&factsAnnual, "annual", false, "print the annual table instead of quarterly")
	factsCmd.Flags().BoolVar(&factsJSON, "json", false, "print the full normalization result as JSON")
	factsCmd.Flags().StringVar(&factsXLSX, "xlsx", "", "also write quarterly and annual sheets to this .xlsx path")
	factsCmd.Flags().BoolVar(&factsSave, "save", false, "persist the result as a snapshot")
	factsCmd.Flags().IntVar(&factsTail, "tail", 0, "print only the last N rows")
	rootCmd.AddCommand(factsCmd)
}
