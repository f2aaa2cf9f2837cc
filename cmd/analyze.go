package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/finquarry/finquarry/internal/facts"
	"github.com/finquarry/finquarry/pkg/anthropic"
)

const analyzeSystemPrompt = "You are a financial analyst. You are given normalized quarterly and annual series " +
	"derived from a company's SEC filings. Values marked '-' were not disclosed for that period. " +
	"Describe the trends you see, flag inflection points, and note anything unusual. Be concise and concrete."

var (
	analyzeConcepts string
	analyzeQuestion string
	analyzeTail     int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze SYMBOL",
	Short: "Ask Claude to interpret a company's normalized series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		symbol := strings.ToUpper(args[0])

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic API key is required (FINQUARRY_ANTHROPIC_KEY)")
		}

		env, err := initEnv()
		if err != nil {
			return err
		}

		n, err := env.loadNormalized(ctx, symbol)
		if err != nil {
			return err
		}

		prompt, err := buildAnalysisPrompt(n, analyzeConcepts, analyzeTail, analyzeQuestion)
		if err != nil {
			return err
		}

		client := anthropic.NewClient(cfg.Anthropic.Key)
		resp, err := client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     cfg.Anthropic.Model,
			MaxTokens: int64(cfg.Anthropic.MaxTokens),
			System:    analyzeSystemPrompt,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
		if err != nil {
			return err
		}

		resp.Usage.LogCost(resp.Model)
		fmt.Fprintln(os.Stdout, resp.Text)
		return nil
	},
}

// buildAnalysisPrompt renders the normalized tables as text for the model,
// limited to the selected concepts and the most recent rows.
func buildAnalysisPrompt(n *normalized, conceptList string, tail int, question string) (string, error) {
	if tail <= 0 {
		tail = 12
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s), CIK %s.\n\n", n.EntityName, n.Symbol, n.CIK)

	wrote := false
	for _, section := range []struct {
		name  string
		table facts.WideTable
	}{
		{"Quarterly", n.Result.Quarterly},
		{"Annual", n.Result.Annual},
	} {
		if len(section.table.Rows) == 0 {
			continue
		}
		concepts, err := selectConcepts(section.table, conceptList)
		if err != nil {
			// A concept may exist in only one of the two tables.
			continue
		}
		fmt.Fprintf(&b, "%s:\n", section.name)
		if err := printTable(&b, section.table, concepts, n.Result.UnitKinds, tail); err != nil {
			return "", err
		}
		b.WriteString("\n")
		wrote = true
	}

	if !wrote {
		return "", eris.Errorf("no normalized data for %s", n.Symbol)
	}

	if question != "" {
		fmt.Fprintf(&b, "Question: %s\n", question)
	}
	return b.String(), nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeConcepts, "concepts", "", "comma-separated concept ids; default all")
	analyzeCmd.Flags().StringVar(&analyzeQuestion, "question", "", "a specific question to ask about the data")
	analyzeCmd.Flags().IntVar(&analyzeTail, "tail", 12, "rows per table included in the prompt")
	rootCmd.AddCommand(analyzeCmd)
}
