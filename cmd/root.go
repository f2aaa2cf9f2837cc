package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finquarry/finquarry/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "finquarry",
	Short: "SEC filing research from the command line",
	Long:  "Fetches EDGAR company facts and market quotes, normalizes irregular filing periods into aligned quarterly and annual series, and renders comparison charts and spreadsheets.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
