package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/finquarry/finquarry/internal/store"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspect saved normalization snapshots",
	Long:  "Commands for listing and re-printing snapshots saved with 'facts --save'.",
}

// -- snapshots list --

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		symbol, _ := cmd.Flags().GetString("symbol")
		limit, _ := cmd.Flags().GetInt("limit")

		snaps, err := st.ListSnapshots(ctx, store.Filter{Symbol: symbol, Limit: limit})
		if err != nil {
			return err
		}

		if len(snaps) == 0 {
			fmt.Fprintln(os.Stderr, "No snapshots found.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSYMBOL\tENTITY\tCONCEPTS\tUNRESOLVED\tCREATED")
		for _, s := range snaps {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
				s.ID, s.Symbol, s.EntityName, s.ConceptCount, s.UnresolvedCount,
				s.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		return tw.Flush()
	},
}

// -- snapshots show --

var snapshotsShowCmd = &cobra.Command{
	Use:   "show [ID]",
	Short: "Print a snapshot's tables",
	Long:  "Prints a snapshot by ID, or the latest snapshot for --symbol when no ID is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		symbol, _ := cmd.Flags().GetString("symbol")

		var snap *store.Snapshot
		switch {
		case len(args) == 1:
			snap, err = st.GetSnapshot(ctx, args[0])
		case symbol != "":
			snap, err = st.LatestSnapshot(ctx, symbol)
		default:
			return eris.New("either an ID or --symbol is required")
		}
		if err != nil {
			return err
		}
		if snap == nil {
			return eris.New("snapshot not found")
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}

		res := snap.Result
		fmt.Printf("%s (%s, CIK %s), saved %s\n",
			snap.EntityName, snap.Symbol, snap.CIK, snap.CreatedAt.Format("2006-01-02 15:04"))

		annual, _ := cmd.Flags().GetBool("annual")
		table := res.Quarterly
		if annual {
			table = res.Annual
		}

		tail, _ := cmd.Flags().GetInt("tail")
		return printTable(os.Stdout, table, table.Concepts, res.UnitKinds, tail)
	},
}

func init() {
	snapshotsListCmd.Flags().String("symbol", "", "filter by symbol")
	snapshotsListCmd.Flags().Int("limit", 20, "max snapshots to list")

	snapshotsShowCmd.Flags().String("symbol", "", "show the latest snapshot for this symbol")
	snapshotsShowCmd.Flags().Bool("annual", false, "print the annual table instead of quarterly")
	snapshotsShowCmd.Flags().Bool("json", false, "print the snapshot as JSON")
	snapshotsShowCmd.Flags().Int("tail", 0, "print only the last N rows")

	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsShowCmd)
	rootCmd.AddCommand(snapshotsCmd)
}
