package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryanlerler/fixflow/journal"
	"github.com/ryanlerler/fixflow/ledger"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print trading statistics from a SQLite journal",
	Long: `Recompute and print the trading statistics recorded in a journal
database: total notional volume, PnL, and per-symbol VWAP.

Without --run the most recent run is reported.

Example:
  fixflow stats --db fills.db`,
	RunE: runStats,
}

var (
	statsDBPath string
	statsRunID  string
)

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsDBPath, "db", "", "path to the SQLite journal (required)")
	statsCmd.Flags().StringVar(&statsRunID, "run", "", "run id to report (default: most recent)")
	statsCmd.MarkFlagRequired("db")
}

func runStats(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(statsDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	runID := statsRunID
	if runID == "" {
		runs, err := j.ListRuns()
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("journal has no fills")
			return nil
		}
		runID = runs[0]
	}

	fills, err := j.ListFills(runID)
	if err != nil {
		return fmt.Errorf("list fills: %w", err)
	}

	report := replay(fills)
	fmt.Printf("Run: %s (%d fills)\n", runID, len(fills))
	fmt.Print(report.String())
	return nil
}

// replay folds journaled fills through a fresh aggregator, reproducing
// the live totals from the durable record.
func replay(fills []journal.FillRecord) ledger.Report {
	agg := ledger.NewAggregator()
	for _, f := range fills {
		side := ledger.Buy
		if f.Side == ledger.Sell.String() {
			side = ledger.Sell
		}
		agg.OnFill(f.Symbol, side, f.Quantity, f.Price)
	}
	return agg.Report()
}
