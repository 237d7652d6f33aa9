package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-football-metrics/internal/report"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about everything stored in the database:
catalogue and cache sizes, the match date range, per-player totals and the
most recent report runs.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetDBOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Matches == 0 && ov.MatchesCached == 0 {
		fmt.Fprintln(os.Stdout, "Nothing stored yet. Run 'fbmetrics fetch' or 'fbmetrics load <file>' to add data.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Competitions   : %d\n", ov.Competitions)
	fmt.Fprintf(os.Stdout, "  Matches listed : %d\n", ov.Matches)
	fmt.Fprintf(os.Stdout, "  Events cached  : %d matches, %d events\n", ov.MatchesCached, ov.Events)
	if ov.EarliestMatch != "" {
		fmt.Fprintf(os.Stdout, "  Date range     : %s → %s\n", ov.EarliestMatch, ov.LatestMatch)
	}
	fmt.Fprintf(os.Stdout, "  Players seen   : %d\n", ov.Players)
	fmt.Fprintf(os.Stdout, "  Report runs    : %d\n", ov.Runs)
	if ov.LatestRun != "" {
		fmt.Fprintf(os.Stdout, "  Latest run     : %s\n", ov.LatestRun)
	}

	aggs, err := db.GetPlayerAggregates()
	if err != nil {
		return fmt.Errorf("get player totals: %w", err)
	}
	if len(aggs) > 0 {
		fmt.Fprintf(os.Stdout, "\n--- Tracked Players ---\n\n")
		report.PrintPlayerAggregateOverview(os.Stdout, aggs)
	}

	runs, err := db.ListReportRuns(5)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) > 0 {
		fmt.Fprintf(os.Stdout, "\n--- Recent Runs ---\n\n")
		report.PrintRunsTable(os.Stdout, runs)
	}
	return nil
}
