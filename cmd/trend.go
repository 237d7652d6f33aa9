package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-football-metrics/internal/report"
)

var trendCmd = &cobra.Command{
	Use:   "trend <player>",
	Short: "Chronological per-match trend for a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func runTrend(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	reports, err := db.GetPlayerReports(args[0])
	if err != nil {
		return fmt.Errorf("query reports: %w", err)
	}
	if len(reports) == 0 {
		fmt.Println("no matches found")
		return nil
	}

	fmt.Printf("\n%s (%s)\n", args[0], reports[0].Team)
	report.PrintPlayerMatches(os.Stdout, reports)
	return nil
}
