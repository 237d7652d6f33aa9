package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-football-metrics/internal/model"
	"github.com/pable/go-football-metrics/internal/report"
	"github.com/pable/go-football-metrics/internal/storage"
)

var runsLimit int

// runsCmd lists recorded report runs or drills into one of them.
var runsCmd = &cobra.Command{
	Use:   "runs [<run-id-prefix>]",
	Short: "List recorded report runs, or show the rows of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to list (0 for all)")
}

func runRuns(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 0 {
		runs, err := db.ListReportRuns(runsLimit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded. Run 'fbmetrics report' first.")
			return nil
		}
		report.PrintRunsTable(os.Stdout, runs)
		return nil
	}

	run, err := findRun(db, args[0])
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Fprintf(os.Stderr, "No run found with id prefix %q\n", args[0])
		return nil
	}
	reports, err := db.GetRunReports(run.ID)
	if err != nil {
		return fmt.Errorf("run reports: %w", err)
	}
	report.PrintRunsTable(os.Stdout, []model.ReportRun{*run})
	fmt.Println()
	report.PrintPlayerTable(reports, "")
	return nil
}

// findRun resolves a run id prefix. An ambiguous prefix is an error.
func findRun(db *storage.DB, prefix string) (*model.ReportRun, error) {
	runs, err := db.ListReportRuns(0)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	var found *model.ReportRun
	for i := range runs {
		if !strings.HasPrefix(runs[i].ID, prefix) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("run prefix %q is ambiguous", prefix)
		}
		found = &runs[i]
	}
	return found, nil
}
