package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-football-metrics/internal/model"
	"github.com/pable/go-football-metrics/internal/report"
	"github.com/pable/go-football-metrics/internal/storage"
)

// playerCmd is the cobra command for cross-match totals of one or more players.
var playerCmd = &cobra.Command{
	Use:   "player [<name>...]",
	Short: "Cross-match totals for one or more players",
	Long: `Sums the recorded report rows of each named player across matches (the
latest run per match wins). Without arguments, the configured players are used.`,
	RunE: runPlayer,
}

// runPlayer loads every report row of each player and prints the aggregate
// overview table.
func runPlayer(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = cfg.Players
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	aggs, err := playerAggregates(db, names)
	if err != nil {
		return err
	}
	if len(aggs) == 0 {
		return nil
	}
	fmt.Fprintln(os.Stdout)
	report.PrintPlayerAggregateOverview(os.Stdout, aggs)
	return nil
}

func playerAggregates(db *storage.DB, names []string) ([]model.PlayerAggregate, error) {
	var aggs []model.PlayerAggregate
	for _, name := range names {
		reports, err := db.GetPlayerReports(name)
		if err != nil {
			return nil, fmt.Errorf("query reports for %s: %w", name, err)
		}
		if len(reports) == 0 {
			fmt.Fprintf(os.Stderr, "No reports found for %q\n", name)
			continue
		}
		aggs = append(aggs, storage.Aggregate(name, reports))
	}
	return aggs, nil
}
