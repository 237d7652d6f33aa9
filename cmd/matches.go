package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-football-metrics/internal/model"
	"github.com/pable/go-football-metrics/internal/report"
)

var (
	matchesAll    bool
	matchesStored bool
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List the configured team's matches of the season",
	Args:  cobra.NoArgs,
	RunE:  runMatches,
}

func init() {
	matchesCmd.Flags().BoolVar(&matchesAll, "all", false, "list every match of the season")
	matchesCmd.Flags().BoolVar(&matchesStored, "stored", false, "read the stored match list only")
}

func runMatches(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	var list []model.Match
	if matchesStored {
		list, err = db.GetMatches(cfg.CompetitionID, cfg.SeasonID)
		if err != nil {
			return fmt.Errorf("stored matches: %w", err)
		}
	} else {
		src, closeSrc, err := openSource(cmd.Context(), db)
		if err != nil {
			return err
		}
		defer closeSrc()
		if list, err = src.Matches(cmd.Context(), cfg.CompetitionID, cfg.SeasonID); err != nil {
			return err
		}
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stdout, "No matches found. Run 'fbmetrics fetch' first.")
		return nil
	}

	team := cfg.Team
	if matchesAll {
		team = ""
	}
	report.PrintMatchList(os.Stdout, list, team)
	return nil
}
