package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-football-metrics/internal/model"
	"github.com/pable/go-football-metrics/internal/report"
	"github.com/pable/go-football-metrics/internal/statsbomb"
)

var (
	competitionsFilter string
	competitionsStored bool
)

var competitionsCmd = &cobra.Command{
	Use:   "competitions",
	Short: "List the competitions and seasons available from the data source",
	Args:  cobra.NoArgs,
	RunE:  runCompetitions,
}

func init() {
	competitionsCmd.Flags().StringVar(&competitionsFilter, "filter", "", "only show competitions whose name contains this text")
	competitionsCmd.Flags().BoolVar(&competitionsStored, "stored", false, "list the stored catalogue without contacting the source")
}

func runCompetitions(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	var comps []model.Competition
	if competitionsStored {
		comps, err = db.ListCompetitions()
		if err != nil {
			return fmt.Errorf("list competitions: %w", err)
		}
	} else {
		client := statsbomb.NewClient(cfg.DataURL, cfg.HTTPTimeout)
		comps, err = client.Competitions(cmd.Context())
		if err != nil {
			return err
		}
		if err := db.InsertCompetitions(comps); err != nil {
			return fmt.Errorf("store competitions: %w", err)
		}
	}

	if competitionsFilter != "" {
		needle := strings.ToLower(competitionsFilter)
		kept := comps[:0]
		for _, c := range comps {
			if strings.Contains(strings.ToLower(c.CompetitionName), needle) {
				kept = append(kept, c)
			}
		}
		comps = kept
	}
	if len(comps) == 0 {
		fmt.Fprintln(os.Stdout, "No competitions found.")
		return nil
	}
	report.PrintCompetitions(os.Stdout, comps)
	return nil
}
