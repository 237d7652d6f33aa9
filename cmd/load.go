package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-football-metrics/internal/aggregator"
	"github.com/pable/go-football-metrics/internal/parser"
	"github.com/pable/go-football-metrics/internal/report"
)

var (
	loadMatchesFile string
	loadVerbose     bool
)

var loadCmd = &cobra.Command{
	Use:   "load <events-file> [events-file...]",
	Short: "Import event files from disk into the database",
	Long: `Reads StatsBomb event files (<match_id>.json, optionally compressed as
.json.gz, .json.bz2 or .json.zst) and stores them as cached timelines. With
--matches, a season match list is imported first under the configured
competition and season.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadMatchesFile, "matches", "", "season match list to import alongside the events")
	loadCmd.Flags().BoolVarP(&loadVerbose, "verbose", "v", false, "print key passes and shots of each loaded match")
}

func runLoad(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if loadMatchesFile != "" {
		rc, err := parser.Open(loadMatchesFile)
		if err != nil {
			return err
		}
		matches, err := parser.DecodeMatches(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", loadMatchesFile, err)
		}
		if err := db.InsertMatches(cfg.CompetitionID, cfg.SeasonID, matches); err != nil {
			return fmt.Errorf("store matches: %w", err)
		}
		fmt.Printf("Stored %d matches for competition %d / season %d\n",
			len(matches), cfg.CompetitionID, cfg.SeasonID)
	}

	failed := 0
	for _, path := range args {
		fmt.Printf("Loading %s ... ", path)
		matchID, tl, err := parser.ParseEventsFile(path)
		if err != nil {
			failed++
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if err := db.InsertEvents(matchID, tl); err != nil {
			failed++
			cError.Fprintf(os.Stderr, "store: %v\n", err)
			continue
		}
		cOK.Printf("match %d, %d events\n", matchID, len(tl))

		if !loadVerbose {
			continue
		}
		tables, err := aggregator.BuildMatchTables(matchID, tl)
		if err != nil {
			cWarn.Fprintf(os.Stderr, "  %v\n", err)
			continue
		}
		report.PrintKeyPassTable(os.Stdout, tables.Passes, tables.KeyPasses)
		report.PrintShotTable(os.Stdout, aggregator.ShotsByIndex(tables.Shots))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to load", failed, len(args))
	}
	return nil
}
