package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-football-metrics/internal/aggregator"
	"github.com/pable/go-football-metrics/internal/config"
)

var fetchAll bool

// fetchCmd warms the event cache for a season.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a season's match list and event files into the cache",
	Long: `Fetches the match list of the configured competition season and the
event file of every match the configured team played (or of every match with
--all), storing them in the event cache. Matches already cached are skipped.

Examples:
  # France at Euro 2020 (the defaults)
  fbmetrics fetch

  # Every match of the 2022 World Cup, cached in Redis
  fbmetrics fetch --competition 43 --season 106 --all --cache redis://localhost:6379/0`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchAll, "all", false, "fetch every match of the season, not just the team's")
}

func runFetch(cmd *cobra.Command, args []string) error {
	if cfg.Cache == config.CacheNone {
		return fmt.Errorf("fetch needs a persistent cache; got cache=%q", cfg.Cache)
	}
	ctx := cmd.Context()

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	src, closeSrc, err := openSource(ctx, db)
	if err != nil {
		return err
	}
	defer closeSrc()

	matches, err := src.Matches(ctx, cfg.CompetitionID, cfg.SeasonID)
	if err != nil {
		return fmt.Errorf("match list: %w", err)
	}
	// Redis keeps only events; the match list always lands in sqlite.
	if cfg.UsesRedis() {
		if err := db.InsertMatches(cfg.CompetitionID, cfg.SeasonID, matches); err != nil {
			return fmt.Errorf("store matches: %w", err)
		}
	}

	ids := aggregator.MatchesFor(matches, cfg.Team)
	if fetchAll {
		ids = ids[:0]
		for _, m := range matches {
			ids = append(ids, m.ID)
		}
	}
	fmt.Printf("Competition %d / season %d: %d matches, fetching %d\n",
		cfg.CompetitionID, cfg.SeasonID, len(matches), len(ids))

	failed := 0
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Printf("[%d/%d] match %d  ", i+1, len(ids), id)
		_, missesBefore := src.Stats()
		tl, err := src.Events(ctx, id)
		if err != nil {
			failed++
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			if !cfg.KeepGoing {
				return fmt.Errorf("match %d: %w", id, err)
			}
			continue
		}
		if _, misses := src.Stats(); misses == missesBefore {
			cMuted.Printf("cached (%d events)\n", len(tl))
			continue
		}
		cOK.Printf("stored %d events\n", len(tl))
	}

	hits, misses := src.Stats()
	fmt.Printf("\nDone: %d fetched, %d already cached, %d failed\n", int(misses)-failed, hits, failed)
	return nil
}
