package cmd

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-football-metrics/internal/aggregator"
	"github.com/pable/go-football-metrics/internal/model"
	"github.com/pable/go-football-metrics/internal/report"
)

var xgPerMatch bool

// xgCmd prints average xG at competition, team and player level.
var xgCmd = &cobra.Command{
	Use:   "xg [<player>...]",
	Short: "Average expected goals per shot for the competition, team and players",
	Long: `Averages every defined xG value over the season's matches (competition),
over the configured team's matches (both sides), and over each player's events
in the team's matches. Players default to the configured ones. Events missing
from the cache are fetched.`,
	RunE: runXG,
}

func init() {
	xgCmd.Flags().BoolVar(&xgPerMatch, "per-match", false, "also print the average of each of the team's matches")
}

func runXG(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	players := args
	if len(players) == 0 {
		players = cfg.Players
	}

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
	ids := aggregator.MatchesFor(matches, cfg.Team)
	var teamMatches []model.Match
	for _, m := range matches {
		if m.Involves(cfg.Team) {
			teamMatches = append(teamMatches, m)
		}
	}

	var rows []report.XGRow
	add := func(scope string, v float64, err error) error {
		switch {
		case err == nil:
			rows = append(rows, report.XGRow{Scope: scope, XG: v})
		case errors.Is(err, aggregator.ErrMissingData):
			rows = append(rows, report.XGRow{Scope: scope, XG: math.NaN(), Note: "no shots with xG"})
		case errors.Is(err, aggregator.ErrNotFound):
			rows = append(rows, report.XGRow{Scope: scope, XG: math.NaN(), Note: err.Error()})
		default:
			return err
		}
		return nil
	}

	v, err := aggregator.AverageCompetitionXG(ctx, src, matches)
	if err := add(fmt.Sprintf("competition %d / %d (%d matches)", cfg.CompetitionID, cfg.SeasonID, len(matches)), v, err); err != nil {
		return err
	}
	v, err = aggregator.AverageCompetitionXG(ctx, src, teamMatches)
	if err := add(fmt.Sprintf("%s matches (%d)", cfg.Team, len(teamMatches)), v, err); err != nil {
		return err
	}
	if xgPerMatch {
		for _, m := range teamMatches {
			tl, err := src.Events(ctx, m.ID)
			if err != nil {
				return fmt.Errorf("events for match %d: %w", m.ID, err)
			}
			v, err := aggregator.AverageXG(m.ID, tl)
			if err := add("  vs "+m.Opponent(cfg.Team)+" ("+strconv.Itoa(m.ID)+")", v, err); err != nil {
				return err
			}
		}
	}
	for _, p := range players {
		v, err := aggregator.AveragePlayerXG(ctx, src, matches, ids, p)
		if err := add(p, v, err); err != nil {
			return err
		}
	}

	report.PrintXGTable(os.Stdout, rows)
	return nil
}
