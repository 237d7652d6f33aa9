package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-football-metrics/internal/aggregator"
	"github.com/pable/go-football-metrics/internal/model"
	"github.com/pable/go-football-metrics/internal/report"
	"github.com/pable/go-football-metrics/internal/source"
	"github.com/pable/go-football-metrics/internal/storage"
)

var showPlayer string

var showCmd = &cobra.Command{
	Use:   "show <match-id>",
	Short: "Show key passes, shots and tracked-player lines of one match",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPlayer, "player", "", "only list this player's shots and key passes")
}

func runShow(cmd *cobra.Command, args []string) error {
	matchID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("match id %q: %w", args[0], err)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	src, closeSrc, err := openSource(cmd.Context(), db)
	if err != nil {
		return err
	}
	defer closeSrc()

	return showMatch(cmd.Context(), os.Stdout, db, src, matchID, showPlayer)
}

// showMatch prints one match. The header needs the match list to be stored;
// the tables only need the events.
func showMatch(ctx context.Context, w io.Writer, db *storage.DB, src *source.Cached, matchID int, player string) error {
	m, err := db.GetMatch(matchID)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if m != nil {
		report.PrintMatchSummary(w, *m)
	} else {
		fmt.Fprintf(w, "\nMatch %d\n\n", matchID)
	}

	tl, err := src.Events(ctx, matchID)
	if err != nil {
		return fmt.Errorf("events: %w", err)
	}
	tables, err := aggregator.BuildMatchTables(matchID, tl)
	if err != nil {
		return err
	}

	players := cfg.Players
	if player != "" {
		players = []string{player}
	}
	rows := make([]model.PlayerMatchReport, 0, len(players))
	for _, p := range players {
		r := tables.Summarize(p)
		if m != nil {
			r.Opponent = m.Opponent(cfg.Team)
		}
		if m != nil && m.HasTeamID(cfg.TeamID) {
			if name := tables.OpponentName(cfg.TeamID); name != "" {
				r.Opponent = name
			}
		}
		rows = append(rows, r)
	}
	report.PrintPlayerTableTo(w, rows, player)

	passes, shots := tables.Passes, aggregator.ShotsByIndex(tables.Shots)
	if player != "" {
		passes, shots = tables.PlayerPasses(player), tables.PlayerShots(player)
	}
	fmt.Fprintf(w, "\nKey passes (%d in match)\n", len(tables.KeyPasses))
	report.PrintKeyPassTable(w, passes, tables.KeyPasses)
	fmt.Fprintf(w, "\nShots\n")
	report.PrintShotTable(w, shots)

	if xg, err := aggregator.AverageXG(matchID, tl); err == nil {
		fmt.Fprintf(w, "\nAverage xG per shot: %.3f\n", xg)
	}
	return nil
}
