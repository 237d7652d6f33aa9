package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the metrics database",
	Long: `Run an arbitrary SQL query against the metrics database and print results as a table.

Schema overview:
  competitions(competition_id, season_id, competition_name, season_name, country_name, gender)
  matches(match_id, competition_id, season_id, seq, match_date, kick_off,
    home_team_id, home_team, away_team_id, away_team, home_score, away_score, stage)
  events(match_id, idx, event_id, period, minute, second, type, sub_type,
    player, team_id, team_name, x, y, end_x, end_y, outcome, xg)
  event_fetches(match_id, fetched_at, events)
  report_runs(run_id, started_at, competition_id, season_id, team, players, matches, failed)
  player_match_reports(run_id, match_id, player, team, opponent, passes, key_passes,
    shots, goals, xg_shots, xg_total, pass_image, shot_image)

Note: xg is NULL for events without a value. Example:
  fbmetrics sql "SELECT player, COUNT(1), AVG(xg) FROM events WHERE type = 'Shot' GROUP BY player ORDER BY 3 DESC LIMIT 10"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}

