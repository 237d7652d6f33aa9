package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/pable/go-football-metrics/internal/model"
)

// InsertCompetitions upserts competition/season rows.
func (db *DB) InsertCompetitions(comps []model.Competition) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO competitions(
			competition_id, season_id, competition_name, season_name, country_name, gender
		) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range comps {
		if _, err := stmt.Exec(c.CompetitionID, c.SeasonID, c.CompetitionName, c.SeasonName, c.CountryName, c.Gender); err != nil {
			return fmt.Errorf("insert competition %d/%d: %w", c.CompetitionID, c.SeasonID, err)
		}
	}
	return tx.Commit()
}

// ListCompetitions returns all stored competitions ordered by name and season.
func (db *DB) ListCompetitions() ([]model.Competition, error) {
	rows, err := db.conn.Query(`
		SELECT competition_id, season_id, competition_name, season_name, country_name, gender
		FROM competitions
		ORDER BY competition_name, season_name DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Competition
	for rows.Next() {
		var c model.Competition
		if err := rows.Scan(&c.CompetitionID, &c.SeasonID, &c.CompetitionName, &c.SeasonName, &c.CountryName, &c.Gender); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertMatches replaces the stored match list for one competition season.
// The provider's order is kept in the seq column.
func (db *DB) InsertMatches(competitionID, seasonID int, matches []model.Match) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM matches WHERE competition_id = ? AND season_id = ?", competitionID, seasonID); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO matches(
			match_id, competition_id, season_id, seq, match_date, kick_off,
			home_team_id, home_team, away_team_id, away_team,
			home_score, away_score, stage
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range matches {
		_, err := stmt.Exec(
			m.ID, competitionID, seasonID, i, m.Date, m.KickOff,
			m.HomeTeamID, m.HomeTeam, m.AwayTeamID, m.AwayTeam,
			m.HomeScore, m.AwayScore, m.Stage,
		)
		if err != nil {
			return fmt.Errorf("insert match %d: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

const matchColumns = `match_id, competition_id, season_id, match_date, kick_off,
	home_team_id, home_team, away_team_id, away_team, home_score, away_score, stage`

func scanMatch(s interface{ Scan(...any) error }) (model.Match, error) {
	var m model.Match
	err := s.Scan(
		&m.ID, &m.CompetitionID, &m.SeasonID, &m.Date, &m.KickOff,
		&m.HomeTeamID, &m.HomeTeam, &m.AwayTeamID, &m.AwayTeam,
		&m.HomeScore, &m.AwayScore, &m.Stage,
	)
	return m, err
}

// GetMatches returns the stored matches of a competition season in provider
// order. An empty result means the season was never fetched.
func (db *DB) GetMatches(competitionID, seasonID int) ([]model.Match, error) {
	rows, err := db.conn.Query(`SELECT `+matchColumns+`
		FROM matches WHERE competition_id = ? AND season_id = ?
		ORDER BY seq`, competitionID, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMatch returns a single match by id, or nil if it is not stored.
func (db *DB) GetMatch(matchID int) (*model.Match, error) {
	row := db.conn.QueryRow(`SELECT `+matchColumns+` FROM matches WHERE match_id = ?`, matchID)
	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// EventsExist returns true if the events of a match have been stored, even
// when the match had no events.
func (db *DB) EventsExist(matchID int) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM event_fetches WHERE match_id = ?", matchID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertEvents replaces the stored events of one match in a transaction.
func (db *DB) InsertEvents(matchID int, events model.Timeline) error {
	return db.SaveEvents(context.Background(), matchID, events)
}

// SaveEvents is InsertEvents with a context; it satisfies the event cache
// store interface.
func (db *DB) SaveEvents(ctx context.Context, matchID int, events model.Timeline) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM events WHERE match_id = ?", matchID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO events(
			match_id, idx, event_id, period, minute, second,
			type, sub_type, player, team_id, team_name,
			x, y, end_x, end_y, outcome, xg
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.ExecContext(ctx,
			matchID, e.Index, e.ID.String(), e.Period, e.Minute, e.Second,
			e.Type, e.SubType, e.Player, e.TeamID, e.TeamName,
			e.Location.X, e.Location.Y, e.EndLocation.X, e.EndLocation.Y,
			e.Outcome, nullFloat(e.XG),
		)
		if err != nil {
			return fmt.Errorf("insert event %d of match %d: %w", e.Index, matchID, err)
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO event_fetches(match_id, fetched_at, events) VALUES (?, ?, ?)`,
		matchID, time.Now().UTC().Format(time.RFC3339), len(events))
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetEvents returns the stored timeline of a match ordered by index.
func (db *DB) GetEvents(matchID int) (model.Timeline, error) {
	tl, _, err := db.LoadEvents(context.Background(), matchID)
	return tl, err
}

// LoadEvents returns the stored timeline of a match. ok is false when the
// match's events were never stored.
func (db *DB) LoadEvents(ctx context.Context, matchID int) (tl model.Timeline, ok bool, err error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(1) FROM event_fetches WHERE match_id = ?", matchID).Scan(&count); err != nil {
		return nil, false, err
	}
	if count == 0 {
		return nil, false, nil
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT idx, event_id, period, minute, second,
			type, sub_type, player, team_id, team_name,
			x, y, end_x, end_y, outcome, xg
		FROM events WHERE match_id = ?
		ORDER BY idx`, matchID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	tl = model.Timeline{}
	for rows.Next() {
		e := model.Event{MatchID: matchID}
		var id string
		var xg sql.NullFloat64
		err := rows.Scan(
			&e.Index, &id, &e.Period, &e.Minute, &e.Second,
			&e.Type, &e.SubType, &e.Player, &e.TeamID, &e.TeamName,
			&e.Location.X, &e.Location.Y, &e.EndLocation.X, &e.EndLocation.Y,
			&e.Outcome, &xg,
		)
		if err != nil {
			return nil, false, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, false, fmt.Errorf("stored event %d of match %d: %w", e.Index, matchID, err)
		}
		e.XG = math.NaN()
		if xg.Valid {
			e.XG = xg.Float64
		}
		tl = append(tl, e)
	}
	return tl, true, rows.Err()
}

// InsertReportRun records one execution of the reporting driver.
func (db *DB) InsertReportRun(run model.ReportRun) error {
	players, err := json.Marshal(run.Players)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(`
		INSERT OR REPLACE INTO report_runs(run_id, started_at, competition_id, season_id, team, players, matches, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.CompetitionID, run.SeasonID, run.Team, string(players), run.Matches, run.Failed,
	)
	return err
}

// ListReportRuns returns the most recent runs first. limit <= 0 returns all.
func (db *DB) ListReportRuns(limit int) ([]model.ReportRun, error) {
	q := `SELECT run_id, started_at, competition_id, season_id, team, players, matches, failed
		FROM report_runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReportRun
	for rows.Next() {
		var r model.ReportRun
		var players string
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.CompetitionID, &r.SeasonID, &r.Team, &players, &r.Matches, &r.Failed); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(players), &r.Players); err != nil {
			return nil, fmt.Errorf("run %s players: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertPlayerMatchReports bulk-inserts report rows in a transaction.
func (db *DB) InsertPlayerMatchReports(reports []model.PlayerMatchReport) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_match_reports(
			run_id, match_id, player, team, opponent,
			passes, key_passes, shots, goals, xg_shots, xg_total,
			pass_image, shot_image
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range reports {
		_, err := stmt.Exec(
			r.RunID, r.MatchID, r.Player, r.Team, r.Opponent,
			r.Passes, r.KeyPasses, r.Shots, r.Goals, r.XGShots, r.XGTotal,
			r.PassImage, r.ShotImage,
		)
		if err != nil {
			return fmt.Errorf("insert report for %s in match %d: %w", r.Player, r.MatchID, err)
		}
	}
	return tx.Commit()
}

const reportSelect = `
	SELECT r.run_id, r.match_id, COALESCE(m.match_date, ''), r.player, r.team, r.opponent,
		r.passes, r.key_passes, r.shots, r.goals, r.xg_shots, r.xg_total,
		r.pass_image, r.shot_image
	FROM player_match_reports r
	JOIN report_runs run ON run.run_id = r.run_id
	LEFT JOIN matches m ON m.match_id = r.match_id`

func (db *DB) queryReports(q string, args ...any) ([]model.PlayerMatchReport, error) {
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerMatchReport
	for rows.Next() {
		var r model.PlayerMatchReport
		err := rows.Scan(
			&r.RunID, &r.MatchID, &r.MatchDate, &r.Player, &r.Team, &r.Opponent,
			&r.Passes, &r.KeyPasses, &r.Shots, &r.Goals, &r.XGShots, &r.XGTotal,
			&r.PassImage, &r.ShotImage,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRunReports returns every report row of one run.
func (db *DB) GetRunReports(runID string) ([]model.PlayerMatchReport, error) {
	return db.queryReports(reportSelect+`
		WHERE r.run_id = ?
		ORDER BY m.seq, r.match_id, r.player`, runID)
}

// GetPlayerReports returns a player's report rows, one per match, taking
// each match from the latest run that covered it. Rows are ordered by
// match date, oldest first.
func (db *DB) GetPlayerReports(player string) ([]model.PlayerMatchReport, error) {
	return db.queryReports(reportSelect+`
		WHERE r.player = ?
		  AND run.started_at = (
			SELECT MAX(run2.started_at)
			FROM player_match_reports r2
			JOIN report_runs run2 ON run2.run_id = r2.run_id
			WHERE r2.player = r.player AND r2.match_id = r.match_id
		  )
		ORDER BY COALESCE(m.match_date, ''), r.match_id`, player)
}

// GetMatchReports returns the latest report rows for one match.
func (db *DB) GetMatchReports(matchID int) ([]model.PlayerMatchReport, error) {
	return db.queryReports(reportSelect+`
		WHERE r.match_id = ?
		  AND run.started_at = (
			SELECT MAX(run2.started_at)
			FROM player_match_reports r2
			JOIN report_runs run2 ON run2.run_id = r2.run_id
			WHERE r2.match_id = r.match_id
		  )
		ORDER BY r.player`, matchID)
}

// GetPlayerAggregates sums each player's latest per-match reports.
func (db *DB) GetPlayerAggregates() ([]model.PlayerAggregate, error) {
	rows, err := db.conn.Query(`
		SELECT player FROM player_match_reports GROUP BY player ORDER BY player`)
	if err != nil {
		return nil, err
	}
	var players []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, err
		}
		players = append(players, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.PlayerAggregate, 0, len(players))
	for _, p := range players {
		reports, err := db.GetPlayerReports(p)
		if err != nil {
			return nil, fmt.Errorf("reports for %s: %w", p, err)
		}
		out = append(out, Aggregate(p, reports))
	}
	return out, nil
}

// Aggregate sums a player's report rows.
func Aggregate(player string, reports []model.PlayerMatchReport) model.PlayerAggregate {
	a := model.PlayerAggregate{Player: player}
	for _, r := range reports {
		a.Matches++
		if a.Team == "" {
			a.Team = r.Team
		}
		a.Passes += r.Passes
		a.KeyPasses += r.KeyPasses
		a.Shots += r.Shots
		a.Goals += r.Goals
		a.XGShots += r.XGShots
		a.XGTotal += r.XGTotal
	}
	return a
}

// DBOverview holds headline counts for the summary command.
type DBOverview struct {
	Competitions  int
	Matches       int
	MatchesCached int
	Events        int
	Players       int
	Runs          int
	EarliestMatch string
	LatestMatch   string
	LatestRun     string
}

// GetDBOverview returns headline counts across all tables.
func (db *DB) GetDBOverview() (*DBOverview, error) {
	var ov DBOverview
	err := db.conn.QueryRow(`
		SELECT
			(SELECT COUNT(1) FROM competitions),
			(SELECT COUNT(1) FROM matches),
			(SELECT COUNT(1) FROM event_fetches),
			(SELECT COUNT(1) FROM events),
			(SELECT COUNT(DISTINCT player) FROM events WHERE player != ''),
			(SELECT COUNT(1) FROM report_runs),
			COALESCE((SELECT MIN(match_date) FROM matches WHERE match_date != ''), ''),
			COALESCE((SELECT MAX(match_date) FROM matches WHERE match_date != ''), ''),
			COALESCE((SELECT MAX(started_at) FROM report_runs), '')`).Scan(
		&ov.Competitions, &ov.Matches, &ov.MatchesCached, &ov.Events, &ov.Players,
		&ov.Runs, &ov.EarliestMatch, &ov.LatestMatch, &ov.LatestRun,
	)
	if err != nil {
		return nil, err
	}
	return &ov, nil
}

// QueryRaw runs an arbitrary query and returns the column names and every row
// rendered as strings. NULL values render as "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			case float64:
				row[i] = fmt.Sprintf("%.4g", x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

// Drop deletes every stored row. Reports go first so foreign keys hold.
func (db *DB) Drop() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, table := range []string{"player_match_reports", "report_runs", "events", "event_fetches", "matches", "competitions"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
