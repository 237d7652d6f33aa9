package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pable/go-football-metrics/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// xgStr formats an xG value; NaN renders as a dash.
func xgStr(v float64) string {
	if math.IsNaN(v) {
		return "—"
	}
	return fmt.Sprintf("%.3f", v)
}

// PrintMatchSummary prints a one-line summary header for the match.
func PrintMatchSummary(w io.Writer, m model.Match) {
	stage := ""
	if m.Stage != "" {
		stage = "  |  " + m.Stage
	}
	fmt.Fprintf(w, "\n%s %d – %d %s  |  Date: %s%s  |  Match: %d\n\n",
		m.HomeTeam, m.HomeScore, m.AwayScore, m.AwayTeam, m.Date, stage, m.ID)
}

// PrintCompetitions lists competition seasons.
func PrintCompetitions(w io.Writer, comps []model.Competition) {
	table := newTable(w)
	table.Header("COMP", "SEASON", "COMPETITION", "SEASON NAME", "COUNTRY", "GENDER")
	for _, c := range comps {
		table.Append(
			strconv.Itoa(c.CompetitionID),
			strconv.Itoa(c.SeasonID),
			c.CompetitionName,
			c.SeasonName,
			c.CountryName,
			c.Gender,
		)
	}
	table.Render()
}

// PrintMatchList prints matches with the opponent of team. If team is empty
// both sides are shown.
func PrintMatchList(w io.Writer, matches []model.Match, team string) {
	table := newTable(w)
	if team == "" {
		table.Header("MATCH", "DATE", "STAGE", "HOME", "SCORE", "AWAY")
		for _, m := range matches {
			table.Append(
				strconv.Itoa(m.ID), m.Date, m.Stage, m.HomeTeam,
				fmt.Sprintf("%d – %d", m.HomeScore, m.AwayScore), m.AwayTeam,
			)
		}
		table.Render()
		return
	}

	table.Header("MATCH", "DATE", "STAGE", "OPPONENT", "VENUE", "RESULT")
	for _, m := range matches {
		if !m.Involves(team) {
			continue
		}
		venue, gf, ga := "H", m.HomeScore, m.AwayScore
		if m.AwayTeam == team {
			venue, gf, ga = "A", m.AwayScore, m.HomeScore
		}
		table.Append(
			strconv.Itoa(m.ID), m.Date, m.Stage, m.Opponent(team), venue,
			fmt.Sprintf("%s %d-%d", outcomeLetter(gf, ga), gf, ga),
		)
	}
	table.Render()
}

func outcomeLetter(gf, ga int) string {
	switch {
	case gf > ga:
		return "W"
	case gf < ga:
		return "L"
	default:
		return "D"
	}
}

// PrintPlayerTable prints one row per report to stdout.
// If focus is non-empty, that player's row is marked with ">".
func PrintPlayerTable(reports []model.PlayerMatchReport, focus string) {
	PrintPlayerTableTo(os.Stdout, reports, focus)
}

// PrintPlayerTableTo writes the table to the provided writer.
func PrintPlayerTableTo(w io.Writer, reports []model.PlayerMatchReport, focus string) {
	table := newTable(w)
	table.Header(" ", "PLAYER", "TEAM", "OPPONENT", "PASSES", "KEY", "SHOTS", "GOALS", "xG", "xG/SHOT", "CONV%")

	for i := range reports {
		r := &reports[i]
		marker := " "
		if focus != "" && r.Player == focus {
			marker = ">"
		}
		avg := "—"
		if r.XGShots > 0 {
			avg = fmt.Sprintf("%.3f", r.AvgXG())
		}
		table.Append(
			marker,
			r.Player,
			r.Team,
			r.Opponent,
			strconv.Itoa(r.Passes),
			strconv.Itoa(r.KeyPasses),
			strconv.Itoa(r.Shots),
			strconv.Itoa(r.Goals),
			fmt.Sprintf("%.2f", r.XGTotal),
			avg,
			fmt.Sprintf("%.0f%%", r.ConversionPct()),
		)
	}
	table.Render()
}

// PrintImages lists the diagram files written for each report.
func PrintImages(w io.Writer, reports []model.PlayerMatchReport) {
	table := newTable(w)
	table.Header("MATCH", "PLAYER", "PASS MAP", "SHOT MAP")
	for _, r := range reports {
		if r.PassImage == "" && r.ShotImage == "" {
			continue
		}
		table.Append(strconv.Itoa(r.MatchID), r.Player, r.PassImage, r.ShotImage)
	}
	table.Render()
}

// PrintPlayerMatches prints one player's matches in order, for trend views.
func PrintPlayerMatches(w io.Writer, reports []model.PlayerMatchReport) {
	table := newTable(w)
	table.Header("#", "DATE", "OPPONENT", "PASSES", "KEY", "SHOTS", "GOALS", "xG", "CUM GOALS", "CUM xG", "G-xG")

	var goals int
	var xg float64
	for i, r := range reports {
		goals += r.Goals
		xg += r.XGTotal
		table.Append(
			strconv.Itoa(i+1),
			r.MatchDate,
			r.Opponent,
			strconv.Itoa(r.Passes),
			strconv.Itoa(r.KeyPasses),
			strconv.Itoa(r.Shots),
			strconv.Itoa(r.Goals),
			fmt.Sprintf("%.2f", r.XGTotal),
			strconv.Itoa(goals),
			fmt.Sprintf("%.2f", xg),
			fmt.Sprintf("%+.2f", float64(goals)-xg),
		)
	}
	table.Render()
}

// PrintPlayerAggregateOverview prints totals per player across matches,
// with a 95% interval on the conversion rate.
func PrintPlayerAggregateOverview(w io.Writer, aggs []model.PlayerAggregate) {
	table := newTable(w)
	table.Header("PLAYER", "TEAM", "MATCHES", "PASSES", "KEY", "KEY/M", "SHOTS", "GOALS",
		"xG", "xG/SHOT", "CONV%", "CONV 95% CI", "SAMPLE")

	for _, a := range aggs {
		avg := "—"
		if a.XGShots > 0 {
			avg = fmt.Sprintf("%.3f", a.AvgXG())
		}
		ci := "—"
		if a.Shots > 0 {
			lo, hi := wilsonCI(a.Goals, a.Shots)
			ci = fmt.Sprintf("%.0f–%.0f%%", lo*100, hi*100)
		}
		table.Append(
			a.Player,
			a.Team,
			strconv.Itoa(a.Matches),
			strconv.Itoa(a.Passes),
			strconv.Itoa(a.KeyPasses),
			fmt.Sprintf("%.1f", a.KeyPassesPerMatch()),
			strconv.Itoa(a.Shots),
			strconv.Itoa(a.Goals),
			fmt.Sprintf("%.2f", a.XGTotal),
			avg,
			fmt.Sprintf("%.0f%%", a.ConversionPct()),
			ci,
			sampleFlag(a.Shots),
		)
	}
	table.Render()
}

// XGRow is one line of the xG table.
type XGRow struct {
	Scope string
	XG    float64 // NaN when undefined
	Note  string
}

// PrintXGTable prints average xG per scope (competition, team, player).
func PrintXGTable(w io.Writer, rows []XGRow) {
	table := newTable(w)
	table.Header("SCOPE", "AVG xG", "NOTE")
	for _, r := range rows {
		table.Append(r.Scope, xgStr(r.XG), r.Note)
	}
	table.Render()
}

// PrintRunsTable lists report runs, newest first.
func PrintRunsTable(w io.Writer, runs []model.ReportRun) {
	table := newTable(w)
	table.Header("RUN", "STARTED", "COMP", "SEASON", "TEAM", "PLAYERS", "MATCHES", "FAILED")
	for _, r := range runs {
		table.Append(
			shortID(r.ID),
			r.StartedAt,
			strconv.Itoa(r.CompetitionID),
			strconv.Itoa(r.SeasonID),
			r.Team,
			strings.Join(r.Players, ", "),
			strconv.Itoa(r.Matches),
			strconv.Itoa(r.Failed),
		)
	}
	table.Render()
}

// PrintShotTable lists shots in timeline order.
func PrintShotTable(w io.Writer, shots []model.ShotRecord) {
	table := newTable(w)
	table.Header("IDX", "PLAYER", "TEAM", "X", "Y", "OUTCOME", "xG")
	for _, s := range shots {
		table.Append(
			strconv.Itoa(s.Index),
			s.Player,
			s.TeamName,
			fmt.Sprintf("%.1f", s.Location.X),
			fmt.Sprintf("%.1f", s.Location.Y),
			s.Outcome,
			xgStr(s.XG),
		)
	}
	table.Render()
}

// PrintKeyPassTable lists the key passes of a match.
func PrintKeyPassTable(w io.Writer, passes []model.PassRecord, keys model.KeyPassIndexSet) {
	table := newTable(w)
	table.Header("IDX", "PLAYER", "TEAM", "FROM", "TO")
	for _, p := range passes {
		if !keys.Contains(p.Index) {
			continue
		}
		table.Append(
			strconv.Itoa(p.Index),
			p.Player,
			p.TeamName,
			fmt.Sprintf("%.0f,%.0f", p.Origin.X, p.Origin.Y),
			fmt.Sprintf("%.0f,%.0f", p.Dest.X, p.Dest.Y),
		)
	}
	table.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func sampleFlag(n int) string {
	switch {
	case n >= 30:
		return "OK"
	case n >= 10:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

// wilsonCI computes the 95% Wilson score confidence interval for a proportion.
// Returns (lo, hi) as fractions in [0, 1].
func wilsonCI(hits, n int) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := 1.96
	p := float64(hits) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}
