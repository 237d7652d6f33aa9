// Package pipeline runs a report: it selects a team's matches, derives pass,
// key-pass and shot tables per match, hands them to the renderer per tracked
// player, and records the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pable/go-football-metrics/internal/aggregator"
	"github.com/pable/go-football-metrics/internal/model"
)

// Source yields match lists and event timelines.
type Source interface {
	Matches(ctx context.Context, competitionID, seasonID int) ([]model.Match, error)
	Events(ctx context.Context, matchID int) (model.Timeline, error)
}

// Renderer draws the two diagrams of one player in one match and returns the
// written paths.
type Renderer interface {
	Passes(matchID int, player, opponent string, records []model.PassRecord, keys model.KeyPassIndexSet) (string, error)
	Shots(matchID int, player, opponent string, records []model.ShotRecord) (string, error)
}

// Recorder persists finished runs.
type Recorder interface {
	InsertReportRun(run model.ReportRun) error
	InsertPlayerMatchReports(reports []model.PlayerMatchReport) error
}

// Options selects what a run reports on.
type Options struct {
	CompetitionID int
	SeasonID      int
	Team          string
	TeamID        int // 0 means opponents come from the match list only
	Players       []string

	// KeepGoing skips a failing match instead of aborting the run.
	KeepGoing bool
}

// MatchFailure is a match skipped under KeepGoing.
type MatchFailure struct {
	MatchID int
	Err     error
}

// Result is the outcome of one run.
type Result struct {
	Run      model.ReportRun
	Matches  []model.Match // the team's matches, provider order
	Reports  []model.PlayerMatchReport
	Failures []MatchFailure

	// PlayerXG is each player's mean xG over the reported matches; NaN when
	// the player had no shot with a defined value.
	PlayerXG map[string]float64
}

// Driver sequences a run. Renderer and Recorder are optional.
type Driver struct {
	src      Source
	renderer Renderer
	recorder Recorder
	log      *logrus.Entry
	now      func() time.Time
}

// New returns a Driver. renderer and recorder may be nil.
func New(src Source, renderer Renderer, recorder Recorder, log *logrus.Entry) *Driver {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Driver{src: src, renderer: renderer, recorder: recorder, log: log, now: time.Now}
}

// Run executes one report. Matches are processed serially in provider order.
// Without KeepGoing the first failing match aborts the run and nothing is
// recorded.
func (d *Driver) Run(ctx context.Context, opts Options) (*Result, error) {
	all, err := d.src.Matches(ctx, opts.CompetitionID, opts.SeasonID)
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}

	res := &Result{
		Run: model.ReportRun{
			ID:            uuid.New().String(),
			StartedAt:     d.now().UTC().Format(time.RFC3339Nano),
			CompetitionID: opts.CompetitionID,
			SeasonID:      opts.SeasonID,
			Team:          opts.Team,
			Players:       opts.Players,
		},
		PlayerXG: make(map[string]float64, len(opts.Players)),
	}

	ids := aggregator.MatchesFor(all, opts.Team)
	opponents := aggregator.OpponentsFor(all, opts.Team)
	byID := make(map[int]model.Match, len(all))
	for _, m := range all {
		byID[m.ID] = m
	}
	for _, id := range ids {
		res.Matches = append(res.Matches, byID[id])
	}
	if len(ids) == 0 {
		d.log.WithField("team", opts.Team).Warn("team played no matches in this season")
	}

	var done []int
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log := d.log.WithFields(logrus.Fields{"match_id": id, "opponent": opponents[i]})

		reports, err := d.reportMatch(ctx, res.Run.ID, byID[id], opponents[i], opts)
		if err != nil {
			if !opts.KeepGoing {
				return nil, fmt.Errorf("match %d: %w", id, err)
			}
			log.WithError(err).Warn("match skipped")
			res.Failures = append(res.Failures, MatchFailure{MatchID: id, Err: err})
			continue
		}
		log.WithField("players", len(reports)).Info("match reported")
		res.Reports = append(res.Reports, reports...)
		done = append(done, id)
	}
	res.Run.Matches = len(done)
	res.Run.Failed = len(res.Failures)

	for _, p := range opts.Players {
		xg, err := aggregator.AveragePlayerXG(ctx, d.src, all, done, p)
		switch {
		case err == nil:
			res.PlayerXG[p] = xg
		case errors.Is(err, aggregator.ErrMissingData), errors.Is(err, aggregator.ErrNotFound):
			res.PlayerXG[p] = math.NaN()
		default:
			return nil, fmt.Errorf("average xG for %s: %w", p, err)
		}
	}

	if d.recorder != nil {
		if err := d.recorder.InsertReportRun(res.Run); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
		if err := d.recorder.InsertPlayerMatchReports(res.Reports); err != nil {
			return nil, fmt.Errorf("record reports: %w", err)
		}
	}
	return res, nil
}

func (d *Driver) reportMatch(ctx context.Context, runID string, m model.Match, opponent string, opts Options) ([]model.PlayerMatchReport, error) {
	events, err := d.src.Events(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	tables, err := aggregator.BuildMatchTables(m.ID, events)
	if err != nil {
		return nil, err
	}
	if m.HasTeamID(opts.TeamID) {
		if name := tables.OpponentName(opts.TeamID); name != "" {
			opponent = name
		}
	}

	reports := make([]model.PlayerMatchReport, 0, len(opts.Players))
	for _, player := range opts.Players {
		r := tables.Summarize(player)
		r.RunID = runID
		r.MatchDate = m.Date
		r.Opponent = opponent
		if r.Team == "" {
			r.Team = opts.Team
		}

		if d.renderer != nil {
			if r.PassImage, err = d.renderer.Passes(m.ID, player, opponent, tables.PlayerPasses(player), tables.KeyPasses); err != nil {
				return nil, fmt.Errorf("render passes of %s: %w", player, err)
			}
			if r.ShotImage, err = d.renderer.Shots(m.ID, player, opponent, tables.PlayerShots(player)); err != nil {
				return nil, fmt.Errorf("render shots of %s: %w", player, err)
			}
		}
		reports = append(reports, r)
	}
	return reports, nil
}
