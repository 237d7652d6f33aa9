package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/pable/go-football-metrics/internal/model"
	"github.com/pable/go-football-metrics/internal/storage"
)

const (
	france  = 771
	germany = 770
	hungary = 767
	italy   = 914
	wales   = 907
)

type fakeSource struct {
	matches []model.Match
	events  map[int]model.Timeline
	fail    map[int]error
}

func (f *fakeSource) Matches(ctx context.Context, comp, season int) ([]model.Match, error) {
	return f.matches, nil
}

func (f *fakeSource) Events(ctx context.Context, matchID int) (model.Timeline, error) {
	if err := f.fail[matchID]; err != nil {
		return nil, err
	}
	tl, ok := f.events[matchID]
	if !ok {
		return nil, fmt.Errorf("no events for %d", matchID)
	}
	return tl, nil
}

type renderCall struct {
	kind     string
	matchID  int
	player   string
	opponent string
	records  int
	keys     int
}

type fakeRenderer struct {
	calls []renderCall
}

func (r *fakeRenderer) Passes(matchID int, player, opponent string, records []model.PassRecord, keys model.KeyPassIndexSet) (string, error) {
	r.calls = append(r.calls, renderCall{"passes", matchID, player, opponent, len(records), len(keys)})
	return fmt.Sprintf("img/%d_%s_passes.png", matchID, player), nil
}

func (r *fakeRenderer) Shots(matchID int, player, opponent string, records []model.ShotRecord) (string, error) {
	r.calls = append(r.calls, renderCall{"shots", matchID, player, opponent, len(records), 0})
	return fmt.Sprintf("img/%d_%s_shots.png", matchID, player), nil
}

type eventBuilder struct {
	tl  model.Timeline
	idx int
}

func (b *eventBuilder) add(typ, sub, player string, team int, xg float64, outcome string) *eventBuilder {
	b.idx++
	name := map[int]string{france: "France", germany: "Germany", hungary: "Hungary", italy: "Italy", wales: "Wales"}[team]
	b.tl = append(b.tl, model.Event{
		ID: uuid.New(), Index: b.idx, Type: typ, SubType: sub, Player: player,
		TeamID: team, TeamName: name, Outcome: outcome, XG: xg,
	})
	return b
}

func scenario() *fakeSource {
	nan := math.NaN()
	var m1, m2 eventBuilder
	// Germany v France: Benzema key pass to Griezmann's goal, a German pass first.
	m1.add(model.TypePass, "", "Toni Kroos", germany, nan, "").
		add(model.TypePass, "", "Karim Benzema", france, nan, "").
		add("Carry", "", "Antoine Griezmann", france, nan, "").
		add(model.TypeShot, "", "Antoine Griezmann", france, 0.3, model.OutcomeGoal).
		add(model.TypeShot, "", "Karim Benzema", france, 0.1, "Saved")
	// Hungary v France: a throw-in never counts as a pass.
	m2.add(model.TypePass, model.SubThrowIn, "Karim Benzema", france, nan, "").
		add(model.TypePass, "", "Ádám Nagy", hungary, nan, "").
		add(model.TypeShot, "", "Karim Benzema", france, 0.5, "Off T")

	return &fakeSource{
		matches: []model.Match{
			{ID: 1, Date: "2021-06-15", HomeTeam: "France", HomeTeamID: france, AwayTeam: "Germany", AwayTeamID: germany},
			{ID: 2, Date: "2021-06-16", HomeTeam: "Italy", HomeTeamID: italy, AwayTeam: "Wales", AwayTeamID: wales},
			{ID: 3, Date: "2021-06-19", HomeTeam: "Hungary", HomeTeamID: hungary, AwayTeam: "France", AwayTeamID: france},
		},
		events: map[int]model.Timeline{1: m1.tl, 3: m2.tl},
		fail:   map[int]error{},
	}
}

func baseOptions() Options {
	return Options{
		CompetitionID: 55, SeasonID: 43, Team: "France", TeamID: france,
		Players: []string{"Karim Benzema", "Antoine Griezmann"},
	}
}

func TestRun_ReportsEveryPlayerPerMatch(t *testing.T) {
	src := scenario()
	r := &fakeRenderer{}
	d := New(src, r, nil, nil)

	res, err := d.Run(context.Background(), baseOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Matches) != 2 || res.Matches[0].ID != 1 || res.Matches[1].ID != 3 {
		t.Fatalf("unexpected matches: %+v", res.Matches)
	}
	if len(res.Reports) != 4 {
		t.Fatalf("expected 4 reports, got %d", len(res.Reports))
	}
	if len(r.calls) != 8 {
		t.Errorf("expected 8 render calls, got %d", len(r.calls))
	}

	benz1 := res.Reports[0]
	if benz1.Player != "Karim Benzema" || benz1.MatchID != 1 {
		t.Fatalf("unexpected first report: %+v", benz1)
	}
	if benz1.Passes != 1 || benz1.KeyPasses != 1 || benz1.Shots != 1 || benz1.Goals != 0 {
		t.Errorf("benzema match 1 counts: %+v", benz1)
	}
	if benz1.Opponent != "Germany" || benz1.MatchDate != "2021-06-15" {
		t.Errorf("benzema match 1 context: %+v", benz1)
	}
	if benz1.PassImage == "" || benz1.ShotImage == "" || benz1.RunID != res.Run.ID {
		t.Errorf("images/run id not set: %+v", benz1)
	}

	griez1 := res.Reports[1]
	if griez1.Goals != 1 || griez1.Passes != 0 {
		t.Errorf("griezmann match 1 counts: %+v", griez1)
	}

	benz3 := res.Reports[2]
	if benz3.Passes != 0 || benz3.Opponent != "Hungary" {
		t.Errorf("throw-in must not count as a pass: %+v", benz3)
	}

	// Griezmann has no events in match 3 but still gets an (empty) report.
	griez3 := res.Reports[3]
	if griez3.Shots != 0 || griez3.Team != "France" {
		t.Errorf("griezmann match 3: %+v", griez3)
	}

	if math.Abs(res.PlayerXG["Karim Benzema"]-0.3) > 1e-9 {
		t.Errorf("Benzema xG = %v, want 0.3", res.PlayerXG["Karim Benzema"])
	}
	if math.Abs(res.PlayerXG["Antoine Griezmann"]-0.3) > 1e-9 {
		t.Errorf("Griezmann xG = %v", res.PlayerXG["Antoine Griezmann"])
	}
	if res.Run.Matches != 2 || res.Run.Failed != 0 {
		t.Errorf("run counts: %+v", res.Run)
	}
}

func TestRun_OpponentFromMatchListWithoutTeamID(t *testing.T) {
	src := scenario()
	r := &fakeRenderer{}
	opts := baseOptions()
	opts.TeamID = 0

	if _, err := New(src, r, nil, nil).Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.calls[0].opponent != "Germany" || r.calls[len(r.calls)-1].opponent != "Hungary" {
		t.Errorf("unexpected opponents: first %q last %q", r.calls[0].opponent, r.calls[len(r.calls)-1].opponent)
	}
}

// italyWales has Italy's own pass first, so any team other than France comes
// up before Wales.
func italyWales() *fakeSource {
	nan := math.NaN()
	var b eventBuilder
	b.add(model.TypePass, "", "Jorginho", italy, nan, "").
		add(model.TypePass, "", "Joe Allen", wales, nan, "").
		add(model.TypePass, "", "Lorenzo Insigne", italy, nan, "").
		add(model.TypeShot, "", "Lorenzo Insigne", italy, 0.2, "Saved")
	return &fakeSource{
		matches: []model.Match{
			{ID: 2, Date: "2021-06-20", HomeTeam: "Italy", HomeTeamID: italy, AwayTeam: "Wales", AwayTeamID: wales},
		},
		events: map[int]model.Timeline{2: b.tl},
		fail:   map[int]error{},
	}
}

func TestRun_OpponentNeverTheTrackedTeam(t *testing.T) {
	for _, tc := range []struct {
		name   string
		teamID int
	}{
		{"team id of another team", france},
		{"own team id", italy},
		{"no team id", 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := &fakeRenderer{}
			opts := Options{
				CompetitionID: 55, SeasonID: 43, Team: "Italy", TeamID: tc.teamID,
				Players: []string{"Lorenzo Insigne"},
			}
			res, err := New(italyWales(), r, nil, nil).Run(context.Background(), opts)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(res.Reports) != 1 || res.Reports[0].Opponent != "Wales" {
				t.Fatalf("reports = %+v", res.Reports)
			}
			for _, c := range r.calls {
				if c.opponent != "Wales" {
					t.Errorf("%s diagram opponent = %q, want Wales", c.kind, c.opponent)
				}
			}
		})
	}
}

func TestRun_AbortsOnFirstFailure(t *testing.T) {
	src := scenario()
	boom := errors.New("provider down")
	src.fail[1] = boom
	db := openMemDB(t)

	_, err := New(src, nil, db, nil).Run(context.Background(), baseOptions())
	if !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
	runs, _ := db.ListReportRuns(0)
	if len(runs) != 0 {
		t.Errorf("aborted run must not be recorded, got %d", len(runs))
	}
}

func TestRun_KeepGoingSkipsAndRecords(t *testing.T) {
	src := scenario()
	src.fail[1] = errors.New("provider down")
	db := openMemDB(t)
	opts := baseOptions()
	opts.KeepGoing = true

	res, err := New(src, nil, db, nil).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Failures) != 1 || res.Failures[0].MatchID != 1 {
		t.Errorf("unexpected failures: %+v", res.Failures)
	}
	if len(res.Reports) != 2 || res.Reports[0].MatchID != 3 {
		t.Errorf("unexpected reports: %+v", res.Reports)
	}
	// Griezmann only appears in the skipped match.
	if !math.IsNaN(res.PlayerXG["Antoine Griezmann"]) {
		t.Errorf("expected NaN xG, got %v", res.PlayerXG["Antoine Griezmann"])
	}

	runs, err := db.ListReportRuns(0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected 1 recorded run: %v %d", err, len(runs))
	}
	if runs[0].Matches != 1 || runs[0].Failed != 1 {
		t.Errorf("run counts: %+v", runs[0])
	}
	stored, _ := db.GetRunReports(res.Run.ID)
	if len(stored) != 2 {
		t.Errorf("expected 2 stored reports, got %d", len(stored))
	}
}

func TestRun_UnknownTeamIsEmpty(t *testing.T) {
	opts := baseOptions()
	opts.Team = "Iceland"
	res, err := New(scenario(), nil, nil, nil).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Matches) != 0 || len(res.Reports) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestRun_DuplicateShotIDFails(t *testing.T) {
	src := scenario()
	tl := src.events[3]
	dup := tl[2]
	dup.Index = 99
	src.events[3] = append(tl, dup)

	_, err := New(src, nil, nil, nil).Run(context.Background(), baseOptions())
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func openMemDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
