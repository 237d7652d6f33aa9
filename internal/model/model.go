package model

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// Event type and sub-type names as published by the provider.
const (
	TypePass    = "Pass"
	TypeShot    = "Shot"
	SubThrowIn  = "Throw-in"
	OutcomeGoal = "Goal"
)

// Pitch dimensions in provider units (yards). Origin is the top-left corner,
// y grows downward.
const (
	PitchLength = 120.0
	PitchWidth  = 80.0
)

// EventID is the provider's per-event UUID.
type EventID = uuid.UUID

// Point is a pitch coordinate.
type Point struct{ X, Y float64 }

// Competition is one competition/season pair from the provider catalogue.
type Competition struct {
	CompetitionID   int
	SeasonID        int
	CompetitionName string
	SeasonName      string
	CountryName     string
	Gender          string
}

// Match is one fixture of a competition season.
type Match struct {
	ID            int
	CompetitionID int
	SeasonID      int
	Date          string
	KickOff       string
	HomeTeamID    int
	HomeTeam      string
	AwayTeamID    int
	AwayTeam      string
	HomeScore     int
	AwayScore     int
	Stage         string
}

// Involves reports whether team plays in the match.
func (m *Match) Involves(team string) bool {
	return m.HomeTeam == team || m.AwayTeam == team
}

// HasTeamID reports whether id is the home or away side's team id.
func (m *Match) HasTeamID(id int) bool {
	return id != 0 && (m.HomeTeamID == id || m.AwayTeamID == id)
}

// Opponent returns the other side's name, or "" if team is not in the match.
func (m *Match) Opponent(team string) string {
	switch team {
	case m.HomeTeam:
		return m.AwayTeam
	case m.AwayTeam:
		return m.HomeTeam
	}
	return ""
}

// Event is a single timeline entry of a match. XG is NaN when the provider
// carries no value.
type Event struct {
	MatchID     int
	ID          EventID
	Index       int
	Period      int
	Minute      int
	Second      int
	Type        string
	SubType     string
	Player      string
	TeamID      int
	TeamName    string
	Location    Point
	EndLocation Point
	Outcome     string
	XG          float64
}

// HasXG reports whether the event carries a defined expected-goals value.
func (e *Event) HasXG() bool { return !math.IsNaN(e.XG) }

// IsThrowIn reports whether the event is a throw-in restart.
func (e *Event) IsThrowIn() bool { return e.SubType == SubThrowIn }

// Timeline is the ordered event sequence of one match, sorted by Index.
type Timeline []Event

// NewTimeline copies events and orders them by their match-relative index.
func NewTimeline(events []Event) Timeline {
	tl := make(Timeline, len(events))
	copy(tl, events)
	sort.SliceStable(tl, func(i, j int) bool { return tl[i].Index < tl[j].Index })
	return tl
}

// PassRecord is a non-throw-in pass.
type PassRecord struct {
	Index    int
	Player   string
	TeamID   int
	TeamName string
	Origin   Point
	Dest     Point
}

// ShotRecord is a shot attempt.
type ShotRecord struct {
	ID       EventID
	Index    int
	Player   string
	TeamID   int
	TeamName string
	Location Point
	Outcome  string
	XG       float64
}

// IsGoal reports whether the shot was scored.
func (s *ShotRecord) IsGoal() bool { return s.Outcome == OutcomeGoal }

// KeyPassIndexSet holds the event indices of passes that set up a shot, in
// timeline order.
type KeyPassIndexSet []int

// Contains reports whether idx was flagged as a key pass.
func (k KeyPassIndexSet) Contains(idx int) bool {
	for _, v := range k {
		if v == idx {
			return true
		}
	}
	return false
}

// PlayerMatchReport summarises one tracked player in one match.
type PlayerMatchReport struct {
	RunID     string
	MatchID   int
	MatchDate string // populated when joined with matches
	Player    string
	Team      string
	Opponent  string

	Passes    int
	KeyPasses int
	Shots     int
	Goals     int
	XGShots   int // shots with a defined xG
	XGTotal   float64

	PassImage string
	ShotImage string
}

// AvgXG returns mean xG per shot with a defined value.
func (r *PlayerMatchReport) AvgXG() float64 {
	if r.XGShots == 0 {
		return 0
	}
	return r.XGTotal / float64(r.XGShots)
}

// ConversionPct returns goals per shot as a percentage.
func (r *PlayerMatchReport) ConversionPct() float64 {
	if r.Shots == 0 {
		return 0
	}
	return float64(r.Goals) / float64(r.Shots) * 100
}

// PlayerAggregate holds a player's report rows summed across matches.
type PlayerAggregate struct {
	Player  string
	Team    string
	Matches int

	Passes, KeyPasses int
	Shots, Goals      int
	XGShots           int
	XGTotal           float64
}

// AvgXG returns mean xG per shot with a defined value.
func (a *PlayerAggregate) AvgXG() float64 {
	if a.XGShots == 0 {
		return 0
	}
	return a.XGTotal / float64(a.XGShots)
}

// KeyPassesPerMatch returns the mean number of key passes per match.
func (a *PlayerAggregate) KeyPassesPerMatch() float64 {
	if a.Matches == 0 {
		return 0
	}
	return float64(a.KeyPasses) / float64(a.Matches)
}

// ConversionPct returns goals per shot as a percentage.
func (a *PlayerAggregate) ConversionPct() float64 {
	if a.Shots == 0 {
		return 0
	}
	return float64(a.Goals) / float64(a.Shots) * 100
}

// ReportRun is one execution of the reporting driver.
type ReportRun struct {
	ID            string
	StartedAt     string
	CompetitionID int
	SeasonID      int
	Team          string
	Players       []string
	Matches       int
	Failed        int
}
