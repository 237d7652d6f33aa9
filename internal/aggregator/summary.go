package aggregator

import (
	"math"

	"github.com/pable/go-football-metrics/internal/model"
)

// MatchTables is the derived view of one match handed to renderers.
type MatchTables struct {
	MatchID   int
	Passes    []model.PassRecord
	KeyPasses model.KeyPassIndexSet
	Shots     map[model.EventID]model.ShotRecord
}

// BuildMatchTables derives passes, key passes and shots from one timeline.
func BuildMatchTables(matchID int, events model.Timeline) (*MatchTables, error) {
	shots, err := ShotsIn(events)
	if err != nil {
		return nil, err
	}
	return &MatchTables{
		MatchID:   matchID,
		Passes:    PassesIn(events),
		KeyPasses: KeyPasses(events),
		Shots:     shots,
	}, nil
}

// PlayerPasses returns the passes made by player.
func (t *MatchTables) PlayerPasses(player string) []model.PassRecord {
	var out []model.PassRecord
	for _, p := range t.Passes {
		if p.Player == player {
			out = append(out, p)
		}
	}
	return out
}

// PlayerShots returns the shots taken by player in timeline order.
func (t *MatchTables) PlayerShots(player string) []model.ShotRecord {
	var out []model.ShotRecord
	for _, s := range ShotsByIndex(t.Shots) {
		if s.Player == player {
			out = append(out, s)
		}
	}
	return out
}

// OpponentName returns the first team name in the match's passes or shots
// whose id differs from teamID, or "" if none is found.
func (t *MatchTables) OpponentName(teamID int) string {
	for _, p := range t.Passes {
		if p.TeamID != teamID && p.TeamName != "" {
			return p.TeamName
		}
	}
	for _, s := range ShotsByIndex(t.Shots) {
		if s.TeamID != teamID && s.TeamName != "" {
			return s.TeamName
		}
	}
	return ""
}

// Summarize counts player's passes, key passes, shots, goals and xG.
func (t *MatchTables) Summarize(player string) model.PlayerMatchReport {
	r := model.PlayerMatchReport{MatchID: t.MatchID, Player: player}
	for _, p := range t.PlayerPasses(player) {
		r.Passes++
		if t.KeyPasses.Contains(p.Index) {
			r.KeyPasses++
		}
		if r.Team == "" {
			r.Team = p.TeamName
		}
	}
	for _, s := range t.PlayerShots(player) {
		r.Shots++
		if s.IsGoal() {
			r.Goals++
		}
		if r.Team == "" {
			r.Team = s.TeamName
		}
		if !math.IsNaN(s.XG) {
			r.XGShots++
			r.XGTotal += s.XG
		}
	}
	return r
}
