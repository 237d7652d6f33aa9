package aggregator

import "github.com/pable/go-football-metrics/internal/model"

// MatchesFor returns the ids of every match in which team plays home or away,
// in input order.
func MatchesFor(matches []model.Match, team string) []int {
	ids := []int{}
	for i := range matches {
		if matches[i].Involves(team) {
			ids = append(ids, matches[i].ID)
		}
	}
	return ids
}

// OpponentsFor returns the opposing team name for every match team plays, in
// input order. Its length always equals len(MatchesFor(matches, team)).
func OpponentsFor(matches []model.Match, team string) []string {
	opponents := []string{}
	for i := range matches {
		if matches[i].Involves(team) {
			opponents = append(opponents, matches[i].Opponent(team))
		}
	}
	return opponents
}
