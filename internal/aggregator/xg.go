package aggregator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pable/go-football-metrics/internal/model"
)

// EventLoader returns the timeline of one match.
type EventLoader interface {
	Events(ctx context.Context, matchID int) (model.Timeline, error)
}

// xgAccum is a running mean over defined xG values.
type xgAccum struct {
	sum float64
	n   int
}

func (a *xgAccum) add(e *model.Event) {
	if e.HasXG() {
		a.sum += e.XG
		a.n++
	}
}

func (a *xgAccum) mean(scope string) (float64, error) {
	if a.n == 0 {
		return 0, &MissingDataError{Scope: scope}
	}
	return a.sum / float64(a.n), nil
}

// AverageXG returns the mean of every defined xG value in one match.
func AverageXG(matchID int, events model.Timeline) (float64, error) {
	var acc xgAccum
	for i := range events {
		acc.add(&events[i])
	}
	return acc.mean(fmt.Sprintf("match %d", matchID))
}

// AveragePlayerXG returns the mean defined xG of player's events across
// matchIDs. Every id must be present in matches, and the player must appear in
// at least one loaded event, otherwise a *NotFoundError is returned.
func AveragePlayerXG(ctx context.Context, src EventLoader, matches []model.Match, matchIDs []int, player string) (float64, error) {
	known := make(map[int]struct{}, len(matches))
	for i := range matches {
		known[matches[i].ID] = struct{}{}
	}

	var acc xgAccum
	seen := false
	for _, id := range matchIDs {
		if _, ok := known[id]; !ok {
			return 0, &NotFoundError{Kind: "match", Key: strconv.Itoa(id)}
		}
		events, err := src.Events(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("events for match %d: %w", id, err)
		}
		for i := range events {
			if events[i].Player != player {
				continue
			}
			seen = true
			acc.add(&events[i])
		}
	}
	if !seen {
		return 0, &NotFoundError{Kind: "player", Key: player}
	}
	return acc.mean("player " + player)
}

// AverageCompetitionXG returns the mean defined xG across every event of every
// match.
func AverageCompetitionXG(ctx context.Context, src EventLoader, matches []model.Match) (float64, error) {
	var acc xgAccum
	for i := range matches {
		events, err := src.Events(ctx, matches[i].ID)
		if err != nil {
			return 0, fmt.Errorf("events for match %d: %w", matches[i].ID, err)
		}
		for j := range events {
			acc.add(&events[j])
		}
	}
	return acc.mean("competition")
}
