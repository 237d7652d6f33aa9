package aggregator

import (
	"sort"

	"github.com/pable/go-football-metrics/internal/model"
)

// PassesIn returns every pass of the timeline except throw-ins, in order.
func PassesIn(events model.Timeline) []model.PassRecord {
	var passes []model.PassRecord
	for i := range events {
		e := &events[i]
		if e.Type != model.TypePass || e.IsThrowIn() {
			continue
		}
		passes = append(passes, model.PassRecord{
			Index:    e.Index,
			Player:   e.Player,
			TeamID:   e.TeamID,
			TeamName: e.TeamName,
			Origin:   e.Location,
			Dest:     e.EndLocation,
		})
	}
	return passes
}

// ShotsIn returns the timeline's shots keyed by event id. A repeated id is
// reported as a *DuplicateKeyError rather than overwritten.
func ShotsIn(events model.Timeline) (map[model.EventID]model.ShotRecord, error) {
	shots := make(map[model.EventID]model.ShotRecord)
	for i := range events {
		e := &events[i]
		if e.Type != model.TypeShot {
			continue
		}
		if _, dup := shots[e.ID]; dup {
			return nil, &DuplicateKeyError{ID: e.ID}
		}
		shots[e.ID] = model.ShotRecord{
			ID:       e.ID,
			Index:    e.Index,
			Player:   e.Player,
			TeamID:   e.TeamID,
			TeamName: e.TeamName,
			Location: e.Location,
			Outcome:  e.Outcome,
			XG:       e.XG,
		}
	}
	return shots, nil
}

// ShotsByIndex returns shots ordered by their timeline index.
func ShotsByIndex(shots map[model.EventID]model.ShotRecord) []model.ShotRecord {
	out := make([]model.ShotRecord, 0, len(shots))
	for _, s := range shots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
