package aggregator

import "github.com/pable/go-football-metrics/internal/model"

const (
	// keyPassWindow is how many events after a pass are searched for a shot.
	keyPassWindow = 5
	// keyPassMinFollowing is the minimum number of events that must follow a
	// pass for it to be considered at all.
	keyPassMinFollowing = 2
)

// typeStep is one entry of the throw-in-free type sequence.
type typeStep struct {
	index int
	typ   string
}

// typeSequence returns the timeline's event types with throw-ins removed.
func typeSequence(events model.Timeline) []typeStep {
	seq := make([]typeStep, 0, len(events))
	for i := range events {
		if events[i].IsThrowIn() {
			continue
		}
		seq = append(seq, typeStep{index: events[i].Index, typ: events[i].Type})
	}
	return seq
}

// KeyPasses flags passes that end a possession sequence shortly before a shot.
//
// A pass at position i qualifies when the event at i+1 is not itself a pass
// and a shot occurs anywhere in [i+1, i+keyPassWindow]. The window is clipped
// at the end of the sequence. Returned values are event indices, not positions.
func KeyPasses(events model.Timeline) model.KeyPassIndexSet {
	seq := typeSequence(events)
	keys := model.KeyPassIndexSet{}
	for i, step := range seq {
		if step.typ != model.TypePass {
			continue
		}
		if i+keyPassMinFollowing >= len(seq) {
			continue
		}
		if seq[i+1].typ == model.TypePass {
			continue
		}
		end := i + keyPassWindow
		if end > len(seq)-1 {
			end = len(seq) - 1
		}
		for j := i + 1; j <= end; j++ {
			if seq[j].typ == model.TypeShot {
				keys = append(keys, step.index)
				break
			}
		}
	}
	return keys
}
