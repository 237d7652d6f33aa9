package source

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/pable/go-football-metrics/internal/model"
	"github.com/pable/go-football-metrics/internal/storage"
)

type fakeUpstream struct {
	mu         sync.Mutex
	eventCalls map[int]int
	matchesErr error
	eventsErr  error
	matches    []model.Match
	timeline   model.Timeline
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		eventCalls: map[int]int{},
		matches: []model.Match{
			{ID: 10, HomeTeam: "France", AwayTeam: "Germany"},
			{ID: 11, HomeTeam: "Hungary", AwayTeam: "France"},
		},
		timeline: model.Timeline{
			{ID: uuid.New(), Index: 1, Type: model.TypePass, Player: "Antoine Griezmann", XG: math.NaN()},
			{ID: uuid.New(), Index: 2, Type: model.TypeShot, Player: "Karim Benzema", XG: 0.2},
		},
	}
}

func (f *fakeUpstream) Matches(ctx context.Context, comp, season int) ([]model.Match, error) {
	if f.matchesErr != nil {
		return nil, f.matchesErr
	}
	return f.matches, nil
}

func (f *fakeUpstream) Events(ctx context.Context, matchID int) (model.Timeline, error) {
	f.mu.Lock()
	f.eventCalls[matchID]++
	f.mu.Unlock()
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.timeline, nil
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

func TestCached_FetchesEachMatchOnce(t *testing.T) {
	up := newFakeUpstream()
	c := NewCached(up, openMemDB(t), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tl, err := c.Events(ctx, 10)
		if err != nil {
			t.Fatalf("Events: %v", err)
		}
		if len(tl) != 2 {
			t.Fatalf("expected 2 events, got %d", len(tl))
		}
	}
	if up.eventCalls[10] != 1 {
		t.Errorf("expected 1 upstream call, got %d", up.eventCalls[10])
	}
	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("stats = %d hits, %d misses", hits, misses)
	}
}

func TestCached_ConcurrentRequestsShareOneFetch(t *testing.T) {
	up := newFakeUpstream()
	c := NewCached(up, openMemDB(t), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Events(context.Background(), 11); err != nil {
				t.Errorf("Events: %v", err)
			}
		}()
	}
	wg.Wait()
	if up.eventCalls[11] != 1 {
		t.Errorf("expected 1 upstream call, got %d", up.eventCalls[11])
	}
}

func TestCached_FailedFetchIsNotCached(t *testing.T) {
	up := newFakeUpstream()
	up.eventsErr = errors.New("boom")
	c := NewCached(up, openMemDB(t), nil)
	ctx := context.Background()

	if _, err := c.Events(ctx, 10); err == nil {
		t.Fatal("expected upstream error")
	}
	up.eventsErr = nil
	if _, err := c.Events(ctx, 10); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if up.eventCalls[10] != 2 {
		t.Errorf("expected a second upstream call after failure, got %d", up.eventCalls[10])
	}
}

func TestCached_MatchesFallBackToStoredList(t *testing.T) {
	up := newFakeUpstream()
	db := openMemDB(t)
	c := NewCached(up, db, nil)
	ctx := context.Background()

	if _, err := c.Matches(ctx, 55, 43); err != nil {
		t.Fatalf("Matches: %v", err)
	}

	up.matchesErr = errors.New("offline")
	got, err := c.Matches(ctx, 55, 43)
	if err != nil {
		t.Fatalf("expected stored list, got %v", err)
	}
	if len(got) != 2 || got[1].HomeTeam != "Hungary" {
		t.Errorf("unexpected stored matches: %+v", got)
	}

	if _, err := c.Matches(ctx, 1, 1); err == nil {
		t.Error("expected upstream error when nothing is stored")
	}
}

func TestTimelineEncoding(t *testing.T) {
	up := newFakeUpstream()
	data, err := encodeTimeline(up.timeline)
	if err != nil {
		t.Fatalf("encodeTimeline: %v", err)
	}
	tl, err := decodeTimeline(10, data)
	if err != nil {
		t.Fatalf("decodeTimeline: %v", err)
	}
	if len(tl) != 2 || tl[0].MatchID != 10 {
		t.Fatalf("unexpected timeline: %+v", tl)
	}
	if tl[0].HasXG() {
		t.Error("undefined xG must stay undefined")
	}
	if tl[1].XG != 0.2 || tl[1].ID != up.timeline[1].ID {
		t.Errorf("shot not preserved: %+v", tl[1])
	}
	if _, err := decodeTimeline(10, []byte("garbage")); err == nil {
		t.Error("expected error for corrupt cache entry")
	}
	if redisKey(3788741) != "fbmetrics:events:3788741" {
		t.Errorf("unexpected key %q", redisKey(3788741))
	}
}

func TestCached_MemoryStoreHasNoMatchFallback(t *testing.T) {
	up := newFakeUpstream()
	c := NewCached(up, NewMemoryStore(), nil)
	ctx := context.Background()

	if _, err := c.Events(ctx, 10); err != nil {
		t.Fatalf("Events: %v", err)
	}
	if _, err := c.Events(ctx, 10); err != nil {
		t.Fatalf("Events: %v", err)
	}
	if up.eventCalls[10] != 1 {
		t.Errorf("expected 1 upstream call, got %d", up.eventCalls[10])
	}

	up.matchesErr = errors.New("offline")
	if _, err := c.Matches(ctx, 55, 43); err == nil {
		t.Error("memory store keeps no match lists; expected upstream error")
	}
}
