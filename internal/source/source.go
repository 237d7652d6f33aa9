// Package source puts a per-match cache in front of the event data provider.
package source

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-football-metrics/internal/model"
)

// Source yields the match list of a competition season and the event
// timeline of a match.
type Source interface {
	Matches(ctx context.Context, competitionID, seasonID int) ([]model.Match, error)
	Events(ctx context.Context, matchID int) (model.Timeline, error)
}

// Store persists event timelines keyed by match id. ok is false on a miss.
type Store interface {
	LoadEvents(ctx context.Context, matchID int) (tl model.Timeline, ok bool, err error)
	SaveEvents(ctx context.Context, matchID int, events model.Timeline) error
}

// MatchStore is implemented by stores that can also keep match lists.
type MatchStore interface {
	InsertMatches(competitionID, seasonID int, matches []model.Match) error
	GetMatches(competitionID, seasonID int) ([]model.Match, error)
}

// Cached fetches a match's events from upstream at most once per store
// lifetime. Concurrent requests for the same match wait for the first one.
type Cached struct {
	upstream Source
	store    Store
	log      *logrus.Entry

	locks sync.Map // match id -> *sync.Mutex

	hits, misses atomic.Int64
}

// NewCached wraps upstream with store. log may be nil.
func NewCached(upstream Source, store Store, log *logrus.Entry) *Cached {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Cached{upstream: upstream, store: store, log: log}
}

// Events returns the cached timeline of matchID, fetching and storing it on
// a miss. A failed fetch is not cached.
func (c *Cached) Events(ctx context.Context, matchID int) (model.Timeline, error) {
	mu, _ := c.locks.LoadOrStore(matchID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	tl, ok, err := c.store.LoadEvents(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("cache lookup for match %d: %w", matchID, err)
	}
	if ok {
		c.hits.Add(1)
		c.log.WithField("match_id", matchID).Debug("event cache hit")
		return tl, nil
	}

	c.misses.Add(1)
	tl, err = c.upstream.Events(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := c.store.SaveEvents(ctx, matchID, tl); err != nil {
		return nil, fmt.Errorf("cache store for match %d: %w", matchID, err)
	}
	c.log.WithFields(logrus.Fields{"match_id": matchID, "events": len(tl)}).Debug("events fetched")
	return tl, nil
}

// Matches fetches the match list from upstream and records it when the store
// keeps match lists. If upstream fails, a previously stored list is served
// instead.
func (c *Cached) Matches(ctx context.Context, competitionID, seasonID int) ([]model.Match, error) {
	ms, keeps := c.store.(MatchStore)

	matches, err := c.upstream.Matches(ctx, competitionID, seasonID)
	if err != nil {
		if !keeps {
			return nil, err
		}
		stored, serr := ms.GetMatches(competitionID, seasonID)
		if serr != nil || len(stored) == 0 {
			return nil, err
		}
		c.log.WithError(err).WithField("matches", len(stored)).Warn("upstream match list unavailable, using stored copy")
		return stored, nil
	}
	if keeps {
		if err := ms.InsertMatches(competitionID, seasonID, matches); err != nil {
			return nil, fmt.Errorf("store matches: %w", err)
		}
	}
	return matches, nil
}

// Stats returns the number of cache hits and misses so far.
func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
