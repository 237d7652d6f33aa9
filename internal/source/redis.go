package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"

	"github.com/pable/go-football-metrics/internal/model"
)

const redisKeyPrefix = "fbmetrics:events:"

// RedisStore keeps zstd-compressed event timelines in Redis so several
// machines can share one cache.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the redis:// URL and checks the connection.
// A zero ttl keeps entries forever.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(matchID int) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, matchID)
}

// LoadEvents implements Store.
func (s *RedisStore) LoadEvents(ctx context.Context, matchID int) (model.Timeline, bool, error) {
	data, err := s.client.Get(ctx, redisKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	tl, err := decodeTimeline(matchID, data)
	if err != nil {
		return nil, false, err
	}
	return tl, true, nil
}

// SaveEvents implements Store.
func (s *RedisStore) SaveEvents(ctx context.Context, matchID int, events model.Timeline) error {
	data, err := encodeTimeline(events)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey(matchID), data, s.ttl).Err()
}

// cachedEvent is the JSON form of model.Event. xG is a pointer since NaN has
// no JSON encoding.
type cachedEvent struct {
	ID          uuid.UUID   `json:"id"`
	Index       int         `json:"index"`
	Period      int         `json:"period,omitempty"`
	Minute      int         `json:"minute,omitempty"`
	Second      int         `json:"second,omitempty"`
	Type        string      `json:"type"`
	SubType     string      `json:"sub_type,omitempty"`
	Player      string      `json:"player,omitempty"`
	TeamID      int         `json:"team_id,omitempty"`
	TeamName    string      `json:"team_name,omitempty"`
	Location    model.Point `json:"location"`
	EndLocation model.Point `json:"end_location"`
	Outcome     string      `json:"outcome,omitempty"`
	XG          *float64    `json:"xg,omitempty"`
}

var (
	zenc, _ = zstd.NewWriter(nil)
	zdec, _ = zstd.NewReader(nil)
)

func encodeTimeline(events model.Timeline) ([]byte, error) {
	wire := make([]cachedEvent, len(events))
	for i, e := range events {
		wire[i] = cachedEvent{
			ID: e.ID, Index: e.Index, Period: e.Period, Minute: e.Minute, Second: e.Second,
			Type: e.Type, SubType: e.SubType, Player: e.Player, TeamID: e.TeamID, TeamName: e.TeamName,
			Location: e.Location, EndLocation: e.EndLocation, Outcome: e.Outcome,
		}
		if e.HasXG() {
			xg := e.XG
			wire[i].XG = &xg
		}
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode timeline: %w", err)
	}
	return zenc.EncodeAll(raw, nil), nil
}

func decodeTimeline(matchID int, data []byte) (model.Timeline, error) {
	raw, err := zdec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress timeline of match %d: %w", matchID, err)
	}
	var wire []cachedEvent
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode timeline of match %d: %w", matchID, err)
	}
	tl := make(model.Timeline, len(wire))
	for i, w := range wire {
		tl[i] = model.Event{
			MatchID: matchID, ID: w.ID, Index: w.Index, Period: w.Period, Minute: w.Minute, Second: w.Second,
			Type: w.Type, SubType: w.SubType, Player: w.Player, TeamID: w.TeamID, TeamName: w.TeamName,
			Location: w.Location, EndLocation: w.EndLocation, Outcome: w.Outcome, XG: math.NaN(),
		}
		if w.XG != nil {
			tl[i].XG = *w.XG
		}
	}
	return tl, nil
}
