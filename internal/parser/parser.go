// Package parser decodes StatsBomb open-data JSON documents into model types.
package parser

import (
	"compress/bzip2"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-football-metrics/internal/model"
)

// ErrMalformed marks documents that decode as JSON but violate the expected shape.
var ErrMalformed = errors.New("malformed document")

// ---- Wire types ----

type named struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (n *named) name() string {
	if n == nil {
		return ""
	}
	return n.Name
}

type wireCompetition struct {
	CompetitionID     int    `json:"competition_id"`
	SeasonID          int    `json:"season_id"`
	CountryName       string `json:"country_name"`
	CompetitionName   string `json:"competition_name"`
	CompetitionGender string `json:"competition_gender"`
	SeasonName        string `json:"season_name"`
}

type wireMatch struct {
	MatchID   int    `json:"match_id"`
	MatchDate string `json:"match_date"`
	KickOff   string `json:"kick_off"`
	HomeScore *int   `json:"home_score"`
	AwayScore *int   `json:"away_score"`

	Competition struct {
		CompetitionID int `json:"competition_id"`
	} `json:"competition"`
	Season struct {
		SeasonID int `json:"season_id"`
	} `json:"season"`
	HomeTeam struct {
		ID   int    `json:"home_team_id"`
		Name string `json:"home_team_name"`
	} `json:"home_team"`
	AwayTeam struct {
		ID   int    `json:"away_team_id"`
		Name string `json:"away_team_name"`
	} `json:"away_team"`
	CompetitionStage *named `json:"competition_stage"`
}

type wireEvent struct {
	ID       string    `json:"id"`
	Index    int       `json:"index"`
	Period   int       `json:"period"`
	Minute   int       `json:"minute"`
	Second   int       `json:"second"`
	Type     *named    `json:"type"`
	Team     *named    `json:"team"`
	Player   *named    `json:"player"`
	Location []float64 `json:"location"`

	Pass *struct {
		EndLocation []float64 `json:"end_location"`
		Type        *named    `json:"type"`
		Outcome     *named    `json:"outcome"`
	} `json:"pass"`

	Shot *struct {
		EndLocation []float64 `json:"end_location"`
		StatsbombXG *float64  `json:"statsbomb_xg"`
		Type        *named    `json:"type"`
		Outcome     *named    `json:"outcome"`
	} `json:"shot"`
}

// ---- Decoders ----

// DecodeCompetitions decodes competitions.json.
func DecodeCompetitions(r io.Reader) ([]model.Competition, error) {
	var wire []wireCompetition
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode competitions: %w", err)
	}
	out := make([]model.Competition, 0, len(wire))
	for _, w := range wire {
		out = append(out, model.Competition{
			CompetitionID:   w.CompetitionID,
			SeasonID:        w.SeasonID,
			CompetitionName: w.CompetitionName,
			SeasonName:      w.SeasonName,
			CountryName:     w.CountryName,
			Gender:          w.CompetitionGender,
		})
	}
	return out, nil
}

// DecodeMatches decodes matches/<competition>/<season>.json, preserving order.
func DecodeMatches(r io.Reader) ([]model.Match, error) {
	var wire []wireMatch
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode matches: %w", err)
	}
	out := make([]model.Match, 0, len(wire))
	for _, w := range wire {
		if w.MatchID == 0 {
			return nil, fmt.Errorf("match without match_id: %w", ErrMalformed)
		}
		m := model.Match{
			ID:            w.MatchID,
			CompetitionID: w.Competition.CompetitionID,
			SeasonID:      w.Season.SeasonID,
			Date:          w.MatchDate,
			KickOff:       w.KickOff,
			HomeTeamID:    w.HomeTeam.ID,
			HomeTeam:      w.HomeTeam.Name,
			AwayTeamID:    w.AwayTeam.ID,
			AwayTeam:      w.AwayTeam.Name,
			Stage:         w.CompetitionStage.name(),
		}
		if w.HomeScore != nil {
			m.HomeScore = *w.HomeScore
		}
		if w.AwayScore != nil {
			m.AwayScore = *w.AwayScore
		}
		out = append(out, m)
	}
	return out, nil
}

// DecodeEvents decodes events/<match>.json into an index-ordered timeline.
func DecodeEvents(matchID int, r io.Reader) (model.Timeline, error) {
	var wire []wireEvent
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	events := make([]model.Event, 0, len(wire))
	for _, w := range wire {
		id, err := uuid.Parse(w.ID)
		if err != nil {
			return nil, fmt.Errorf("event %d: id %q: %w", w.Index, w.ID, ErrMalformed)
		}
		if w.Type == nil {
			return nil, fmt.Errorf("event %d: missing type: %w", w.Index, ErrMalformed)
		}
		e := model.Event{
			MatchID:  matchID,
			ID:       id,
			Index:    w.Index,
			Period:   w.Period,
			Minute:   w.Minute,
			Second:   w.Second,
			Type:     w.Type.Name,
			Player:   w.Player.name(),
			Location: point(w.Location),
			XG:       math.NaN(),
		}
		if w.Team != nil {
			e.TeamID = w.Team.ID
			e.TeamName = w.Team.Name
		}
		switch {
		case w.Pass != nil:
			e.SubType = w.Pass.Type.name()
			e.Outcome = w.Pass.Outcome.name()
			e.EndLocation = point(w.Pass.EndLocation)
		case w.Shot != nil:
			e.SubType = w.Shot.Type.name()
			e.Outcome = w.Shot.Outcome.name()
			e.EndLocation = point(w.Shot.EndLocation)
			if w.Shot.StatsbombXG != nil {
				e.XG = *w.Shot.StatsbombXG
			}
		}
		events = append(events, e)
	}
	return model.NewTimeline(events), nil
}

func point(loc []float64) model.Point {
	if len(loc) < 2 {
		return model.Point{}
	}
	return model.Point{X: loc[0], Y: loc[1]}
}

// ---- Local files ----

// Open opens a local document, transparently decompressing .gz, .bz2 and .zst
// files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	rc, err := Decompress(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return rc, nil
}

// Decompress wraps body according to the compression suffix of name. Closing
// the returned reader also closes body.
func Decompress(name string, body io.ReadCloser) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".zst"):
		dec, err := zstd.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return &stackCloser{Reader: dec, close: func() error { dec.Close(); return body.Close() }}, nil
	case strings.HasSuffix(name, ".gz"):
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &stackCloser{Reader: gz, close: func() error { gz.Close(); return body.Close() }}, nil
	case strings.HasSuffix(name, ".bz2"):
		return &stackCloser{Reader: bzip2.NewReader(body), close: body.Close}, nil
	}
	return body, nil
}

type stackCloser struct {
	io.Reader
	close func() error
}

func (s *stackCloser) Close() error { return s.close() }

// MatchIDFromPath extracts the match id from an events file name such as
// "3788741.json" or "3788741.json.zst".
func MatchIDFromPath(path string) (int, error) {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	id, err := strconv.Atoi(base)
	if err != nil {
		return 0, fmt.Errorf("match id from %q: %w", filepath.Base(path), ErrMalformed)
	}
	return id, nil
}

// ParseEventsFile reads a local events document. The match id is taken from
// the file name.
func ParseEventsFile(path string) (int, model.Timeline, error) {
	matchID, err := MatchIDFromPath(path)
	if err != nil {
		return 0, nil, err
	}
	rc, err := Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer rc.Close()

	events, err := DecodeEvents(matchID, rc)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return matchID, events, nil
}
