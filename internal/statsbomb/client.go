// Package statsbomb provides a minimal client for the StatsBomb open-data
// repository layout, served over HTTP or from a local checkout.
package statsbomb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pable/go-football-metrics/internal/model"
	"github.com/pable/go-football-metrics/internal/parser"
)

// DefaultBaseURL is the raw-content root of the public open-data repository.
const DefaultBaseURL = "https://raw.githubusercontent.com/statsbomb/open-data/master/data"

// ErrUpstream is the sentinel kind of every UpstreamFetchError.
var ErrUpstream = errors.New("upstream fetch failed")

// UpstreamFetchError reports that a provider document could not be fetched or
// decoded.
type UpstreamFetchError struct {
	Resource string
	Err      error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrUpstream, e.Resource, e.Err)
}

func (e *UpstreamFetchError) Unwrap() []error { return []error{ErrUpstream, e.Err} }

// Client reads competitions, matches and events from an open-data root.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for base, which is either an http(s) URL or a
// local directory laid out like the open-data repository's data/ folder.
func NewClient(base string, timeout time.Duration) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Base returns the configured data root.
func (c *Client) Base() string { return c.base }

func (c *Client) remote() bool {
	return strings.HasPrefix(c.base, "http://") || strings.HasPrefix(c.base, "https://")
}

// open returns the body of the document at path relative to the data root.
// Local roots also accept compressed siblings (.zst, .gz, .bz2).
func (c *Client) open(ctx context.Context, path string) (io.ReadCloser, error) {
	if !c.remote() {
		return c.openLocal(path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/"+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	return parser.Decompress(path, resp.Body)
}

func (c *Client) openLocal(path string) (io.ReadCloser, error) {
	full := filepath.Join(c.base, filepath.FromSlash(path))
	for _, suffix := range []string{"", ".zst", ".gz", ".bz2"} {
		if _, err := os.Stat(full + suffix); err == nil {
			return parser.Open(full + suffix)
		}
	}
	return nil, fmt.Errorf("open %s: %w", full, os.ErrNotExist)
}

func (c *Client) fetch(ctx context.Context, path string, decode func(io.Reader) error) error {
	body, err := c.open(ctx, path)
	if err != nil {
		return &UpstreamFetchError{Resource: path, Err: err}
	}
	defer body.Close()
	if err := decode(body); err != nil {
		return &UpstreamFetchError{Resource: path, Err: err}
	}
	return nil
}

// Competitions returns the provider's competition/season catalogue.
func (c *Client) Competitions(ctx context.Context) ([]model.Competition, error) {
	var out []model.Competition
	err := c.fetch(ctx, "competitions.json", func(r io.Reader) (err error) {
		out, err = parser.DecodeCompetitions(r)
		return err
	})
	return out, err
}

// Matches returns every match of one competition season in provider order.
func (c *Client) Matches(ctx context.Context, competitionID, seasonID int) ([]model.Match, error) {
	var out []model.Match
	path := fmt.Sprintf("matches/%d/%d.json", competitionID, seasonID)
	err := c.fetch(ctx, path, func(r io.Reader) (err error) {
		out, err = parser.DecodeMatches(r)
		return err
	})
	return out, err
}

// Events returns the index-ordered timeline of one match.
func (c *Client) Events(ctx context.Context, matchID int) (model.Timeline, error) {
	var out model.Timeline
	path := fmt.Sprintf("events/%d.json", matchID)
	err := c.fetch(ctx, path, func(r io.Reader) (err error) {
		out, err = parser.DecodeEvents(matchID, r)
		return err
	})
	return out, err
}
