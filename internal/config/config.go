// Package config defines the tool's configuration and how it is loaded.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cache backends.
const (
	CacheSQLite = "sqlite"
	CacheNone   = "none"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// DataURL is the open-data base: an http(s) URL or a local directory.
	DataURL     string        `koanf:"data_url"`
	HTTPTimeout time.Duration `koanf:"http_timeout"`

	// Cache is "sqlite", "none" or a redis:// URL.
	Cache    string        `koanf:"cache"`
	CacheTTL time.Duration `koanf:"cache_ttl"`

	CompetitionID int      `koanf:"competition_id"`
	SeasonID      int      `koanf:"season_id"`
	Team          string   `koanf:"team"`
	TeamID        int      `koanf:"team_id"`
	Players       []string `koanf:"players"`

	// OutDir receives the rendered diagrams.
	OutDir      string `koanf:"out_dir"`
	ImageFormat string `koanf:"image_format"`

	// KeepGoing makes the driver skip a failed match instead of aborting.
	KeepGoing bool `koanf:"keep_going"`
}

// New returns a Config holding the defaults: France at UEFA Euro 2020.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		DBPath:        DefaultDBPath(),
		DataURL:       "https://raw.githubusercontent.com/statsbomb/open-data/master/data",
		HTTPTimeout:   30 * time.Second,
		Cache:         CacheSQLite,
		CacheTTL:      0,
		CompetitionID: 55,
		SeasonID:      43,
		Team:          "France",
		TeamID:        771,
		Players:       []string{"Karim Benzema", "Kylian Mbappé Lottin", "Antoine Griezmann"},
		OutDir:        "img",
		ImageFormat:   "png",
	}
}

// DefaultDBPath is ~/.fbmetrics/metrics.db, or metrics.db in the working
// directory when there is no home directory.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "metrics.db"
	}
	return filepath.Join(home, ".fbmetrics", "metrics.db")
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.DataURL == "":
		return fmt.Errorf("%w: data_url must not be empty", ErrInvalidConfig)
	case c.CompetitionID <= 0 || c.SeasonID <= 0:
		return fmt.Errorf("%w: competition_id and season_id must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.Team) == "":
		return fmt.Errorf("%w: team must not be empty", ErrInvalidConfig)
	case len(c.Players) == 0:
		return fmt.Errorf("%w: at least one player is required", ErrInvalidConfig)
	case c.ImageFormat != "png" && c.ImageFormat != "svg":
		return fmt.Errorf("%w: image_format %q (want png or svg)", ErrInvalidConfig, c.ImageFormat)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q (want text or json)", ErrInvalidConfig, c.LogFormat)
	case c.CacheTTL < 0 || c.HTTPTimeout < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	if c.Cache != CacheSQLite && c.Cache != CacheNone && !c.UsesRedis() {
		return fmt.Errorf("%w: cache %q (want sqlite, none or a redis:// URL)", ErrInvalidConfig, c.Cache)
	}
	return nil
}

// UsesRedis reports whether the event cache lives in Redis.
func (c *Config) UsesRedis() bool {
	return strings.HasPrefix(c.Cache, "redis://") || strings.HasPrefix(c.Cache, "rediss://")
}
