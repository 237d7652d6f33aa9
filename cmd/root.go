package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/go-football-metrics/internal/config"
	"github.com/pable/go-football-metrics/internal/logging"
	"github.com/pable/go-football-metrics/internal/source"
	"github.com/pable/go-football-metrics/internal/statsbomb"
	"github.com/pable/go-football-metrics/internal/storage"
)

var (
	cfg *config.Config
	log *logrus.Logger

	configPath string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "fbmetrics",
	Short: "Football event metrics tool",
	Long: `Pull StatsBomb open event data for one tournament, detect key passes,
compute expected-goals averages and draw pass and shot maps for the tracked
players of one team.

Settings are layered: defaults, then the YAML file named by --config or
FBMETRICS_CONFIG, then FBMETRICS_* environment variables, then flags.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file (default $FBMETRICS_CONFIG)")
	pf.StringVar(&dbPath, "db", config.DefaultDBPath(), "path to SQLite database")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("data-url", "", "open-data base URL or local directory")
	pf.String("cache", "", "event cache: sqlite, none or a redis:// URL")
	pf.Int("competition", 0, "competition id")
	pf.Int("season", 0, "season id")
	pf.String("team", "", "team name")
	pf.Int("team-id", 0, "team id used to name opponents")
	pf.StringSlice("players", nil, "tracked players (comma separated)")

	rootCmd.AddCommand(competitionsCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(xgCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

// loadConfig builds cfg from file and environment, applies any flag the user
// set explicitly, and configures logging.
func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		c.DBPath = dbPath
	}
	if flags.Changed("log-level") {
		c.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		c.LogFormat, _ = flags.GetString("log-format")
	}
	if flags.Changed("data-url") {
		c.DataURL, _ = flags.GetString("data-url")
	}
	if flags.Changed("cache") {
		c.Cache, _ = flags.GetString("cache")
	}
	if flags.Changed("competition") {
		c.CompetitionID, _ = flags.GetInt("competition")
	}
	if flags.Changed("season") {
		c.SeasonID, _ = flags.GetInt("season")
	}
	if flags.Changed("team") {
		c.Team, _ = flags.GetString("team")
		if !flags.Changed("team-id") {
			// the default id belongs to the default team
			c.TeamID = 0
		}
	}
	if flags.Changed("team-id") {
		c.TeamID, _ = flags.GetInt("team-id")
	}
	if flags.Changed("players") {
		players, _ := flags.GetStringSlice("players")
		c.Players = c.Players[:0]
		for _, p := range players {
			if p = strings.TrimSpace(p); p != "" {
				c.Players = append(c.Players, p)
			}
		}
	}
	if err := c.Validate(); err != nil {
		return err
	}

	cfg = c
	log = logging.Init(cfg.LogLevel, cfg.LogFormat)
	return nil
}

// openDB opens the configured database, creating its directory.
func openDB() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// openSource returns the provider behind the configured event cache. The
// returned close func releases the cache backend, not db.
func openSource(ctx context.Context, db *storage.DB) (*source.Cached, func(), error) {
	client := statsbomb.NewClient(cfg.DataURL, cfg.HTTPTimeout)
	entry := log.WithField("cache", cfg.Cache)

	switch {
	case cfg.UsesRedis():
		rs, err := source.NewRedisStore(ctx, cfg.Cache, cfg.CacheTTL)
		if err != nil {
			return nil, nil, err
		}
		return source.NewCached(client, rs, entry), func() { rs.Close() }, nil
	case cfg.Cache == config.CacheNone:
		return source.NewCached(client, source.NewMemoryStore(), entry), func() {}, nil
	default:
		return source.NewCached(client, db, entry), func() {}, nil
	}
}
