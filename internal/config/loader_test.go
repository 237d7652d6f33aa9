package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/pable/go-football-metrics/internal/config"
)

var configEnvVars = []string{
	"FBMETRICS_CONFIG", "FBMETRICS_TEAM", "FBMETRICS_TEAM_ID", "FBMETRICS_PLAYERS",
	"FBMETRICS_KEEP_GOING", "FBMETRICS_CACHE", "FBMETRICS_CACHE_TTL", "FBMETRICS_IMAGE_FORMAT",
	"FBMETRICS_COMPETITION_ID", "FBMETRICS_LOG_LEVEL",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fbmetrics.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load("")

			convey.Convey("Then it should describe France at Euro 2020", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.CompetitionID, convey.ShouldEqual, 55)
				convey.So(cfg.SeasonID, convey.ShouldEqual, 43)
				convey.So(cfg.Team, convey.ShouldEqual, "France")
				convey.So(cfg.TeamID, convey.ShouldEqual, 771)
				convey.So(cfg.Players, convey.ShouldResemble, []string{"Karim Benzema", "Kylian Mbappé Lottin", "Antoine Griezmann"})
				convey.So(cfg.Cache, convey.ShouldEqual, config.CacheSQLite)
				convey.So(cfg.KeepGoing, convey.ShouldBeFalse)
				convey.So(cfg.DBPath, convey.ShouldEqual, config.DefaultDBPath())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FBMETRICS_TEAM", "Spain")
			_ = os.Setenv("FBMETRICS_TEAM_ID", "772")
			_ = os.Setenv("FBMETRICS_PLAYERS", "Pedro González López, Álvaro Borja Morata Martín")
			_ = os.Setenv("FBMETRICS_KEEP_GOING", "true")
			_ = os.Setenv("FBMETRICS_CACHE_TTL", "24h")
			defer clearConfigEnvVars()

			cfg, err := config.Load("")

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Team, convey.ShouldEqual, "Spain")
				convey.So(cfg.TeamID, convey.ShouldEqual, 772)
				convey.So(cfg.Players, convey.ShouldResemble, []string{"Pedro González López", "Álvaro Borja Morata Martín"})
				convey.So(cfg.KeepGoing, convey.ShouldBeTrue)
				convey.So(cfg.CacheTTL, convey.ShouldEqual, 24*time.Hour)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, `
competition_id: 43
season_id: 106
team: Argentina
team_id: 779
players:
  - Lionel Andrés Messi Cuccittini
image_format: svg
cache: redis://localhost:6379/0
`)
			cfg, err := config.Load(path)

			convey.Convey("Then it should load from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.CompetitionID, convey.ShouldEqual, 43)
				convey.So(cfg.SeasonID, convey.ShouldEqual, 106)
				convey.So(cfg.Players, convey.ShouldResemble, []string{"Lionel Andrés Messi Cuccittini"})
				convey.So(cfg.ImageFormat, convey.ShouldEqual, "svg")
				convey.So(cfg.UsesRedis(), convey.ShouldBeTrue)
			})

			convey.Convey("And env vars should win over the file", func() {
				_ = os.Setenv("FBMETRICS_TEAM", "Croatia")
				defer clearConfigEnvVars()

				cfg, err := config.Load(path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Team, convey.ShouldEqual, "Croatia")
				convey.So(cfg.CompetitionID, convey.ShouldEqual, 43)
			})
		})

		convey.Convey("When the file is named by FBMETRICS_CONFIG", func() {
			path := writeConfigFile(t, "team: Italy\n")
			_ = os.Setenv("FBMETRICS_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load("")

			convey.Convey("Then it should be loaded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Team, convey.ShouldEqual, "Italy")
			})
		})

		convey.Convey("When only the team is changed", func() {
			convey.Convey("From a YAML file", func() {
				cfg, err := config.Load(writeConfigFile(t, "team: Italy\n"))

				convey.Convey("Then the default team id is dropped", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(cfg.Team, convey.ShouldEqual, "Italy")
					convey.So(cfg.TeamID, convey.ShouldEqual, 0)
				})
			})

			convey.Convey("From the environment", func() {
				_ = os.Setenv("FBMETRICS_TEAM", "Wales")
				defer clearConfigEnvVars()

				cfg, err := config.Load("")
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TeamID, convey.ShouldEqual, 0)
			})

			convey.Convey("With its own team id", func() {
				cfg, err := config.Load(writeConfigFile(t, "team: Italy\nteam_id: 914\n"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TeamID, convey.ShouldEqual, 914)
			})

			convey.Convey("To the default team", func() {
				cfg, err := config.Load(writeConfigFile(t, "team: France\n"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TeamID, convey.ShouldEqual, 771)
			})
		})

		convey.Convey("When the database path comes from the file", func() {
			cfg, err := config.Load(writeConfigFile(t, "db_path: fbmetrics.db\n"))

			convey.Convey("Then it is kept as written", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DBPath, convey.ShouldEqual, "fbmetrics.db")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then it should fail with ErrLoadConfig", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value is invalid", func() {
			_ = os.Setenv("FBMETRICS_IMAGE_FORMAT", "gif")
			defer clearConfigEnvVars()

			_, err := config.Load("")

			convey.Convey("Then it should fail with ErrInvalidConfig", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestValidate(t *testing.T) {
	convey.Convey("Given default config", t, func() {
		cfg := config.New()
		convey.So(cfg.Validate(), convey.ShouldBeNil)

		convey.Convey("An unknown cache backend is rejected", func() {
			cfg.Cache = "memcached://x"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("No players is rejected", func() {
			cfg.Players = nil
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("An empty team is rejected", func() {
			cfg.Team = "  "
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
