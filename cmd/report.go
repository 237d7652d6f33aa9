package cmd

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pable/go-football-metrics/internal/pipeline"
	"github.com/pable/go-football-metrics/internal/render"
	"github.com/pable/go-football-metrics/internal/report"
)

var (
	reportOutDir   string
	reportFormat   string
	reportNoImages bool
	reportNoSave   bool
	reportFocus    string
)

// reportCmd runs the full report: per-match key passes, xG and diagrams for
// every tracked player.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the per-player match report and diagrams",
	Long: `For every match the configured team played in the season, detect key
passes, collect shots, draw a pass map and a shot map per tracked player and
print each player's average xG over those matches.

Examples:
  fbmetrics report
  fbmetrics report --team Italy --players "Lorenzo Insigne,Ciro Immobile" --format svg
  fbmetrics report --keep-going --no-images`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportOutDir, "out", "", "directory for diagrams (default from config)")
	f.StringVar(&reportFormat, "format", "", "diagram format: png or svg (default from config)")
	f.Bool("keep-going", false, "skip a failing match instead of aborting")
	f.BoolVar(&reportNoImages, "no-images", false, "skip diagram rendering")
	f.BoolVar(&reportNoSave, "no-save", false, "do not record the run in the database")
	f.StringVar(&reportFocus, "player", "", "highlight this player in the table")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if cmd.Flags().Changed("keep-going") {
		cfg.KeepGoing, _ = cmd.Flags().GetBool("keep-going")
	}
	if reportOutDir != "" {
		cfg.OutDir = reportOutDir
	}
	if reportFormat != "" {
		cfg.ImageFormat = reportFormat
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	src, closeSrc, err := openSource(ctx, db)
	if err != nil {
		return err
	}
	defer closeSrc()

	var renderer pipeline.Renderer
	if !reportNoImages {
		renderer = render.New(cfg.OutDir, cfg.ImageFormat)
	}
	var recorder pipeline.Recorder
	if !reportNoSave {
		recorder = db
	}

	driver := pipeline.New(src, renderer, recorder, log.WithField("cmd", "report"))
	res, err := driver.Run(ctx, pipeline.Options{
		CompetitionID: cfg.CompetitionID,
		SeasonID:      cfg.SeasonID,
		Team:          cfg.Team,
		TeamID:        cfg.TeamID,
		Players:       cfg.Players,
		KeepGoing:     cfg.KeepGoing,
	})
	if err != nil {
		return err
	}
	if len(res.Matches) == 0 {
		cWarn.Fprintf(os.Stderr, "%s played no match in competition %d / season %d (see 'fbmetrics matches --all')\n",
			cfg.Team, cfg.CompetitionID, cfg.SeasonID)
		return nil
	}

	fmt.Printf("\n%s: %d matches, %d player rows  |  run %s\n",
		cfg.Team, len(res.Matches), len(res.Reports), res.Run.ID)
	report.PrintPlayerTable(res.Reports, reportFocus)
	if !reportNoImages {
		fmt.Println()
		report.PrintImages(os.Stdout, res.Reports)
	}

	rows := make([]report.XGRow, 0, len(res.PlayerXG))
	for _, p := range cfg.Players {
		v, ok := res.PlayerXG[p]
		if !ok {
			continue
		}
		note := ""
		if math.IsNaN(v) {
			note = "no shots with xG"
		}
		rows = append(rows, report.XGRow{Scope: p, XG: v, Note: note})
	}
	fmt.Println()
	report.PrintXGTable(os.Stdout, rows)

	if len(res.Failures) > 0 {
		sort.Slice(res.Failures, func(i, j int) bool { return res.Failures[i].MatchID < res.Failures[j].MatchID })
		cWarn.Fprintf(os.Stderr, "\n%d match(es) skipped:\n", len(res.Failures))
		for _, f := range res.Failures {
			cWarn.Fprintf(os.Stderr, "  %d: %v\n", f.MatchID, f.Err)
		}
	}

	hits, misses := src.Stats()
	cMuted.Printf("\ncache: %d hits, %d fetches\n", hits, misses)
	return nil
}
