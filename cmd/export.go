package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-football-metrics/internal/model"
	"github.com/pable/go-football-metrics/internal/storage"
)

var (
	exportFormat string
	exportRun    string
	exportOut    string
)

// exportDoc is the top-level JSON document.
type exportDoc struct {
	GeneratedAt   string         `json:"generated_at"`
	CompetitionID int            `json:"competition_id"`
	SeasonID      int            `json:"season_id"`
	Team          string         `json:"team"`
	RunID         string         `json:"run_id,omitempty"`
	Players       []exportPlayer `json:"players"`
}

type exportPlayer struct {
	Player    string        `json:"player"`
	Team      string        `json:"team"`
	Matches   int           `json:"matches"`
	Passes    int           `json:"passes"`
	KeyPasses int           `json:"key_passes"`
	Shots     int           `json:"shots"`
	Goals     int           `json:"goals"`
	XGTotal   float64       `json:"xg_total"`
	AvgXG     *float64      `json:"avg_xg"` // null when no shot carried xG
	PerMatch  []exportMatch `json:"per_match"`
}

type exportMatch struct {
	MatchID   int     `json:"match_id"`
	Date      string  `json:"date"`
	Opponent  string  `json:"opponent"`
	Passes    int     `json:"passes"`
	KeyPasses int     `json:"key_passes"`
	Shots     int     `json:"shots"`
	Goals     int     `json:"goals"`
	XGTotal   float64 `json:"xg_total"`
	PassImage string  `json:"pass_image,omitempty"`
	ShotImage string  `json:"shot_image,omitempty"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded player reports as JSON or CSV",
	Long: `Writes the recorded report rows of the configured players. By default each
match is taken from the latest run that covered it; --run restricts the export
to one run.

Example:
  fbmetrics export --out france.json
  fbmetrics export --format csv --run 3f2a > rows.csv`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or csv")
	exportCmd.Flags().StringVar(&exportRun, "run", "", "export one run by id prefix")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path (default: stdout)")
}

func runExport(_ *cobra.Command, _ []string) error {
	if exportFormat != "json" && exportFormat != "csv" {
		return fmt.Errorf("unknown export format %q", exportFormat)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	doc := exportDoc{
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		CompetitionID: cfg.CompetitionID,
		SeasonID:      cfg.SeasonID,
		Team:          cfg.Team,
	}
	byPlayer, err := exportReports(db, &doc)
	if err != nil {
		return err
	}
	for _, p := range cfg.Players {
		reports := byPlayer[p]
		if len(reports) == 0 {
			fmt.Fprintf(os.Stderr, "warning: no reports for %q\n", p)
			continue
		}
		doc.Players = append(doc.Players, buildExportPlayer(p, reports))
	}
	if len(doc.Players) == 0 {
		return fmt.Errorf("nothing to export: run 'fbmetrics report' first")
	}

	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if exportFormat == "csv" {
		err = writeExportCSV(w, doc)
	} else {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	}
	if err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	if exportOut != "" {
		fmt.Fprintf(os.Stderr, "Wrote %s (%d players)\n", exportOut, len(doc.Players))
	}
	return nil
}

// exportReports returns the rows to export keyed by player.
func exportReports(db *storage.DB, doc *exportDoc) (map[string][]model.PlayerMatchReport, error) {
	out := make(map[string][]model.PlayerMatchReport)
	if exportRun == "" {
		for _, p := range cfg.Players {
			reports, err := db.GetPlayerReports(p)
			if err != nil {
				return nil, fmt.Errorf("query reports for %s: %w", p, err)
			}
			out[p] = reports
		}
		return out, nil
	}

	run, err := findRun(db, exportRun)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("no run found with id prefix %q", exportRun)
	}
	doc.RunID = run.ID
	doc.CompetitionID, doc.SeasonID, doc.Team = run.CompetitionID, run.SeasonID, run.Team
	reports, err := db.GetRunReports(run.ID)
	if err != nil {
		return nil, fmt.Errorf("run reports: %w", err)
	}
	for _, r := range reports {
		out[r.Player] = append(out[r.Player], r)
	}
	return out, nil
}

func buildExportPlayer(player string, reports []model.PlayerMatchReport) exportPlayer {
	agg := storage.Aggregate(player, reports)
	p := exportPlayer{
		Player:    player,
		Team:      agg.Team,
		Matches:   agg.Matches,
		Passes:    agg.Passes,
		KeyPasses: agg.KeyPasses,
		Shots:     agg.Shots,
		Goals:     agg.Goals,
		XGTotal:   round3(agg.XGTotal),
	}
	if agg.XGShots > 0 {
		v := round3(agg.AvgXG())
		p.AvgXG = &v
	}
	for _, r := range reports {
		p.PerMatch = append(p.PerMatch, exportMatch{
			MatchID:   r.MatchID,
			Date:      r.MatchDate,
			Opponent:  r.Opponent,
			Passes:    r.Passes,
			KeyPasses: r.KeyPasses,
			Shots:     r.Shots,
			Goals:     r.Goals,
			XGTotal:   round3(r.XGTotal),
			PassImage: r.PassImage,
			ShotImage: r.ShotImage,
		})
	}
	return p
}

// writeExportCSV writes one row per player and match.
func writeExportCSV(w io.Writer, doc exportDoc) error {
	cw := csv.NewWriter(w)
	header := []string{"player", "team", "match_id", "date", "opponent",
		"passes", "key_passes", "shots", "goals", "xg_total", "pass_image", "shot_image"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range doc.Players {
		for _, m := range p.PerMatch {
			row := []string{
				p.Player, p.Team, strconv.Itoa(m.MatchID), m.Date, m.Opponent,
				strconv.Itoa(m.Passes), strconv.Itoa(m.KeyPasses),
				strconv.Itoa(m.Shots), strconv.Itoa(m.Goals),
				strconv.FormatFloat(m.XGTotal, 'f', 3, 64),
				m.PassImage, m.ShotImage,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
