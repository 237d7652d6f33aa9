package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/pable/go-football-metrics/internal/model"
	"github.com/pable/go-football-metrics/internal/storage"
)

func sampleReports() []model.PlayerMatchReport {
	return []model.PlayerMatchReport{
		{MatchID: 1, MatchDate: "2021-06-15", Player: "Kylian Mbappé", Team: "France", Opponent: "Germany",
			Passes: 30, KeyPasses: 2, Shots: 3, Goals: 0, XGShots: 3, XGTotal: 0.45},
		{MatchID: 2, MatchDate: "2021-06-19", Player: "Kylian Mbappé", Team: "France", Opponent: "Hungary",
			Passes: 25, KeyPasses: 1, Shots: 2, Goals: 1, XGShots: 2, XGTotal: 0.5},
	}
}

func TestBuildExportPlayer(t *testing.T) {
	p := buildExportPlayer("Kylian Mbappé", sampleReports())
	if p.Matches != 2 || p.Shots != 5 || p.Goals != 1 || p.KeyPasses != 3 {
		t.Errorf("totals = %+v", p)
	}
	if p.XGTotal != 0.95 {
		t.Errorf("XGTotal = %v, want 0.95", p.XGTotal)
	}
	if p.AvgXG == nil || *p.AvgXG != 0.19 {
		t.Errorf("AvgXG = %v, want 0.19", p.AvgXG)
	}
	if len(p.PerMatch) != 2 || p.PerMatch[1].Opponent != "Hungary" {
		t.Errorf("PerMatch = %+v", p.PerMatch)
	}
}

func TestBuildExportPlayer_NoXG(t *testing.T) {
	reports := []model.PlayerMatchReport{{MatchID: 1, Player: "N'Golo Kanté", Passes: 50}}
	p := buildExportPlayer("N'Golo Kanté", reports)
	if p.AvgXG != nil {
		t.Errorf("AvgXG = %v, want nil", *p.AvgXG)
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte(`"avg_xg":null`)) {
		t.Errorf("json = %s", b)
	}
}

func TestWriteExportCSV(t *testing.T) {
	doc := exportDoc{Players: []exportPlayer{buildExportPlayer("Kylian Mbappé", sampleReports())}}
	var buf bytes.Buffer
	if err := writeExportCSV(&buf, doc); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "player" || rows[2][2] != "2" || rows[2][9] != "0.500" {
		t.Errorf("rows = %v", rows)
	}
}

func TestBuildPlayerContext(t *testing.T) {
	reports := sampleReports()
	out, err := buildPlayerContext(storage.Aggregate("Kylian Mbappé", reports), reports)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Totals   map[string]any   `json:"totals"`
		PerMatch []map[string]any `json:"per_match"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if got.Totals["shots"] != float64(5) || got.Totals["xg_per_shot"] != 0.19 {
		t.Errorf("totals = %v", got.Totals)
	}
	if len(got.PerMatch) != 2 || got.PerMatch[0]["opponent"] != "Germany" {
		t.Errorf("per_match = %v", got.PerMatch)
	}
}

func TestRound2(t *testing.T) {
	if got := round2(0.456); got != 0.46 {
		t.Errorf("round2(0.456) = %v", got)
	}
	if got := round3(0.4567); got != 0.457 {
		t.Errorf("round3(0.4567) = %v", got)
	}
}
