package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/pable/go-football-metrics/internal/model"
)

func TestPrintMatchList_TeamView(t *testing.T) {
	matches := []model.Match{
		{ID: 1, Date: "2021-06-15", HomeTeam: "France", AwayTeam: "Germany", HomeScore: 1},
		{ID: 2, Date: "2021-06-16", HomeTeam: "Italy", AwayTeam: "Wales", HomeScore: 1},
		{ID: 3, Date: "2021-06-23", HomeTeam: "Portugal", AwayTeam: "France", HomeScore: 2, AwayScore: 2},
	}
	var buf bytes.Buffer
	PrintMatchList(&buf, matches, "France")
	out := buf.String()

	if !strings.Contains(out, "Germany") || !strings.Contains(out, "Portugal") {
		t.Errorf("missing opponents:\n%s", out)
	}
	if strings.Contains(out, "Wales") {
		t.Errorf("uninvolved match listed:\n%s", out)
	}
	if !strings.Contains(out, "W 1-0") || !strings.Contains(out, "D 2-2") {
		t.Errorf("missing results:\n%s", out)
	}
}

func TestPrintPlayerTableTo_MarksFocus(t *testing.T) {
	reports := []model.PlayerMatchReport{
		{Player: "Karim Benzema", Team: "France", Opponent: "Portugal", Passes: 21, KeyPasses: 2, Shots: 4, Goals: 2, XGShots: 4, XGTotal: 1.6},
		{Player: "Antoine Griezmann", Team: "France", Opponent: "Portugal", Passes: 35},
	}
	var buf bytes.Buffer
	PrintPlayerTableTo(&buf, reports, "Karim Benzema")
	out := buf.String()

	if !strings.Contains(out, ">") {
		t.Errorf("focus marker missing:\n%s", out)
	}
	if !strings.Contains(out, "0.400") || !strings.Contains(out, "50%") {
		t.Errorf("expected xG/shot 0.400 and 50%% conversion:\n%s", out)
	}
	if !strings.Contains(out, "—") {
		t.Errorf("player without xG should show a dash:\n%s", out)
	}
}

func TestPrintPlayerMatches_Cumulative(t *testing.T) {
	reports := []model.PlayerMatchReport{
		{MatchDate: "2021-06-15", Opponent: "Germany", Goals: 0, XGTotal: 0.5},
		{MatchDate: "2021-06-23", Opponent: "Portugal", Goals: 2, XGTotal: 1.0},
	}
	var buf bytes.Buffer
	PrintPlayerMatches(&buf, reports)
	if !strings.Contains(buf.String(), "+0.50") {
		t.Errorf("expected cumulative G-xG +0.50:\n%s", buf.String())
	}
}

func TestPrintXGTable_NaN(t *testing.T) {
	var buf bytes.Buffer
	PrintXGTable(&buf, []XGRow{
		{Scope: "competition", XG: 0.1234},
		{Scope: "Antoine Griezmann", XG: math.NaN(), Note: "no shots"},
	})
	out := buf.String()
	if !strings.Contains(out, "0.123") || !strings.Contains(out, "no shots") || !strings.Contains(out, "—") {
		t.Errorf("unexpected xG table:\n%s", out)
	}
}

func TestWilsonCI(t *testing.T) {
	lo, hi := wilsonCI(0, 0)
	if lo != 0 || hi != 1 {
		t.Errorf("empty sample = [%v, %v], want [0, 1]", lo, hi)
	}
	lo, hi = wilsonCI(5, 10)
	if lo >= 0.5 || hi <= 0.5 || lo < 0 || hi > 1 {
		t.Errorf("interval [%v, %v] should straddle 0.5", lo, hi)
	}
}

func TestShortID(t *testing.T) {
	if shortID("0f1e2d3c-4b5a") != "0f1e2d3c" || shortID("abc") != "abc" {
		t.Error("shortID truncation")
	}
}
