package render

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/plot/vg"

	"github.com/pable/go-football-metrics/internal/model"
)

func samplePasses() []model.PassRecord {
	return []model.PassRecord{
		{Index: 4, Player: "Antoine Griezmann", TeamID: 771, TeamName: "France",
			Origin: model.Point{X: 60, Y: 40}, Dest: model.Point{X: 95, Y: 22}},
		{Index: 9, Player: "Antoine Griezmann", TeamID: 771, TeamName: "France",
			Origin: model.Point{X: 80, Y: 60}, Dest: model.Point{X: 104, Y: 44}},
		// zero-length passes must not break the arrow geometry
		{Index: 12, Player: "Antoine Griezmann", TeamID: 771, TeamName: "France",
			Origin: model.Point{X: 30, Y: 30}, Dest: model.Point{X: 30, Y: 30}},
	}
}

func sampleShots() []model.ShotRecord {
	return []model.ShotRecord{
		{Index: 10, Player: "Karim Benzema", Location: model.Point{X: 108, Y: 38}, Outcome: model.OutcomeGoal, XG: 0.4},
		{Index: 20, Player: "Karim Benzema", Location: model.Point{X: 100, Y: 30}, Outcome: "Saved", XG: 0.05},
	}
}

func TestSlug(t *testing.T) {
	for in, want := range map[string]string{
		"Karim Benzema":        "karim-benzema",
		"Kylian Mbappé Lottin": "kylian-mbappé-lottin",
		"  N'Golo  Kanté ":     "n-golo-kanté",
		"":                     "",
	} {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileName(t *testing.T) {
	got := FileName(3788741, "Antoine Griezmann", KindPasses, "svg")
	if got != "3788741_antoine-griezmann_passes.svg" {
		t.Errorf("FileName = %q", got)
	}
}

func TestPlots_Titles(t *testing.T) {
	p := PassPlot("Antoine Griezmann", "Germany", samplePasses(), model.KeyPassIndexSet{9})
	if p.Title.Text != "Antoine Griezmann passes against Germany" {
		t.Errorf("pass title = %q", p.Title.Text)
	}
	s := ShotPlot("Karim Benzema", "Portugal", sampleShots())
	if s.Title.Text != "Karim Benzema shots against Portugal" {
		t.Errorf("shot title = %q", s.Title.Text)
	}
}

func TestPassPlot_RendersPNG(t *testing.T) {
	p := PassPlot("Antoine Griezmann", "Germany", samplePasses(), model.KeyPassIndexSet{9})
	wt, err := p.WriterTo(figureWidth, figureHeight, "png")
	if err != nil {
		t.Fatalf("WriterTo: %v", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("expected PNG output")
	}
}

func TestRenderer_WritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "img")
	r := New(dir, "svg")

	passPath, err := r.Passes(3788741, "Antoine Griezmann", "Germany", samplePasses(), model.KeyPassIndexSet{})
	if err != nil {
		t.Fatalf("Passes: %v", err)
	}
	shotPath, err := r.Shots(3788741, "Karim Benzema", "Germany", sampleShots())
	if err != nil {
		t.Fatalf("Shots: %v", err)
	}
	// A player without shots still gets an empty pitch.
	emptyPath, err := r.Shots(3788741, "Antoine Griezmann", "Germany", nil)
	if err != nil {
		t.Fatalf("Shots (empty): %v", err)
	}

	for _, path := range []string{passPath, shotPath, emptyPath} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if !bytes.Contains(data, []byte("<svg")) {
			t.Errorf("%s is not an svg", filepath.Base(path))
		}
	}
	if filepath.Base(shotPath) != "3788741_karim-benzema_shots.svg" {
		t.Errorf("unexpected name %s", filepath.Base(shotPath))
	}
}

func TestFrame_EqualScaleOnBothAxes(t *testing.T) {
	// a wide canvas, as the saved figure minus its title
	area := vg.Rectangle{Min: vg.Point{X: 10, Y: 5}, Max: vg.Point{X: 730, Y: 470}}
	f := newFrame(area)

	origin := f.pt(60, 40)
	right := f.pt(70, 40)
	up := f.pt(60, 30) // y grows downward in provider units
	dx := float64(right.X - origin.X)
	dy := float64(up.Y - origin.Y)
	if math.Abs(dx-dy) > 1e-9 || dx <= 0 {
		t.Errorf("10 yards: dx = %v, dy = %v, want equal and positive", dx, dy)
	}
	if got := float64(f.length(10)); math.Abs(got-dx) > 1e-9 {
		t.Errorf("length(10) = %v, want %v", got, dx)
	}

	// the extent fits inside the area and is centred
	lo, hi := f.pt(extentMinX, extentMaxY), f.pt(extentMaxX, extentMinY)
	if lo.X < area.Min.X-1e-9 || hi.X > area.Max.X+1e-9 || lo.Y < area.Min.Y-1e-9 || hi.Y > area.Max.Y+1e-9 {
		t.Errorf("extent %v..%v outside area %v", lo, hi, area)
	}
	if left, rightGap := lo.X-area.Min.X, area.Max.X-hi.X; math.Abs(float64(left-rightGap)) > 1e-9 {
		t.Errorf("not centred horizontally: %v vs %v", left, rightGap)
	}
}
