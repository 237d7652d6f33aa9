package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/pable/go-football-metrics/internal/model"
)

// Diagram kinds, used in file names.
const (
	KindPasses = "passes"
	KindShots  = "shots"
)

// Figure size, matching a 10x7 inch canvas.
const (
	figureWidth  = 10 * vg.Inch
	figureHeight = 7 * vg.Inch
)

// Renderer writes diagrams as png or svg files under OutDir.
type Renderer struct {
	OutDir string
	Format string
}

// New returns a Renderer. An empty format means png.
func New(outDir, format string) *Renderer {
	if format == "" {
		format = "png"
	}
	return &Renderer{OutDir: outDir, Format: format}
}

// Passes renders the pass diagram and returns the written path.
func (r *Renderer) Passes(matchID int, player, opponent string, records []model.PassRecord, keys model.KeyPassIndexSet) (string, error) {
	return r.save(PassPlot(player, opponent, records, keys), FileName(matchID, player, KindPasses, r.Format))
}

// Shots renders the shot diagram and returns the written path.
func (r *Renderer) Shots(matchID int, player, opponent string, records []model.ShotRecord) (string, error) {
	return r.save(ShotPlot(player, opponent, records), FileName(matchID, player, KindShots, r.Format))
}

func (r *Renderer) save(p *plot.Plot, name string) (string, error) {
	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(r.OutDir, name)
	if err := p.Save(figureWidth, figureHeight, path); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return path, nil
}

// FileName returns "<match>_<player-slug>_<kind>.<format>".
func FileName(matchID int, player, kind, format string) string {
	return fmt.Sprintf("%d_%s_%s.%s", matchID, Slug(player), kind, format)
}

// Slug lower-cases name and joins its letter and digit runs with dashes.
// Accented letters are kept.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
