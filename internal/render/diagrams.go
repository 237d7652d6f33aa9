package render

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pable/go-football-metrics/internal/model"
)

// Marker sizes in provider units.
const (
	passCircleRadius = 1.0
	shotCircleRadius = 2.0
	keyArrowWidth    = 3.0
	arrowWidth       = 1.0
)

// passes draws a translucent circle at each origin and an arrow to the
// destination. Key passes get a wider, darker arrow.
type passes struct {
	records []model.PassRecord
	keys    model.KeyPassIndexSet
}

func (ps *passes) Plot(c draw.Canvas, _ *plot.Plot) {
	f := newFrame(c.Rectangle)
	pt := func(p model.Point) vg.Point { return f.pt(p.X, p.Y) }

	origin := draw.GlyphStyle{
		Color:  withAlpha(blue, 0.2),
		Radius: f.length(passCircleRadius),
		Shape:  draw.CircleGlyph{},
	}
	for _, r := range ps.records {
		c.DrawGlyph(origin, pt(r.Origin))

		clr, width := color.Color(royalBlue), arrowWidth
		if ps.keys.Contains(r.Index) {
			clr, width = blue, keyArrowWidth
		}
		drawArrow(c, pt(r.Origin), pt(r.Dest), f.length(width), clr)
	}
}

// drawArrow fills a flat arrow whose overall width is w, like a matplotlib
// patch arrow: a shaft of w/3 and a head of w.
func drawArrow(c draw.Canvas, from, to vg.Point, w vg.Length, clr color.Color) {
	dx, dy := float64(to.X-from.X), float64(to.Y-from.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length // along
	nx, ny := -uy, ux              // across

	head := math.Min(float64(w)*0.8, length)
	shaft, half := float64(w)/6, float64(w)/2
	neck := length - head

	at := func(along, across float64) vg.Point {
		return vg.Point{
			X: from.X + vg.Length(ux*along+nx*across),
			Y: from.Y + vg.Length(uy*along+ny*across),
		}
	}
	c.FillPolygon(clr, []vg.Point{
		at(0, shaft), at(neck, shaft), at(neck, half),
		to,
		at(neck, -half), at(neck, -shaft), at(0, -shaft),
	})
}

// shots draws a circle per shot. Goals are solid blue, other shots
// translucent royal blue.
type shots struct {
	records []model.ShotRecord
}

func (ss *shots) Plot(c draw.Canvas, _ *plot.Plot) {
	f := newFrame(c.Rectangle)
	r := f.length(shotCircleRadius)
	goal := draw.GlyphStyle{Color: blue, Radius: r, Shape: draw.CircleGlyph{}}
	miss := draw.GlyphStyle{Color: withAlpha(royalBlue, 0.5), Radius: r, Shape: draw.CircleGlyph{}}
	for _, s := range ss.records {
		sty := miss
		if s.IsGoal() {
			sty = goal
		}
		c.DrawGlyph(sty, f.pt(s.Location.X, s.Location.Y))
	}
}

// PassPlot builds the pass diagram of one player in one match.
func PassPlot(player, opponent string, records []model.PassRecord, keys model.KeyPassIndexSet) *plot.Plot {
	p := newPitchPlot(player + " passes against " + opponent)
	p.Add(&passes{records: records, keys: keys})
	return p
}

// ShotPlot builds the shot diagram of one player in one match.
func ShotPlot(player, opponent string, records []model.ShotRecord) *plot.Plot {
	p := newPitchPlot(player + " shots against " + opponent)
	p.Add(&shots{records: records})
	return p
}
