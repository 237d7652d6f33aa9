// Package render draws pass and shot diagrams on a football pitch.
package render

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pable/go-football-metrics/internal/model"
)

// Pitch markings in provider coordinates.
const (
	penaltyBoxDepth = 18.0
	penaltyBoxTop   = 18.0
	sixYardDepth    = 6.0
	sixYardTop      = 30.0
	goalTop         = 36.0
	goalDepth       = 2.0
	penaltySpotX    = 12.0
	centreRadius    = 10.0
)

var (
	royalBlue = color.NRGBA{R: 65, G: 105, B: 225, A: 255}
	blue      = color.NRGBA{B: 255, A: 255}
)

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(math.Round(a * 255))
	return c
}

// flipY maps a provider y (growing downward) onto the plot's upward axis.
func flipY(y float64) float64 { return model.PitchWidth - y }

// pitch draws the field markings. It implements plot.Plotter and
// plot.DataRanger.
type pitch struct {
	line draw.LineStyle
}

func newPitch() *pitch {
	return &pitch{line: draw.LineStyle{Color: color.Black, Width: vg.Points(2)}}
}

// Drawn extent in provider units: the field plus a margin that shows the goals.
const (
	extentMinX = -goalDepth - 1
	extentMaxX = model.PitchLength + goalDepth + 1
	extentMinY = -1.0
	extentMaxY = model.PitchWidth + 1
)

// DataRange keeps a small margin around the field so the goals are visible.
func (p *pitch) DataRange() (xmin, xmax, ymin, ymax float64) {
	return extentMinX, extentMaxX, extentMinY, extentMaxY
}

// frame maps provider coordinates onto a canvas with one scale for both axes,
// centring the extent in the canvas.
type frame struct {
	scale  float64 // canvas length per provider unit
	x0, y0 vg.Length
}

func newFrame(area vg.Rectangle) frame {
	w, h := float64(area.Max.X-area.Min.X), float64(area.Max.Y-area.Min.Y)
	dx, dy := extentMaxX-extentMinX, extentMaxY-extentMinY
	s := math.Min(w/dx, h/dy)
	return frame{
		scale: s,
		x0:    area.Min.X + vg.Length((w-s*dx)/2),
		y0:    area.Min.Y + vg.Length((h-s*dy)/2),
	}
}

// pt converts a provider point; y is flipped so the top touchline is on top.
func (f frame) pt(x, y float64) vg.Point {
	return vg.Point{
		X: f.x0 + vg.Length((x-extentMinX)*f.scale),
		Y: f.y0 + vg.Length((flipY(y)-extentMinY)*f.scale),
	}
}

// length converts a distance in provider units.
func (f frame) length(v float64) vg.Length { return vg.Length(v * f.scale) }

func (p *pitch) Plot(c draw.Canvas, _ *plot.Plot) {
	pt := newFrame(c.Rectangle).pt
	rect := func(x0, y0, x1, y1 float64) {
		c.StrokeLines(p.line, []vg.Point{pt(x0, y0), pt(x1, y0), pt(x1, y1), pt(x0, y1), pt(x0, y0)})
	}

	const L, W = model.PitchLength, model.PitchWidth

	rect(0, 0, L, W)
	c.StrokeLines(p.line, []vg.Point{pt(L/2, 0), pt(L/2, W)})

	// Boxes and goals at both ends.
	rect(0, penaltyBoxTop, penaltyBoxDepth, W-penaltyBoxTop)
	rect(L-penaltyBoxDepth, penaltyBoxTop, L, W-penaltyBoxTop)
	rect(0, sixYardTop, sixYardDepth, W-sixYardTop)
	rect(L-sixYardDepth, sixYardTop, L, W-sixYardTop)
	rect(-goalDepth, goalTop, 0, W-goalTop)
	rect(L, goalTop, L+goalDepth, W-goalTop)

	c.StrokeLines(p.line, arc(pt, L/2, W/2, centreRadius, 0, 2*math.Pi))

	// Penalty arcs: the part of the circle round each spot outside the box.
	edge := math.Acos((penaltyBoxDepth - penaltySpotX) / centreRadius)
	c.StrokeLines(p.line, arc(pt, penaltySpotX, W/2, centreRadius, -edge, edge))
	c.StrokeLines(p.line, arc(pt, L-penaltySpotX, W/2, centreRadius, math.Pi-edge, math.Pi+edge))

	spot := draw.GlyphStyle{Color: color.Black, Radius: vg.Points(2.5), Shape: draw.CircleGlyph{}}
	c.DrawGlyph(spot, pt(L/2, W/2))
	c.DrawGlyph(spot, pt(penaltySpotX, W/2))
	c.DrawGlyph(spot, pt(L-penaltySpotX, W/2))
}

// arc approximates a circular arc in provider coordinates as a polyline.
func arc(pt func(x, y float64) vg.Point, cx, cy, r, from, to float64) []vg.Point {
	const steps = 64
	out := make([]vg.Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		a := from + (to-from)*float64(i)/steps
		out = append(out, pt(cx+r*math.Cos(a), cy+r*math.Sin(a)))
	}
	return out
}

// newPitchPlot returns a plot holding an empty pitch.
func newPitchPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(20)
	p.HideAxes()
	p.Add(newPitch())
	return p
}
