// Package chart draws the run-time pie chart. Layout is computed once by
// Layout and shared by every renderer so the backends agree on geometry.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Color is an opaque RGB colour.
type Color = color.RGBA

// ParseHex parses "#rrggbb" or "rrggbb".
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return Color{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q", s)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func css(c Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Slice is one wedge of input.
type Slice struct {
	Label   string
	Value   float64 // share of total run time
	Explode float64 // radial offset as a fraction of the radius
	Color   Color
}

// Pie is everything a renderer needs.
type Pie struct {
	Title      string  // legend title
	StartAngle float64 // degrees, counter-clockwise from the positive x axis
	Slices     []Slice
}

// Options sets the output canvas size in pixels.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions returns the default canvas.
func DefaultOptions() Options {
	return Options{Width: 960, Height: 960}
}

// Wedge is a laid-out slice. Angles are in degrees, counter-clockwise,
// with End >= Start.
type Wedge struct {
	Slice
	Fraction float64 // share of the full circle
	Start    float64
	End      float64
}

// Mid returns the bisecting angle of w in degrees.
func (w Wedge) Mid() float64 { return (w.Start + w.End) / 2 }

// Percent returns the wedge annotation, e.g. "12.34%".
func (w Wedge) Percent() string { return fmt.Sprintf("%4.2f%%", w.Fraction*100) }

// Layout assigns angles to the slices of p in order, counter-clockwise
// from p.StartAngle. Values summing to at most 1 are drawn as-is and
// leave the rest of the circle empty; larger sums are normalised. A pie
// whose values are all zero lays out as zero-width wedges.
func Layout(p Pie) ([]Wedge, error) {
	sum := 0.0
	for _, s := range p.Slices {
		if s.Value < 0 || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			return nil, fmt.Errorf("slice %q: invalid value %v", s.Label, s.Value)
		}
		sum += s.Value
	}
	scale := 1.0
	if sum > 1 {
		scale = 1 / sum
	}

	wedges := make([]Wedge, len(p.Slices))
	angle := p.StartAngle
	for i, s := range p.Slices {
		frac := s.Value * scale
		wedges[i] = Wedge{
			Slice:    s,
			Fraction: frac,
			Start:    angle,
			End:      angle + 360*frac,
		}
		angle = wedges[i].End
	}
	return wedges, nil
}

// geometry places the pie on the canvas, leaving the upper-left corner to
// the legend.
type geometry struct {
	cx, cy, r float64
}

func newGeometry(o Options) geometry {
	w, h := float64(o.Width), float64(o.Height)
	return geometry{
		cx: w * 0.58,
		cy: h * 0.58,
		r:  math.Min(w, h) * 0.32,
	}
}

// point returns the canvas position at angle deg and distance d from the
// centre of w, including w's explode offset.
func (g geometry) point(w Wedge, deg, d float64) (float64, float64) {
	mid := radians(w.Mid())
	ox := w.Explode * g.r * math.Cos(mid)
	oy := w.Explode * g.r * math.Sin(mid)
	a := radians(deg)
	// Canvas y grows downwards.
	return g.cx + ox + d*math.Cos(a), g.cy - oy - d*math.Sin(a)
}

// blank reports whether no wedge has any width.
func blank(wedges []Wedge) bool {
	for _, w := range wedges {
		if w.Fraction > 0 {
			return false
		}
	}
	return true
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Renderer writes a pie in one image format.
type Renderer interface {
	Name() string
	Render(w io.Writer, p Pie, o Options) error
}

// Renderer names accepted by Lookup.
const (
	Auto    = "auto"
	GG      = "gg"
	SVG     = "svg"
	GoChart = "gochart"
)

// Lookup returns the renderer called name. For "auto" (or "") the
// renderer is chosen from the extension of path.
func Lookup(name, path string) (Renderer, error) {
	switch strings.ToLower(name) {
	case "", Auto:
		switch strings.ToLower(filepath.Ext(path)) {
		case ".png":
			return ggRenderer{}, nil
		case ".svg":
			return svgRenderer{}, nil
		}
		return nil, fmt.Errorf("cannot infer chart format from %q (want .png or .svg)", path)
	case GG:
		return ggRenderer{}, nil
	case SVG:
		return svgRenderer{}, nil
	case GoChart:
		return goChartRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown renderer %q (want auto, gg, svg or gochart)", name)
}

// Save renders p to path. The chart is written to a temporary file in the
// same directory and renamed into place, so path is left untouched when
// rendering fails.
func Save(path string, r Renderer, p Pie, o Options) error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid chart size %dx%d", o.Width, o.Height)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	tmpPath := tmp.Name()

	if err := r.Render(tmp, p, o); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("render %s chart: %w", r.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write chart: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}
