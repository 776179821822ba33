package chart

import (
	"image/png"
	"io"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"
)

var (
	colorBackdrop = Color{0xff, 0xff, 0xff, 0xff}
	colorText     = Color{0x1a, 0x1a, 0x1a, 0xff}
	colorStroke   = Color{0xff, 0xff, 0xff, 0xff}
	colorLegendBG = Color{0xf7, 0xf7, 0xf7, 0xff}
	colorLegendBd = Color{0xcc, 0xcc, 0xcc, 0xff}
)

const (
	pctDistance = 0.85
	legendRowH  = 18.0
)

type ggRenderer struct{}

func (ggRenderer) Name() string { return GG }

func (ggRenderer) Render(w io.Writer, p Pie, o Options) error {
	wedges, err := Layout(p)
	if err != nil {
		return err
	}
	g := newGeometry(o)

	dc := gg.NewContext(o.Width, o.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	if blank(wedges) {
		dc.DrawCircle(g.cx, g.cy, g.r)
		dc.SetColor(colorLegendBd)
		dc.SetLineWidth(1)
		dc.Stroke()
	}
	for _, wd := range wedges {
		if wd.Fraction == 0 {
			continue
		}
		cx, cy := g.point(wd, 0, 0)
		dc.NewSubPath()
		dc.MoveTo(cx, cy)
		// gg angles run clockwise on the canvas.
		dc.DrawArc(cx, cy, g.r, -radians(wd.Start), -radians(wd.End))
		dc.ClosePath()
		dc.SetColor(wd.Color)
		dc.FillPreserve()
		dc.SetColor(colorStroke)
		dc.SetLineWidth(1)
		dc.Stroke()
	}

	dc.SetColor(colorText)
	for _, wd := range wedges {
		if wd.Fraction == 0 {
			continue
		}
		x, y := g.point(wd, wd.Mid(), g.r*pctDistance)
		dc.DrawStringAnchored(wd.Percent(), x, y, 0.5, 0.5)
	}

	drawLegend(dc, p.Title, wedges)

	return png.Encode(w, dc.Image())
}

func drawLegend(dc *gg.Context, title string, wedges []Wedge) {
	x, y := 16.0, 16.0
	boxW := 28.0
	tw, _ := dc.MeasureString(title)
	boxW = max(boxW, tw+24)
	for _, wd := range wedges {
		lw, _ := dc.MeasureString(wd.Label)
		boxW = max(boxW, lw+44)
	}
	boxH := legendRowH*float64(len(wedges)+1) + 12

	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 6)
	dc.Fill()
	dc.SetColor(colorLegendBd)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 6)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored(title, x+boxW/2, y+legendRowH/2+6, 0.5, 0.5)

	for i, wd := range wedges {
		ry := y + 6 + legendRowH*float64(i+1) + legendRowH/2
		dc.SetColor(wd.Color)
		dc.DrawRectangle(x+12, ry-6, 14, 12)
		dc.Fill()
		dc.SetColor(colorText)
		dc.DrawStringAnchored(wd.Label, x+32, ry, 0, 0.5)
	}
}
