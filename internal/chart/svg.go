package chart

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"
)

type svgRenderer struct{}

func (svgRenderer) Name() string { return SVG }

func (svgRenderer) Render(w io.Writer, p Pie, o Options) error {
	wedges, err := Layout(p)
	if err != nil {
		return err
	}
	g := newGeometry(o)

	canvas := svg.New(w)
	canvas.Start(o.Width, o.Height)
	canvas.Rect(0, 0, o.Width, o.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	if blank(wedges) {
		canvas.Circle(int(g.cx), int(g.cy), int(g.r),
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:1", css(colorLegendBd)))
	}
	for _, wd := range wedges {
		if wd.Fraction == 0 {
			continue
		}
		style := fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(wd.Color), css(colorStroke))
		if wd.Fraction >= 1 {
			cx, cy := g.point(wd, 0, 0)
			canvas.Circle(int(cx), int(cy), int(g.r), style)
			continue
		}
		canvas.Path(wedgePath(g, wd), style)
	}

	for _, wd := range wedges {
		if wd.Fraction == 0 {
			continue
		}
		x, y := g.point(wd, wd.Mid(), g.r*pctDistance)
		canvas.Text(int(x), int(y), wd.Percent(),
			fmt.Sprintf("fill:%s;font-size:13px;font-family:sans-serif;text-anchor:middle;dominant-baseline:middle", css(colorText)))
	}

	drawLegendSVG(canvas, p.Title, wedges)

	canvas.End()
	return nil
}

// wedgePath returns the SVG path of a wedge: centre, arc start, a
// counter-clockwise arc (sweep flag 0 on a y-down canvas), back to centre.
func wedgePath(g geometry, wd Wedge) string {
	cx, cy := g.point(wd, 0, 0)
	x1, y1 := g.point(wd, wd.Start, g.r)
	x2, y2 := g.point(wd, wd.End, g.r)
	large := 0
	if wd.Fraction > 0.5 {
		large = 1
	}
	return fmt.Sprintf("M%.2f,%.2f L%.2f,%.2f A%.2f,%.2f 0 %d 0 %.2f,%.2f Z",
		cx, cy, x1, y1, g.r, g.r, large, x2, y2)
}

func drawLegendSVG(canvas *svg.SVG, title string, wedges []Wedge) {
	x, y := 16, 16
	longest := len(title)
	for _, wd := range wedges {
		longest = max(longest, len(wd.Label)+3)
	}
	boxW := longest*8 + 28
	boxH := int(legendRowH)*(len(wedges)+1) + 12

	canvas.Roundrect(x, y, boxW, boxH, 6, 6,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorLegendBd)))
	canvas.Text(x+boxW/2, y+int(legendRowH), title,
		fmt.Sprintf("fill:%s;font-size:14px;font-family:sans-serif;font-weight:bold;text-anchor:middle", css(colorText)))

	for i, wd := range wedges {
		ry := y + 6 + int(legendRowH)*(i+1) + int(legendRowH)/2
		canvas.Rect(x+12, ry-6, 14, 12, fmt.Sprintf("fill:%s", css(wd.Color)))
		canvas.Text(x+32, ry+4, wd.Label,
			fmt.Sprintf("fill:%s;font-size:13px;font-family:sans-serif", css(colorText)))
	}
}
