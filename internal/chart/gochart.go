package chart

import (
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// goChartRenderer draws with go-chart. go-chart always fills the whole
// circle and has no explode offsets, so partial pies are normalised and
// the legend title is used as the chart title.
type goChartRenderer struct{}

func (goChartRenderer) Name() string { return GoChart }

func (goChartRenderer) Render(w io.Writer, p Pie, o Options) error {
	wedges, err := Layout(p)
	if err != nil {
		return err
	}

	values := make([]gochart.Value, 0, len(wedges))
	for _, wd := range wedges {
		if wd.Fraction == 0 {
			continue
		}
		values = append(values, gochart.Value{
			Label: wd.Label + " " + wd.Percent(),
			Value: wd.Fraction,
			Style: gochart.Style{
				FillColor:   drawing.Color{R: wd.Color.R, G: wd.Color.G, B: wd.Color.B, A: 0xff},
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
			},
		})
	}

	// go-chart refuses an empty value list; an all-zero pie is drawn as a
	// single unlabelled backdrop wedge.
	if len(values) == 0 {
		values = append(values, gochart.Value{
			Value: 1,
			Style: gochart.Style{
				FillColor:   drawing.Color{R: colorLegendBG.R, G: colorLegendBG.G, B: colorLegendBG.B, A: 0xff},
				StrokeColor: drawing.Color{R: colorLegendBd.R, G: colorLegendBd.G, B: colorLegendBd.B, A: 0xff},
				StrokeWidth: 1,
			},
		})
	}

	pie := gochart.PieChart{
		Title:  p.Title,
		Width:  o.Width,
		Height: o.Height,
		Values: values,
	}
	return pie.Render(gochart.PNG, w)
}
