// Package report renders a classified run-time breakdown: the plain-text
// diagnostics, a JSON document, and the data handed to the pie chart.
package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/suykerbuyk/phasetime/internal/chart"
	"github.com/suykerbuyk/phasetime/internal/classify"
)

// Prettify turns a catalogue label into a display label: underscores
// become spaces, colons are dropped and every word is title-cased.
func Prettify(label string) string {
	s := strings.ReplaceAll(label, "_", " ")
	s = strings.ReplaceAll(s, ":", "")
	return cases.Title(language.English).String(s)
}

// OtherLabel is the display label of the Other bucket.
func OtherLabel(threshold float64) string {
	return fmt.Sprintf("Others (all below %.1f%%)", threshold*100)
}

// DisplayLabel returns the label shown for e in tables and legends.
func DisplayLabel(e classify.Entry, threshold float64) string {
	if e.IsOther() {
		return OtherLabel(threshold)
	}
	return Prettify(e.Label)
}

// Style controls how entries are turned into pie slices.
type Style struct {
	Title      string
	Explode    float64  // offset applied to rebuild-associated slices
	StartAngle float64  // degrees, counter-clockwise from the positive x axis
	Palette    []string // hex colours, assigned in ranked order and cycled
}

// DefaultPalette is the colour cycle of the reference chart. The first
// colour always goes to Other.
var DefaultPalette = []string{
	"#808080", "#332288", "#88CCEE", "#44AA99", "#117733", "#999933", "#DDCC77",
	"#CC6677", "#882255", "#AA4499", "#661100", "#6699CC", "#AA4466", "#4477AA",
}

// DefaultStyle returns the reference chart style.
func DefaultStyle() Style {
	return Style{
		Title:      "SWIFT operations",
		Explode:    0.2,
		StartAngle: -15,
		Palette:    append([]string(nil), DefaultPalette...),
	}
}

// Pie builds chart input from r: Other first, then the important phases
// in rank order. Rebuild phases are exploded; Other never is.
func Pie(r classify.Report, st Style) (chart.Pie, error) {
	palette := st.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	colors := make([]chart.Color, len(palette))
	for i, hex := range palette {
		c, err := chart.ParseHex(hex)
		if err != nil {
			return chart.Pie{}, fmt.Errorf("palette entry %d: %w", i, err)
		}
		colors[i] = c
	}

	p := chart.Pie{
		Title:      st.Title,
		StartAngle: st.StartAngle,
		Slices:     make([]chart.Slice, len(r.Entries)),
	}
	for i, e := range r.Entries {
		s := chart.Slice{
			Label: DisplayLabel(e, r.Threshold),
			Value: e.Ratio,
			Color: colors[i%len(colors)],
		}
		if e.Rebuild && !e.IsOther() {
			s.Explode = st.Explode
		}
		p.Slices[i] = s
	}
	return p, nil
}
