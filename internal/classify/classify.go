// Package classify turns aggregated phase timings into a ranked breakdown
// of run time, folding minor phases into a single Other entry.
package classify

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/suykerbuyk/phasetime/internal/aggregate"
)

// DefaultThreshold is the ratio a phase must strictly exceed to be shown
// on its own (0.8% of the total run time).
const DefaultThreshold = 0.008

// OtherIndex is the catalogue index reported for the Other entry.
const OtherIndex = -1

// ErrZeroTotal means the logs reported no run time at all, so no ratio
// can be computed.
var ErrZeroTotal = errors.New("total reported run time is zero")

// Entry is one classified phase, or the Other bucket.
type Entry struct {
	Label     string // raw catalogue label; empty for Other
	Index     int    // catalogue position, OtherIndex for Other
	Count     int
	DurationS float64
	Ratio     float64 // DurationS / total reported time
	Rebuild   bool
}

// IsOther reports whether e is the aggregated Other bucket.
func (e Entry) IsOther() bool { return e.Index == OtherIndex }

// Report is the ranked breakdown of one analysis run.
type Report struct {
	Threshold float64

	// Entries holds the Other bucket first, followed by the important
	// phases in descending duration (ties in catalogue order).
	Entries []Entry

	// Folded lists the phases summed into Other, in ranked order.
	Folded []Entry

	TotalMeasuredS float64
	TotalReportedS float64

	// Unaccounted is (reported - measured) / reported. It is negative when
	// phase timers overlap and is never clamped.
	Unaccounted float64

	Files []aggregate.FileSummary
}

// Other returns the Other bucket.
func (r Report) Other() Entry { return r.Entries[0] }

// Important returns the phases shown individually, ranked.
func (r Report) Important() []Entry { return r.Entries[1:] }

// Seconds converts an accumulated millisecond total to seconds.
func Seconds(ms float64) float64 { return ms / 1000 }

// Classify ranks every catalogued phase by accumulated duration and
// partitions the ranking at threshold. t is not modified.
func Classify(t aggregate.Totals, threshold float64) (Report, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold >= 1 {
		return Report{}, fmt.Errorf("threshold %v out of range [0, 1)", threshold)
	}
	if t.TotalReportedS == 0 {
		return Report{}, ErrZeroTotal
	}

	ranked := make([]Entry, len(t.Phases))
	durations := make([]float64, len(t.Phases))
	for i, acc := range t.Phases {
		def := t.Catalogue.At(i)
		d := Seconds(acc.TotalMS)
		durations[i] = d
		ranked[i] = Entry{
			Label:     def.Label,
			Index:     i,
			Count:     acc.Count,
			DurationS: d,
			Ratio:     d / t.TotalReportedS,
			Rebuild:   def.Rebuild,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DurationS > ranked[j].DurationS
	})

	other := Entry{Index: OtherIndex}
	var folded, important []Entry
	for _, e := range ranked {
		if e.Ratio > threshold {
			important = append(important, e)
			continue
		}
		folded = append(folded, e)
		other.Count += e.Count
	}
	other.DurationS = sumOf(folded, func(e Entry) float64 { return e.DurationS })
	other.Ratio = sumOf(folded, func(e Entry) float64 { return e.Ratio })

	measured := floats.Sum(durations)

	return Report{
		Threshold:      threshold,
		Entries:        append([]Entry{other}, important...),
		Folded:         folded,
		TotalMeasuredS: measured,
		TotalReportedS: t.TotalReportedS,
		Unaccounted:    (t.TotalReportedS - measured) / t.TotalReportedS,
		Files:          t.Files,
	}, nil
}

func sumOf(entries []Entry, f func(Entry) float64) float64 {
	vals := make([]float64, len(entries))
	for i, e := range entries {
		vals[i] = f(e)
	}
	return floats.Sum(vals)
}
