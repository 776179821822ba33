// Package trends follows the run-time share of phases across recorded
// runs and flags runs that stand out from their recent neighbours.
package trends

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Window is the number of runs in the rolling average.
const Window = 4

// spikeSigma is how many standard deviations from the rolling average a
// run must be to count as an anomaly.
const spikeSigma = 1.5

// Sample is one recorded run.
type Sample struct {
	RunID      int64
	RecordedAt time.Time
	Ratios     map[string]float64 // share of run time by catalogue label
}

// Point is one run's value in a phase's series.
type Point struct {
	RunID      int64
	RecordedAt time.Time
	Value      float64 // share of run time
	RollingAvg float64 // 0 until Window runs are available
	Anomaly    bool
}

// PhaseTrend holds the full series for one phase.
type PhaseTrend struct {
	Label      string
	Points     []Point // most recent first
	OverallAvg float64
	Direction  string  // "improving", "worsening" or "stable"
	DeltaPct   float64 // percent change; negative means a smaller share
}

// Result holds the complete trends analysis.
type Result struct {
	TotalRuns   int
	DisplayRuns int
	Phases      []PhaseTrend
}

// Compute builds one trend per label from samples. A phase missing from a
// run counts as a zero share. Shrinking shares are improvements.
func Compute(samples []Sample, labels []string, displayRuns int) Result {
	if displayRuns <= 0 {
		displayRuns = 12
	}
	if len(samples) == 0 {
		return Result{DisplayRuns: displayRuns}
	}

	// Oldest first for the rolling average.
	ordered := append([]Sample(nil), samples...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].RecordedAt.Equal(ordered[j].RecordedAt) {
			return ordered[i].RecordedAt.Before(ordered[j].RecordedAt)
		}
		return ordered[i].RunID < ordered[j].RunID
	})

	phases := make([]PhaseTrend, 0, len(labels))
	for _, label := range labels {
		pts := make([]Point, len(ordered))
		for i, s := range ordered {
			pts[i] = Point{RunID: s.RunID, RecordedAt: s.RecordedAt, Value: s.Ratios[label]}
		}
		phases = append(phases, buildTrend(label, pts, displayRuns))
	}

	return Result{
		TotalRuns:   len(ordered),
		DisplayRuns: displayRuns,
		Phases:      phases,
	}
}

// buildTrend computes rolling averages, anomalies and direction. pts is
// oldest first.
func buildTrend(label string, pts []Point, displayRuns int) PhaseTrend {
	tr := PhaseTrend{Label: label}

	values := make([]float64, len(pts))
	for i := range pts {
		values[i] = pts[i].Value
	}

	for i := range pts {
		if i < Window-1 {
			continue
		}
		w := values[i-Window+1 : i+1]
		mean := stat.Mean(w, nil)
		pts[i].RollingAvg = mean
		if sd := popStdDev(w); sd > 0 && math.Abs(pts[i].Value-mean) > spikeSigma*sd {
			pts[i].Anomaly = true
		}
	}

	tr.OverallAvg = stat.Mean(values, nil)
	tr.Direction, tr.DeltaPct = direction(values)

	reversed := make([]Point, len(pts))
	for i, p := range pts {
		reversed[len(pts)-1-i] = p
	}
	if len(reversed) > displayRuns {
		reversed = reversed[:displayRuns]
	}
	tr.Points = reversed
	return tr
}

// direction compares the mean of the last Window values with the Window
// before them. Changes under 10% are stable.
func direction(values []float64) (string, float64) {
	n := len(values)
	if n < 2*Window {
		return "stable", 0
	}
	recent := stat.Mean(values[n-Window:], nil)
	prev := stat.Mean(values[n-2*Window:n-Window], nil)
	if prev == 0 {
		return "stable", 0
	}

	delta := (recent - prev) / prev * 100
	switch {
	case math.Abs(delta) < 10:
		return "stable", delta
	case delta < 0:
		return "improving", delta
	}
	return "worsening", delta
}

// popStdDev is the population standard deviation of x.
func popStdDev(x []float64) float64 {
	n := float64(len(x))
	if n < 2 {
		return 0
	}
	return math.Sqrt(stat.Variance(x, nil) * (n - 1) / n)
}
