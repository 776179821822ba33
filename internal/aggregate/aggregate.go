// Package aggregate accumulates per-phase timings and reported run times
// across any number of scanned logs.
package aggregate

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/suykerbuyk/phasetime/internal/debug"
	"github.com/suykerbuyk/phasetime/internal/logscan"
	"github.com/suykerbuyk/phasetime/internal/phase"
)

// Policy decides what happens when a log cannot be used.
type Policy int

const (
	// Abort stops the whole run on the first bad log.
	Abort Policy = iota
	// Skip logs a warning and leaves the bad log out of every total.
	Skip
)

func (p Policy) String() string {
	switch p {
	case Abort:
		return "abort"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// ParsePolicy maps "abort" or "skip" (or "" for abort) to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "abort":
		return Abort, nil
	case "skip":
		return Skip, nil
	}
	return Abort, fmt.Errorf("unknown error policy %q (want abort or skip)", s)
}

// Accumulator is the running total for one phase.
type Accumulator struct {
	Count   int
	TotalMS float64
}

// FileSummary records what one log contributed.
type FileSummary struct {
	Path     string
	RunTimeS float64
	Matched  int
	Unparsed int
	Skipped  bool
	Reason   string // why the log was skipped
}

// Totals is a read-only copy of the aggregated state.
type Totals struct {
	Catalogue      *phase.Catalogue
	Phases         []Accumulator // indexed like the catalogue
	TotalReportedS float64
	Files          []FileSummary
}

// Aggregator sums scan results in the order logs are added.
// It is not safe for concurrent use.
type Aggregator struct {
	cat    *phase.Catalogue
	policy Policy

	phases []Accumulator
	totalS float64
	files  []FileSummary
}

// New returns an empty Aggregator for cat.
func New(cat *phase.Catalogue, policy Policy) *Aggregator {
	return &Aggregator{
		cat:    cat,
		policy: policy,
		phases: make([]Accumulator, cat.Len()),
	}
}

// Add folds one scan result into the totals. A log whose run time cannot
// be determined contributes nothing and yields a *logscan.FileError.
func (a *Aggregator) Add(res *logscan.Result) error {
	if len(res.Phases) != len(a.phases) {
		return &logscan.FileError{
			Path: res.Path,
			Err:  fmt.Errorf("scanned with %d phases, aggregator has %d", len(res.Phases), len(a.phases)),
		}
	}

	runTime, err := res.RunTime()
	if err != nil {
		return &logscan.FileError{Path: res.Path, Err: err}
	}

	for i, t := range res.Phases {
		a.phases[i].Count += t.Count
		a.phases[i].TotalMS += t.TotalMS
	}
	a.totalS += runTime
	a.files = append(a.files, FileSummary{
		Path:     res.Path,
		RunTimeS: runTime,
		Matched:  res.Matched,
		Unparsed: res.Unparsed,
	})
	return nil
}

// AddFile scans path and adds it. Under the Skip policy a bad log is
// recorded as skipped and nil is returned.
func (a *Aggregator) AddFile(path string) error {
	start := time.Now()

	res, err := logscan.ScanFile(path, a.cat)
	if err == nil {
		err = a.Add(res)
	}
	if err != nil {
		if a.policy != Skip {
			return err
		}
		log.Printf("warning: skip %v", err)
		a.files = append(a.files, FileSummary{Path: path, Skipped: true, Reason: reason(err)})
		return nil
	}

	debug.LogTiming("scan "+path, time.Since(start))
	debug.Log("%s: %d lines, %d phase lines, %d unparsed", path, res.Lines, res.Matched, res.Unparsed)
	return nil
}

func reason(err error) string {
	var fe *logscan.FileError
	if errors.As(err, &fe) {
		return fe.Err.Error()
	}
	return err.Error()
}

// Totals returns a copy of the current state.
func (a *Aggregator) Totals() Totals {
	phases := make([]Accumulator, len(a.phases))
	copy(phases, a.phases)
	files := make([]FileSummary, len(a.files))
	copy(files, a.files)
	return Totals{
		Catalogue:      a.cat,
		Phases:         phases,
		TotalReportedS: a.totalS,
		Files:          files,
	}
}
