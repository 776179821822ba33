// Package analysis runs the whole pipeline over a set of logs: scan each
// log in argument order, aggregate, then classify.
package analysis

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/suykerbuyk/phasetime/internal/aggregate"
	"github.com/suykerbuyk/phasetime/internal/classify"
	"github.com/suykerbuyk/phasetime/internal/debug"
	"github.com/suykerbuyk/phasetime/internal/phase"
)

// ErrNoLogs is returned when Run is given no paths.
var ErrNoLogs = errors.New("no log files given")

// Options configures one run. The zero value is not usable; Catalogue
// must be set.
type Options struct {
	Catalogue *phase.Catalogue
	Threshold float64
	Policy    aggregate.Policy

	// Progress receives one "Analysing <path>" line per log, written
	// before the log is read. Nil discards it.
	Progress io.Writer
}

// Run analyses paths and returns the classified report. Under the Abort
// policy the first unusable log ends the run with its error.
func Run(paths []string, opts Options) (classify.Report, error) {
	if len(paths) == 0 {
		return classify.Report{}, ErrNoLogs
	}
	if opts.Catalogue == nil {
		return classify.Report{}, phase.ErrEmptyCatalogue
	}
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}

	start := time.Now()
	agg := aggregate.New(opts.Catalogue, opts.Policy)
	for _, p := range paths {
		fmt.Fprintf(progress, "Analysing %s\n", p)
		if err := agg.AddFile(p); err != nil {
			return classify.Report{}, err
		}
	}

	totals := agg.Totals()
	r, err := classify.Classify(totals, opts.Threshold)
	if errors.Is(err, classify.ErrZeroTotal) && skippedAll(totals) {
		return classify.Report{}, fmt.Errorf("all %d logs were skipped: %w", len(paths), err)
	}
	if err != nil {
		return classify.Report{}, err
	}
	debug.LogTiming(fmt.Sprintf("analysis of %d logs", len(paths)), time.Since(start))
	return r, nil
}

func skippedAll(t aggregate.Totals) bool {
	for _, f := range t.Files {
		if !f.Skipped {
			return false
		}
	}
	return len(t.Files) > 0
}
