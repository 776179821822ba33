// Package logscan extracts phase timings and the reported run time from
// simulation stdout logs.
package logscan

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/suykerbuyk/phasetime/internal/logfile"
	"github.com/suykerbuyk/phasetime/internal/phase"
)

var (
	// ErrMissingTimestamp means no line of the log carried a step counter or
	// wall-clock prefix, so the log's run time is unknown.
	ErrMissingTimestamp = errors.New("no timestamped line found")

	// ErrNoRunTime means the last timestamped line had no run-time literal.
	ErrNoRunTime = errors.New("last timestamped line has no run time")
)

// FileError ties a scan failure to the log it came from.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e *FileError) Unwrap() error { return e.Err }

// Tally is the per-phase result of scanning one log.
type Tally struct {
	Count   int
	TotalMS float64
}

// Result holds everything extracted from one log.
type Result struct {
	Path   string
	Phases []Tally // indexed like the catalogue

	Lines    int // lines read
	Matched  int // phase lines counted
	Unparsed int // phase lines skipped for lack of a numeric literal

	LastLine    string // last timestamped line
	HasLastLine bool
}

// RunTime returns the log's self-reported run time in seconds, taken from
// its last timestamped line.
func (r *Result) RunTime() (float64, error) {
	if !r.HasLastLine {
		return 0, ErrMissingTimestamp
	}
	return RunTimeFromLine(r.LastLine)
}

// ScanFile opens path (decompressing .zst/.gz) and scans it.
// Every error is a *FileError naming path.
func ScanFile(path string, cat *phase.Catalogue) (*Result, error) {
	rc, err := logfile.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	defer rc.Close()

	res, err := Scan(rc, cat)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	res.Path = path
	return res, nil
}

// Scan reads a log line by line. Each line is attributed to at most one
// phase (first catalogue match) and contributes the last numeric literal on
// the line, in milliseconds. Phase lines without a literal are skipped.
func Scan(r io.Reader, cat *phase.Catalogue) (*Result, error) {
	res := &Result{Phases: make([]Tally, cat.Len())}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // 10MB max line

	for scanner.Scan() {
		line := scanner.Text()
		res.Lines++

		if i, ok := cat.Match(line); ok {
			if ms, ok := LastLiteral(line); ok {
				res.Phases[i].Count++
				res.Phases[i].TotalMS += ms
				res.Matched++
			} else {
				res.Unparsed++
			}
		}

		if IsTimestamped(line) {
			res.LastLine = line
			res.HasLastLine = true
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan log: %w", err)
	}
	return res, nil
}
