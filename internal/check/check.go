package check

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/suykerbuyk/phasetime/internal/chart"
	"github.com/suykerbuyk/phasetime/internal/config"
	"github.com/suykerbuyk/phasetime/internal/logscan"
	"github.com/suykerbuyk/phasetime/internal/phase"
)

// Status represents the outcome of a single check.
type Status int

const (
	Pass Status = iota
	Warn
	Fail
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "pass"
	case Warn:
		return "warn"
	case Fail:
		return "FAIL"
	default:
		return "unknown"
	}
}

// Result holds the outcome of a single check.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// Report aggregates all check results.
type Report struct {
	Results []Result
}

// HasFailures returns true if any result has Fail status.
func (r Report) HasFailures() bool {
	for _, res := range r.Results {
		if res.Status == Fail {
			return true
		}
	}
	return false
}

// Format returns the human-readable report string.
func (r Report) Format() string {
	if len(r.Results) == 0 {
		return "phasetime check\n\n  no checks ran\n"
	}

	// Find max name length for alignment.
	maxName := 0
	for _, res := range r.Results {
		if len(res.Name) > maxName {
			maxName = len(res.Name)
		}
	}

	var b strings.Builder
	b.WriteString("phasetime check\n\n")

	var passed, warnings, failures int
	for _, res := range r.Results {
		switch res.Status {
		case Pass:
			passed++
		case Warn:
			warnings++
		case Fail:
			failures++
		}
		fmt.Fprintf(&b, "  %-4s  %-*s  %s\n", res.Status, maxName, res.Name, res.Detail)
	}

	fmt.Fprintf(&b, "\n%d passed, %d warning, %d failure\n", passed, warnings, failures)
	return b.String()
}

// CheckConfig reports the config file in effect. Always passes; broken
// TOML is rejected before checks run.
func CheckConfig(path string) Result {
	if path == "" {
		path = filepath.Join(config.ConfigDir(), "config.toml")
	}
	if _, err := os.Stat(path); err != nil {
		return Result{Name: "config", Status: Pass, Detail: "defaults (" + config.CompressHome(path) + " not found)"}
	}
	return Result{Name: "config", Status: Pass, Detail: config.CompressHome(path)}
}

// CheckCatalogue reports the phase catalogue in use.
func CheckCatalogue(cat *phase.Catalogue, source string) Result {
	if source == "" {
		source = "built-in"
	} else {
		source = config.CompressHome(source)
	}
	rebuild := 0
	for _, d := range cat.Definitions() {
		if d.Rebuild {
			rebuild++
		}
	}
	return Result{
		Name:   "phases",
		Status: Pass,
		Detail: fmt.Sprintf("%d phases, %d rebuild (%s)", cat.Len(), rebuild, source),
	}
}

// CheckChart checks that a renderer exists for the chart output and that
// its directory is writable.
func CheckChart(cc config.ChartConfig) Result {
	r, err := chart.Lookup(cc.Renderer, cc.Output)
	if err != nil {
		return Result{Name: "chart", Status: Fail, Detail: err.Error()}
	}
	dir := filepath.Dir(cc.Output)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return Result{Name: "chart", Status: Fail, Detail: dir + " not found"}
	}
	for _, p := range cc.Palette {
		if _, err := chart.ParseHex(p); err != nil {
			return Result{Name: "chart", Status: Fail, Detail: "palette: " + err.Error()}
		}
	}
	return Result{Name: "chart", Status: Pass, Detail: fmt.Sprintf("%s via %s", config.CompressHome(cc.Output), r.Name())}
}

// CheckHistory checks the run history database location.
func CheckHistory(hc config.HistoryConfig) Result {
	if !hc.Enabled {
		return Result{Name: "history", Status: Pass, Detail: "disabled"}
	}
	if _, err := os.Stat(hc.Path); err == nil {
		return Result{Name: "history", Status: Pass, Detail: config.CompressHome(hc.Path)}
	}
	return Result{Name: "history", Status: Warn, Detail: config.CompressHome(hc.Path) + " not created yet"}
}

// CheckLog scans one log and reports whether it can be analysed.
func CheckLog(path string, cat *phase.Catalogue) Result {
	res, err := logscan.ScanFile(path, cat)
	if err != nil {
		var fe *logscan.FileError
		if errors.As(err, &fe) {
			err = fe.Err
		}
		return Result{Name: path, Status: Fail, Detail: err.Error()}
	}

	runTime, err := res.RunTime()
	if err != nil {
		return Result{Name: path, Status: Fail, Detail: err.Error()}
	}

	switch {
	case runTime == 0:
		return Result{Name: path, Status: Warn, Detail: "reported run time is 0 s"}
	case res.Matched == 0:
		return Result{Name: path, Status: Warn, Detail: fmt.Sprintf("no phase lines in %d lines, run time %g s", res.Lines, runTime)}
	case res.Unparsed > 0:
		return Result{Name: path, Status: Warn, Detail: fmt.Sprintf("%d phase lines, %d without a duration, run time %g s", res.Matched, res.Unparsed, runTime)}
	}
	return Result{Name: path, Status: Pass, Detail: fmt.Sprintf("%d phase lines, run time %g s", res.Matched, runTime)}
}

// Run executes the setup checks and one check per log.
func Run(cfg config.Config, configPath string, cat *phase.Catalogue, logs []string) Report {
	var results []Result

	results = append(results, CheckConfig(configPath))
	results = append(results, CheckCatalogue(cat, cfg.PhasesFile))
	results = append(results, CheckChart(cfg.Chart))
	results = append(results, CheckHistory(cfg.History))
	for _, p := range logs {
		results = append(results, CheckLog(p, cat))
	}

	return Report{Results: results}
}
