package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/suykerbuyk/phasetime/internal/aggregate"
	"github.com/suykerbuyk/phasetime/internal/analysis"
	"github.com/suykerbuyk/phasetime/internal/chart"
	"github.com/suykerbuyk/phasetime/internal/check"
	"github.com/suykerbuyk/phasetime/internal/classify"
	"github.com/suykerbuyk/phasetime/internal/config"
	"github.com/suykerbuyk/phasetime/internal/debug"
	"github.com/suykerbuyk/phasetime/internal/discover"
	"github.com/suykerbuyk/phasetime/internal/help"
	"github.com/suykerbuyk/phasetime/internal/history"
	"github.com/suykerbuyk/phasetime/internal/logfile"
	"github.com/suykerbuyk/phasetime/internal/phase"
	"github.com/suykerbuyk/phasetime/internal/report"
	"github.com/suykerbuyk/phasetime/internal/trends"
)

// errChecksFailed makes check exit 1 after its report is printed.
var errChecksFailed = errors.New("checks failed")

func main() {
	log.SetFlags(0)
	log.SetPrefix("phasetime: ")
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)

	if len(args) == 0 {
		fmt.Fprint(stderr, help.FormatUsage(help.TopLevel, help.Subcommands))
		return 1
	}

	name, rest := args[0], args[1:]
	switch name {
	case "help", "--help", "-h":
		if len(rest) > 0 {
			cmd, ok := help.Lookup(rest[0])
			if !ok {
				fmt.Fprintf(stderr, "phasetime: unknown command: %s\n", rest[0])
				return 1
			}
			fmt.Fprint(stdout, help.FormatTerminal(cmd))
			return 0
		}
		fmt.Fprint(stdout, help.FormatUsage(help.TopLevel, help.Subcommands))
		return 0
	case "--version":
		name = "version"
	}

	cmd, ok := help.Lookup(name)
	if !ok {
		// Anything else is the first log of the default action.
		cmd, rest = help.CmdAnalyze, args
	}
	if hasFlag(rest, "--help") || hasFlag(rest, "-h") {
		fmt.Fprint(stdout, help.FormatTerminal(cmd))
		return 0
	}

	var err error
	switch cmd.Name {
	case "analyze":
		err = runAnalyze(rest, stdout, stderr)
	case "check":
		err = runCheck(rest, stdout)
	case "archive":
		err = runArchive(rest, stdout)
	case "history":
		err = runHistory(rest, stdout)
	case "trends":
		err = runTrends(rest, stdout)
	case "phases":
		err = runPhases(rest, stdout)
	case "init":
		err = runInit(stdout)
	case "version":
		fmt.Fprintf(stdout, "phasetime v%s\n", help.Version)
	}

	if errors.Is(err, errChecksFailed) {
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "phasetime: %v\n", err)
		return 1
	}
	return 0
}

func runAnalyze(args []string, stdout, stderr io.Writer) error {
	fs, err := parseFlags(args,
		[]string{"--output", "--renderer", "--threshold", "--phases", "--config"},
		[]string{"--skip-bad", "--json", "--no-chart", "--record"})
	if err != nil {
		return err
	}
	if len(fs.args) == 0 {
		return fmt.Errorf("usage: %s", help.CmdAnalyze.Usage)
	}

	cfg, err := loadConfig(fs.values["--config"])
	if err != nil {
		return err
	}
	if v, ok := fs.values["--phases"]; ok {
		cfg.PhasesFile = v
	}
	cat, err := loadCatalogue(cfg.PhasesFile)
	if err != nil {
		return err
	}

	threshold := cfg.Threshold
	if v, ok := fs.values["--threshold"]; ok {
		threshold, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("--threshold: %w", err)
		}
	}
	policy, err := aggregate.ParsePolicy(cfg.OnError)
	if err != nil {
		return err
	}
	if fs.bools["--skip-bad"] {
		policy = aggregate.Skip
	}

	// Resolve the renderer before reading any log so a bad --output
	// fails fast.
	cc := cfg.Chart
	if v, ok := fs.values["--output"]; ok {
		cc.Output = v
	}
	if v, ok := fs.values["--renderer"]; ok {
		cc.Renderer = v
	}
	noChart := fs.bools["--no-chart"]
	var renderer chart.Renderer
	if !noChart {
		if renderer, err = chart.Lookup(cc.Renderer, cc.Output); err != nil {
			return err
		}
	}

	// JSON output owns stdout; progress moves to stderr.
	progress := stdout
	if fs.bools["--json"] {
		progress = stderr
	}

	logs, err := discover.Expand(fs.args, cfg.LogName)
	if err != nil {
		return err
	}

	debug.Log("threshold %g, policy %s, %d phases, %d logs", threshold, policy, cat.Len(), len(logs))
	r, err := analysis.Run(logs, analysis.Options{
		Catalogue: cat,
		Threshold: threshold,
		Policy:    policy,
		Progress:  progress,
	})
	if err != nil {
		return err
	}

	if fs.bools["--json"] {
		data, err := report.JSON(r)
		if err != nil {
			return err
		}
		stdout.Write(data)
	} else {
		fmt.Fprint(stdout, report.Format(r))
	}

	if !noChart {
		if err := writeChart(r, cc, renderer); err != nil {
			return err
		}
		fmt.Fprintf(progress, "Wrote %s\n", cc.Output)
	}

	if fs.bools["--record"] || cfg.History.Enabled {
		id, err := recordRun(r, cfg.History.Path)
		if err != nil {
			log.Printf("warning: record history: %v", err)
		} else {
			fmt.Fprintf(progress, "Recorded run %d in %s\n", id, config.CompressHome(cfg.History.Path))
		}
	}
	return nil
}

func writeChart(r classify.Report, cc config.ChartConfig, renderer chart.Renderer) error {
	p, err := report.Pie(r, report.Style{
		Title:      cc.Title,
		Explode:    cc.Explode,
		StartAngle: cc.StartAngle,
		Palette:    cc.Palette,
	})
	if err != nil {
		return err
	}
	start := time.Now()
	err = chart.Save(cc.Output, renderer, p, chart.Options{Width: cc.Width, Height: cc.Height})
	debug.LogTiming(renderer.Name()+" chart", time.Since(start))
	return err
}

func recordRun(r classify.Report, path string) (int64, error) {
	s, err := history.Open(path)
	if err != nil {
		return 0, err
	}
	defer s.Close()
	return s.Record(context.Background(), r, time.Now())
}

func runCheck(args []string, stdout io.Writer) error {
	fs, err := parseFlags(args, []string{"--phases", "--config"}, nil)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(fs.values["--config"])
	if err != nil {
		return err
	}
	if v, ok := fs.values["--phases"]; ok {
		cfg.PhasesFile = v
	}
	cat, err := loadCatalogue(cfg.PhasesFile)
	if err != nil {
		return err
	}

	logs, err := discover.Expand(fs.args, cfg.LogName)
	if err != nil {
		return err
	}

	rep := check.Run(cfg, fs.values["--config"], cat, logs)
	fmt.Fprint(stdout, rep.Format())
	if rep.HasFailures() {
		return errChecksFailed
	}
	return nil
}

func runArchive(args []string, stdout io.Writer) error {
	fs, err := parseFlags(args, []string{"--dir"}, nil)
	if err != nil {
		return err
	}
	if len(fs.args) == 0 {
		return fmt.Errorf("usage: %s", help.CmdArchive.Usage)
	}

	var before, after int64
	var archived, skipped int
	for _, p := range fs.args {
		if logfile.IsCompressed(p) {
			fmt.Fprintf(stdout, "  skip %s (already compressed)\n", p)
			skipped++
			continue
		}
		dest, err := logfile.Compress(p, config.ExpandHome(fs.values["--dir"]))
		if err != nil {
			return err
		}
		src, _ := os.Stat(p)
		dst, _ := os.Stat(dest)
		if src != nil && dst != nil {
			before += src.Size()
			after += dst.Size()
		}
		fmt.Fprintf(stdout, "  %s\n", dest)
		archived++
	}
	fmt.Fprintf(stdout, "\narchived %d, skipped %d (%d -> %d bytes)\n", archived, skipped, before, after)
	return nil
}

func runHistory(args []string, stdout io.Writer) error {
	fs, err := parseFlags(args, []string{"--limit", "--config"}, nil)
	if err != nil {
		return err
	}
	limit := 20
	if v, ok := fs.values["--limit"]; ok {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			return fmt.Errorf("--limit: want a non-negative integer, got %q", v)
		}
	}
	cfg, err := loadConfig(fs.values["--config"])
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.History.Path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprint(stdout, history.Format(nil, nil))
		return nil
	}
	s, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	runs, err := s.Runs(ctx, limit)
	if err != nil {
		return err
	}
	top := make(map[int64]string, len(runs))
	for _, r := range runs {
		phases, err := s.Phases(ctx, r.ID)
		if err != nil {
			return err
		}
		if len(phases) > 0 {
			top[r.ID] = report.Prettify(phases[0].Label)
		}
	}
	fmt.Fprint(stdout, history.Format(runs, top))
	return nil
}

func runTrends(args []string, stdout io.Writer) error {
	fs, err := parseFlags(args, []string{"--phase", "--runs", "--config"}, nil)
	if err != nil {
		return err
	}
	display := 12
	if v, ok := fs.values["--runs"]; ok {
		if display, err = strconv.Atoi(v); err != nil || display <= 0 {
			return fmt.Errorf("--runs: want a positive integer, got %q", v)
		}
	}
	cfg, err := loadConfig(fs.values["--config"])
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.History.Path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprint(stdout, trends.Format(trends.Result{}, nil))
		return nil
	}
	s, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	runs, err := s.Runs(ctx, 0)
	if err != nil {
		return err
	}

	// Runs come newest first; the newest run picks the phases to follow.
	var labels []string
	samples := make([]trends.Sample, 0, len(runs))
	for i, r := range runs {
		phases, err := s.Phases(ctx, r.ID)
		if err != nil {
			return err
		}
		ratios := make(map[string]float64, len(phases))
		for _, p := range phases {
			ratios[p.Label] = p.Ratio
			if i == 0 && p.Important {
				labels = append(labels, p.Label)
			}
		}
		samples = append(samples, trends.Sample{RunID: r.ID, RecordedAt: r.RecordedAt, Ratios: ratios})
	}
	if v, ok := fs.values["--phase"]; ok {
		labels = []string{resolveLabel(v, samples)}
	}

	fmt.Fprint(stdout, trends.Format(trends.Compute(samples, labels, display), report.Prettify))
	return nil
}

// resolveLabel maps a display label such as "Space Rebuild" back to the
// catalogue label recorded in samples. Unknown names are returned as is.
func resolveLabel(name string, samples []trends.Sample) string {
	for _, s := range samples {
		for label := range s.Ratios {
			if label == name || strings.EqualFold(report.Prettify(label), name) {
				return label
			}
		}
	}
	return name
}

func runPhases(args []string, stdout io.Writer) error {
	fs, err := parseFlags(args, []string{"--phases", "--config"}, []string{"--yaml"})
	if err != nil {
		return err
	}
	cfg, err := loadConfig(fs.values["--config"])
	if err != nil {
		return err
	}
	if v, ok := fs.values["--phases"]; ok {
		cfg.PhasesFile = v
	}
	cat, err := loadCatalogue(cfg.PhasesFile)
	if err != nil {
		return err
	}

	if fs.bools["--yaml"] {
		data, err := cat.YAML()
		if err != nil {
			return err
		}
		stdout.Write(data)
		return nil
	}
	for i, d := range cat.Definitions() {
		if d.Rebuild {
			fmt.Fprintf(stdout, "  %2d  %-32s rebuild\n", i+1, d.Label)
		} else {
			fmt.Fprintf(stdout, "  %2d  %s\n", i+1, d.Label)
		}
	}
	return nil
}

func runInit(stdout io.Writer) error {
	path, action, err := config.WriteDefault()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s %s\n", action, config.CompressHome(path))
	return nil
}

// loadConfig reads path if given, otherwise the standard config location.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(config.ExpandHome(path))
	}
	return config.Load()
}

// loadCatalogue returns the built-in catalogue unless path names a file.
func loadCatalogue(path string) (*phase.Catalogue, error) {
	if path == "" {
		return phase.Default(), nil
	}
	return phase.LoadFile(config.ExpandHome(path))
}

// flagSet is the result of parseFlags.
type flagSet struct {
	values map[string]string
	bools  map[string]bool
	args   []string
}

// parseFlags splits args into flags and positional arguments. Flags taking
// a value accept both "--flag value" and "--flag=value". Everything after
// "--" is positional.
func parseFlags(args, valued, boolean []string) (flagSet, error) {
	fs := flagSet{values: map[string]string{}, bools: map[string]bool{}}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			fs.args = append(fs.args, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(a, "-") || a == "-" {
			fs.args = append(fs.args, a)
			continue
		}

		name, value, hasValue := strings.Cut(a, "=")
		switch {
		case slices.Contains(valued, name):
			if !hasValue {
				if i+1 >= len(args) {
					return fs, fmt.Errorf("flag %s needs a value", name)
				}
				i++
				value = args[i]
			}
			fs.values[name] = value
		case slices.Contains(boolean, name) && !hasValue:
			fs.bools[name] = true
		default:
			return fs, fmt.Errorf("unknown flag: %s", a)
		}
	}
	return fs, nil
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == flag {
			return true
		}
	}
	return false
}
