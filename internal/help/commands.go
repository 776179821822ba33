package help

import "strings"

// Version is the phasetime release version, set at build time via -ldflags.
// Defaults to "dev" when built without version injection (e.g. `go run`).
var Version = "dev"

// Flag describes a command-line flag.
type Flag struct {
	Name string // e.g. "--json" or "--output <file>"
	Desc string
}

// Arg describes a positional argument.
type Arg struct {
	Name     string // e.g. "log..."
	Desc     string
	Optional bool
}

// Command describes a phasetime subcommand (or the top-level binary when Name is "").
type Command struct {
	Name        string   // "check", "archive", etc; "" for top-level
	Synopsis    string   // one-line description (lowercase, for --help header)
	Brief       string   // short description for usage table (capitalized)
	Usage       string   // full usage line, e.g. "phasetime check <log>..."
	TableUsage  string   // shortened usage for the top-level table (if different from Usage)
	Args        []Arg
	Flags       []Flag
	Description string   // multi-line prose (stored verbatim)
	Examples    []string // one per line, without leading 2-space indent
	SeeAlso     []string // man page cross-refs, e.g. "phasetime(1)"
	Files       []Flag   // top-level only: files read or written
	Env         []Flag   // top-level only: environment variables
}

// tableUsage returns TableUsage if set, otherwise Usage.
func (c Command) tableUsage() string {
	if c.TableUsage != "" {
		return c.TableUsage
	}
	return c.Usage
}

// ManName returns the man page name: "phasetime" for top-level,
// "phasetime-<name>" for subcommands.
func (c Command) ManName() string {
	if c.Name == "" {
		return "phasetime"
	}
	return "phasetime-" + strings.ReplaceAll(c.Name, " ", "-")
}

// TopLevel is the top-level phasetime command (used by FormatUsage).
var TopLevel = Command{
	Name:     "",
	Synopsis: "per-phase run-time breakdown of simulation logs",
	Description: `Reads the stdout logs of one or more simulation runs, sums the time
spent in each catalogued execution phase, and reports each phase as a
share of the total run time, as text and as a pie chart.

Without a command, the arguments are logs (or directories of logs) to
analyse.`,
	Files: []Flag{
		{Name: "~/.config/phasetime/config.toml", Desc: "Configuration, written by phasetime init; honours $XDG_CONFIG_HOME"},
		{Name: "~/.local/state/phasetime/history.db", Desc: "Recorded runs (SQLite); honours $XDG_STATE_HOME"},
	},
	Env: []Flag{
		{Name: "PHASETIME_DEBUG", Desc: "When set, log per-file timings to stderr."},
		{Name: "XDG_CONFIG_HOME", Desc: "Base directory for the configuration file."},
		{Name: "XDG_STATE_HOME", Desc: "Base directory for the history database."},
	},
}

// analyzeFlags are accepted by the default action and by "analyze".
var analyzeFlags = []Flag{
	{Name: "--output <file>", Desc: "Chart file (default: time_pie.png; .png or .svg)"},
	{Name: "--renderer <name>", Desc: "Chart backend: auto, gg, svg or gochart"},
	{Name: "--threshold <r>", Desc: "Fold phases at or below this ratio into Other (default: 0.008)"},
	{Name: "--phases <file>", Desc: "YAML or TOML phase catalogue to use instead of the built-in one"},
	{Name: "--skip-bad", Desc: "Skip logs without a usable run time instead of aborting"},
	{Name: "--json", Desc: "Print the breakdown as JSON instead of text"},
	{Name: "--no-chart", Desc: "Do not write a chart"},
	{Name: "--record", Desc: "Record the run in the history database"},
	{Name: "--config <file>", Desc: "Read configuration from this file"},
}

var CmdAnalyze = Command{
	Name:       "analyze",
	Synopsis:   "break down run time by execution phase",
	Brief:      "Analyse logs (also the default without a command)",
	Usage:      "phasetime [analyze] [flags] <log>...",
	TableUsage: "phasetime [analyze] <log>...",
	Args: []Arg{
		{Name: "log...", Desc: "Simulation stdout logs, plain or .zst/.gz compressed"},
	},
	Flags: analyzeFlags,
	Description: `Scans each log in order, sums the durations of every catalogued
phase across all logs, and divides by the total run time the logs
report about themselves. Phases above the threshold are ranked by
duration; the rest are folded into a single Other entry.

Prints the diagnostics to stdout and writes a pie chart with one
wedge per important phase plus Other. Rebuild-related phases are
offset from the centre. Time not covered by any phase is left as a
gap in the pie and reported as unaccounted.

A log without any timestamped line aborts the run and no chart is
written, unless --skip-bad is given.`,
	Examples: []string{
		"phasetime run1/output.log run2/output.log",
		"phasetime --output breakdown.svg run*/output.log",
		"phasetime --json --no-chart output.log.zst",
	},
	SeeAlso: []string{"phasetime(1)", "phasetime-check(1)", "phasetime-phases(1)"},
}

var CmdCheck = Command{
	Name:       "check",
	Synopsis:   "pre-flight check of configuration and logs",
	Brief:      "Check config and logs before analysing",
	Usage:      "phasetime check [--phases <file>] [--config <file>] [log...]",
	TableUsage: "phasetime check [log...]",
	Args: []Arg{
		{Name: "log...", Desc: "Logs to check", Optional: true},
	},
	Flags: []Flag{
		{Name: "--phases <file>", Desc: "Phase catalogue to check against"},
		{Name: "--config <file>", Desc: "Read configuration from this file"},
	},
	Description: `Runs diagnostic checks and prints a pass/warn/FAIL report:
  - Config file location
  - Phase catalogue size
  - Chart output directory, renderer and palette
  - History database location
  - Per log: readable, has a timestamped line, has phase lines

Exit code 0 if all checks pass or warn, 1 if any check fails.`,
	SeeAlso: []string{"phasetime(1)", "phasetime-analyze(1)"},
}

var CmdArchive = Command{
	Name:       "archive",
	Synopsis:   "compress logs with zstd",
	Brief:      "Compress logs to .zst",
	Usage:      "phasetime archive [--dir <dir>] <log>...",
	TableUsage: "phasetime archive <log>...",
	Args: []Arg{
		{Name: "log...", Desc: "Logs to compress"},
	},
	Flags: []Flag{
		{Name: "--dir <dir>", Desc: "Write archives here (default: next to each log)"},
	},
	Description: `Writes <log>.zst for each log. Logs that are already compressed are
skipped. The originals are left in place. Compressed logs can be
passed to phasetime directly.`,
	Examples: []string{
		"phasetime archive run1/output.log",
		"phasetime archive --dir ~/archive run*/output.log",
	},
	SeeAlso: []string{"phasetime(1)"},
}

var CmdHistory = Command{
	Name:     "history",
	Synopsis: "list recorded analysis runs",
	Brief:    "List recorded runs",
	Usage:    "phasetime history [--limit <n>]",
	Flags: []Flag{
		{Name: "--limit <n>", Desc: "Show at most n runs (default: 20, 0 for all)"},
	},
	Description: `Lists runs recorded with --record or with history.enabled set in the
config, newest first, with their total run time, measured time,
unaccounted share and largest phase.`,
	SeeAlso: []string{"phasetime(1)", "phasetime-analyze(1)"},
}

var CmdTrends = Command{
	Name:       "trends",
	Synopsis:   "show how phase shares change across recorded runs",
	Brief:      "Show phase trends across recorded runs",
	Usage:      "phasetime trends [--phase <label>] [--runs <n>]",
	TableUsage: "phasetime trends [--runs <n>]",
	Flags: []Flag{
		{Name: "--phase <label>", Desc: "Follow only this phase (catalogue or display label)"},
		{Name: "--runs <n>", Desc: "Show at most n runs per phase (default: 12)"},
	},
	Description: `Follows the share of run time of each phase that was important in the
most recent recorded run. Each run is compared with the rolling
average of the last 4 runs; runs more than 1.5 standard deviations
away are flagged as a spike or a dip. The direction compares the last
4 runs with the 4 before them. A shrinking share is an improvement.`,
	Examples: []string{
		"phasetime trends",
		"phasetime trends --phase space_rebuild:",
	},
	SeeAlso: []string{"phasetime(1)", "phasetime-history(1)"},
}

var CmdPhases = Command{
	Name:       "phases",
	Synopsis:   "print the phase catalogue",
	Brief:      "Print the phase catalogue",
	Usage:      "phasetime phases [--phases <file>] [--yaml]",
	TableUsage: "phasetime phases [--yaml]",
	Flags: []Flag{
		{Name: "--phases <file>", Desc: "Load this catalogue instead of the configured one"},
		{Name: "--yaml", Desc: "Print as YAML, suitable as a starting --phases file"},
	},
	Description: `Prints every catalogued phase label in match order with its rebuild
flag. A log line is attributed to the first phase whose label is
followed by " took".`,
	SeeAlso: []string{"phasetime(1)"},
}

var CmdInit = Command{
	Name:     "init",
	Synopsis: "write the default configuration file",
	Brief:    "Write default config",
	Usage:    "phasetime init",
	Description: `Writes a commented config.toml to ~/.config/phasetime/ (or
$XDG_CONFIG_HOME/phasetime/). An existing file is left unchanged.`,
	SeeAlso: []string{"phasetime(1)"},
}

var CmdVersion = Command{
	Name:     "version",
	Synopsis: "print version",
	Brief:    "Print version",
	Usage:    "phasetime version",
	SeeAlso:  []string{"phasetime(1)"},
}

// Subcommands is the ordered list of all subcommands.
var Subcommands = []Command{
	CmdAnalyze,
	CmdCheck,
	CmdArchive,
	CmdHistory,
	CmdTrends,
	CmdPhases,
	CmdInit,
	CmdVersion,
}

// Lookup returns the subcommand called name.
func Lookup(name string) (Command, bool) {
	for _, c := range Subcommands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}
