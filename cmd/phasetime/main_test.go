package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/suykerbuyk/phasetime/internal/help"
	"github.com/suykerbuyk/phasetime/internal/report"
)

const stepLog = "Gpart assignment took 120.5 ms\n[0001] step 1 45.000000\n"

const swiftLog = `[0000] [00000.5] space_rebuild: took 4000.0 ms.
[0001] [00010.0] engine_drift_all: took 1500.0 ms.
[0002] [00020.0] engine_print_stats: took 10.0 ms.
`

// isolate points every config and state lookup at temp dirs.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))
	return home
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestAnalyze_TwoLogs(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writeLog(t, dir, "a.log", stepLog)
	b := writeLog(t, dir, "b.log", stepLog)
	out := filepath.Join(dir, "pie.svg")

	code, stdout, stderr := runCLI(t, "--output", out, a, b)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{
		"Analysing " + a + "\nAnalysing " + b + "\n",
		"Total measured time: 0.241 s\n",
		"Total time: 90 s\n",
		"Phases (above 0.8%)\n  (none)\n",
		" - 'Gpart Assignment              ': 0.2678%\n",
		"Wrote " + out + "\n",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Errorf("chart not written: %v", err)
	}
}

func TestAnalyze_ThresholdPromotes(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writeLog(t, dir, "a.log", stepLog)
	b := writeLog(t, dir, "b.log", stepLog)

	code, stdout, stderr := runCLI(t, "analyze", "--threshold", "0.002", "--json", "--no-chart", a, b)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "Analysing "+a) {
		t.Errorf("progress should go to stderr with --json: %q", stderr)
	}

	var doc report.Document
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if len(doc.Phases) != 1 {
		t.Fatalf("Phases = %+v, want 1", doc.Phases)
	}
	p := doc.Phases[0]
	if p.Label != "Gpart assignment" || p.Count != 2 || !p.Rebuild {
		t.Errorf("phase = %+v", p)
	}
	if diff := p.Ratio - 0.241/90; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("Ratio = %v, want %v", p.Ratio, 0.241/90)
	}
	if doc.TotalReportedS != 90 {
		t.Errorf("TotalReportedS = %v, want 90", doc.TotalReportedS)
	}
}

func TestAnalyze_PNG(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writeLog(t, dir, "a.log", swiftLog)
	out := filepath.Join(dir, "pie.png")

	code, _, stderr := runCLI(t, "--output", out, a)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 960 || b.Dy() != 960 {
		t.Errorf("size = %v, want 960x960", b)
	}
}

func TestAnalyze_MissingTimestamp(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	good := writeLog(t, dir, "good.log", stepLog)
	bad := writeLog(t, dir, "bad.log", "Gpart assignment took 120.5 ms\n")
	out := filepath.Join(dir, "pie.png")

	code, _, stderr := runCLI(t, "--output", out, good, bad)
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr, "phasetime: "+bad+": no timestamped line found") {
		t.Errorf("stderr = %q", stderr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("chart should not exist, stat err = %v", err)
	}
}

func TestAnalyze_NoPhaseLines(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writeLog(t, dir, "idle.log", "[0000] [00010.0] main: starting\n[0001] [00045.0] main: done\n")

	for _, name := range []string{"pie.svg", "pie.png"} {
		t.Run(name, func(t *testing.T) {
			out := filepath.Join(dir, name)
			code, stdout, stderr := runCLI(t, "--output", out, a)
			if code != 0 {
				t.Fatalf("exit %d, stderr: %s", code, stderr)
			}
			for _, want := range []string{"Total time: 45 s\n", "Unaccounted for: 100.0000%", "Wrote " + out} {
				if !strings.Contains(stdout, want) {
					t.Errorf("stdout missing %q:\n%s", want, stdout)
				}
			}
			if _, err := os.Stat(out); err != nil {
				t.Errorf("chart not written: %v", err)
			}
		})
	}

	data, err := os.ReadFile(filepath.Join(dir, "pie.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<circle") {
		t.Error("expected an empty circle in the chart")
	}
}

func TestAnalyze_SkipBad(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	good := writeLog(t, dir, "good.log", stepLog)
	bad := writeLog(t, dir, "bad.log", "no timestamps here\n")

	code, stdout, stderr := runCLI(t, "--skip-bad", "--no-chart", good, bad)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "warning: skip") {
		t.Errorf("expected skip warning, stderr = %q", stderr)
	}
	if !strings.Contains(stdout, "Skipped logs (1)\n  "+bad+": no timestamped line found\n") {
		t.Errorf("stdout missing skipped section:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Total time: 45 s\n") {
		t.Errorf("skipped log should not count:\n%s", stdout)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writeLog(t, dir, "a.log", stepLog)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no logs", []string{"analyze"}, "usage: "},
		{"unknown flag", []string{"--bogus", a}, "unknown flag: --bogus"},
		{"missing value", []string{a, "--output"}, "flag --output needs a value"},
		{"bad threshold", []string{"--threshold", "x", a}, "--threshold"},
		{"bad extension", []string{"--output", filepath.Join(dir, "pie.pdf"), a}, "cannot infer chart format"},
		{"bad renderer", []string{"--renderer", "ascii", a}, "unknown renderer"},
		{"missing file", []string{"--no-chart", filepath.Join(dir, "nope.log")}, "nope.log"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			if code != 1 {
				t.Errorf("exit %d, want 1", code)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.want)
			}
		})
	}
}

func TestAnalyze_RunDirectories(t *testing.T) {
	isolate(t)
	base := t.TempDir()
	for _, run := range []string{"run2", "run1"} {
		if err := os.MkdirAll(filepath.Join(base, run), 0o755); err != nil {
			t.Fatal(err)
		}
		writeLog(t, filepath.Join(base, run), "output.log", stepLog)
	}

	code, stdout, stderr := runCLI(t, "--no-chart", base)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	want := "Analysing " + filepath.Join(base, "run1", "output.log") + "\n" +
		"Analysing " + filepath.Join(base, "run2", "output.log") + "\n"
	if !strings.HasPrefix(stdout, want) {
		t.Errorf("stdout should start with %q:\n%s", want, stdout)
	}
	if !strings.Contains(stdout, "Total time: 90 s\n") {
		t.Errorf("stdout:\n%s", stdout)
	}
}

func TestAnalyze_RecordAndHistory(t *testing.T) {
	home := isolate(t)
	dir := t.TempDir()
	a := writeLog(t, dir, "a.log", swiftLog)

	code, stdout, stderr := runCLI(t, "--record", "--no-chart", a)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Recorded run 1 in ") {
		t.Errorf("stdout missing record line:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(home, ".local", "state", "phasetime", "history.db")); err != nil {
		t.Errorf("history db not created: %v", err)
	}

	code, stdout, stderr = runCLI(t, "history")
	if code != 0 {
		t.Fatalf("history exit %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{"Space Rebuild", "a.log", "20.0 s"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("history missing %q:\n%s", want, stdout)
		}
	}
}

func TestTrends(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writeLog(t, dir, "a.log", swiftLog)

	if code, stdout, _ := runCLI(t, "trends"); code != 0 || !strings.Contains(stdout, "No runs recorded") {
		t.Errorf("empty trends: exit %d, %q", code, stdout)
	}

	for i := 0; i < 2; i++ {
		if code, _, stderr := runCLI(t, "--record", "--no-chart", a); code != 0 {
			t.Fatalf("record: exit %d, %s", code, stderr)
		}
	}

	code, stdout, stderr := runCLI(t, "trends")
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{"Overview (2 runs)", "Space Rebuild", "Engine Drift All", "20.00% avg"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("trends missing %q:\n%s", want, stdout)
		}
	}

	code, stdout, _ = runCLI(t, "trends", "--phase", "engine drift all", "--runs", "1")
	if code != 0 || strings.Contains(stdout, "Space Rebuild") || !strings.Contains(stdout, "Engine Drift All") {
		t.Errorf("--phase: exit %d:\n%s", code, stdout)
	}
	if code, _, stderr := runCLI(t, "trends", "--runs", "0"); code != 1 || !strings.Contains(stderr, "--runs") {
		t.Errorf("--runs 0: exit %d, %q", code, stderr)
	}
}

func TestHistory_Empty(t *testing.T) {
	isolate(t)
	code, stdout, _ := runCLI(t, "history", "--limit", "5")
	if code != 0 || !strings.Contains(stdout, "No runs recorded") {
		t.Errorf("exit %d, stdout = %q", code, stdout)
	}
	if code, _, stderr := runCLI(t, "history", "--limit", "-1"); code != 1 || !strings.Contains(stderr, "--limit") {
		t.Errorf("negative limit: exit %d, stderr = %q", code, stderr)
	}
}

func TestConfigFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writeLog(t, dir, "a.log", stepLog)
	b := writeLog(t, dir, "b.log", stepLog)
	cfgPath := writeLog(t, dir, "config.toml", "threshold = 0.002\n\n[chart]\noutput = \""+filepath.Join(dir, "cfg.svg")+"\"\n")

	code, stdout, stderr := runCLI(t, "--config", cfgPath, a, b)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Phases (above 0.2%)\n  Gpart Assignment") {
		t.Errorf("config threshold not applied:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "cfg.svg")); err != nil {
		t.Errorf("config chart output not used: %v", err)
	}
}

func TestCheck(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	good := writeLog(t, dir, "good.log", swiftLog)

	code, stdout, _ := runCLI(t, "check", good)
	if code != 0 {
		t.Errorf("exit %d, want 0:\n%s", code, stdout)
	}
	if !strings.HasPrefix(stdout, "phasetime check\n") || !strings.Contains(stdout, "3 phase lines, run time 20 s") {
		t.Errorf("unexpected report:\n%s", stdout)
	}

	bad := writeLog(t, dir, "bad.log", "nothing\n")
	code, stdout, stderr := runCLI(t, "check", good, bad)
	if code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	if !strings.Contains(stdout, "FAIL") || stderr != "" {
		t.Errorf("stdout:\n%s\nstderr: %q", stdout, stderr)
	}
}

func TestArchive(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writeLog(t, dir, "a.log", swiftLog)
	dest := filepath.Join(dir, "archive")

	code, stdout, stderr := runCLI(t, "archive", "--dir", dest, a)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	zst := filepath.Join(dest, "a.log.zst")
	if !strings.Contains(stdout, zst) || !strings.Contains(stdout, "archived 1, skipped 0") {
		t.Errorf("stdout:\n%s", stdout)
	}

	code, stdout, stderr = runCLI(t, "archive", zst)
	if code != 0 || !strings.Contains(stdout, "already compressed") {
		t.Errorf("exit %d, stdout %q, stderr %q", code, stdout, stderr)
	}

	// The archive analyses the same as the original.
	_, plain, _ := runCLI(t, "--no-chart", a)
	_, packed, _ := runCLI(t, "--no-chart", zst)
	trim := func(s string) string { return s[strings.Index(s, "Total measured"):] }
	if trim(plain) != trim(packed) {
		t.Errorf("compressed log analysed differently:\n%s\n---\n%s", plain, packed)
	}
}

func TestPhases(t *testing.T) {
	isolate(t)
	code, stdout, _ := runCLI(t, "phases")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	if len(lines) != 27 {
		t.Fatalf("lines = %d, want 27:\n%s", len(lines), stdout)
	}
	if !strings.HasPrefix(lines[0], "   1  Gpart assignment") || !strings.HasSuffix(lines[0], " rebuild") {
		t.Errorf("line 1 = %q", lines[0])
	}

	code, yml, _ := runCLI(t, "phases", "--yaml")
	if code != 0 || !strings.HasPrefix(yml, "phases:\n") {
		t.Fatalf("exit %d, yaml:\n%s", code, yml)
	}
	path := writeLog(t, t.TempDir(), "phases.yaml", yml)
	code, again, stderr := runCLI(t, "phases", "--phases", path)
	if code != 0 || again != stdout {
		t.Errorf("round trip through --phases differs (exit %d, %s):\n%s", code, stderr, again)
	}
}

func TestInit(t *testing.T) {
	home := isolate(t)
	code, stdout, stderr := runCLI(t, "init")
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "created ") {
		t.Errorf("stdout = %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(home, ".config", "phasetime", "config.toml")); err != nil {
		t.Errorf("config not written: %v", err)
	}
	if _, stdout, _ := runCLI(t, "init"); !strings.HasPrefix(stdout, "unchanged ") {
		t.Errorf("second init stdout = %q", stdout)
	}
}

func TestVersionAndHelp(t *testing.T) {
	isolate(t)
	if code, stdout, _ := runCLI(t, "version"); code != 0 || stdout != "phasetime v"+help.Version+"\n" {
		t.Errorf("version: exit %d, %q", code, stdout)
	}
	if code, stdout, _ := runCLI(t, "help"); code != 0 || stdout != help.FormatUsage(help.TopLevel, help.Subcommands) {
		t.Errorf("help: exit %d, %q", code, stdout)
	}
	if code, stdout, _ := runCLI(t, "help", "archive"); code != 0 || stdout != help.FormatTerminal(help.CmdArchive) {
		t.Errorf("help archive: exit %d, %q", code, stdout)
	}
	if code, stdout, _ := runCLI(t, "check", "--help"); code != 0 || stdout != help.FormatTerminal(help.CmdCheck) {
		t.Errorf("check --help: exit %d, %q", code, stdout)
	}
	if code, _, stderr := runCLI(t, "help", "bogus"); code != 1 || !strings.Contains(stderr, "unknown command: bogus") {
		t.Errorf("help bogus: exit %d, %q", code, stderr)
	}
	if code, _, stderr := runCLI(t); code != 1 || !strings.Contains(stderr, "Usage:") {
		t.Errorf("no args: exit %d, %q", code, stderr)
	}
}

func TestParseFlags(t *testing.T) {
	fs, err := parseFlags([]string{"a", "--output=x.svg", "--json", "--", "--b"}, []string{"--output"}, []string{"--json"})
	if err != nil {
		t.Fatal(err)
	}
	if fs.values["--output"] != "x.svg" || !fs.bools["--json"] {
		t.Errorf("flags = %+v", fs)
	}
	if len(fs.args) != 2 || fs.args[0] != "a" || fs.args[1] != "--b" {
		t.Errorf("args = %v, want [a --b]", fs.args)
	}
	if _, err := parseFlags([]string{"--json=1"}, nil, []string{"--json"}); err == nil {
		t.Error("boolean flag with value should fail")
	}
}
