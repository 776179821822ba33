package history

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/suykerbuyk/phasetime/internal/aggregate"
	"github.com/suykerbuyk/phasetime/internal/classify"
	"github.com/suykerbuyk/phasetime/internal/phase"
)

func sampleReport(t *testing.T, totalS float64) classify.Report {
	t.Helper()
	cat := phase.MustNew([]phase.Definition{
		{Label: "space_rebuild:", Rebuild: true},
		{Label: "engine_drift_all:"},
		{Label: "engine_launch:"},
	})
	tot := aggregate.Totals{
		Catalogue:      cat,
		Phases:         []aggregate.Accumulator{{Count: 2, TotalMS: 30_000}, {Count: 1, TotalMS: 10_000}, {Count: 5, TotalMS: 100}},
		TotalReportedS: totalS,
		Files: []aggregate.FileSummary{
			{Path: "/runs/a/output.log", RunTimeS: totalS},
			{Path: "/runs/b/output.log", Skipped: true, Reason: "no timestamped line found"},
		},
	}
	r, err := classify.Classify(tot, classify.DefaultThreshold)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	return r
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRuns(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id1, err := s.Record(ctx, sampleReport(t, 100), at)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	id2, err := s.Record(ctx, sampleReport(t, 50), at.Add(time.Hour))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("ids not increasing: %d, %d", id1, id2)
	}

	runs, err := s.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Runs = %d, want 2", len(runs))
	}
	if runs[0].ID != id2 || runs[1].ID != id1 {
		t.Errorf("runs not newest first: %d, %d", runs[0].ID, runs[1].ID)
	}
	if !runs[1].RecordedAt.Equal(at) {
		t.Errorf("RecordedAt = %v, want %v", runs[1].RecordedAt, at)
	}
	if runs[1].TotalReportedS != 100 || runs[1].Threshold != 0.008 {
		t.Errorf("run = %+v", runs[1])
	}
	if len(runs[1].Files) != 1 || runs[1].Files[0] != "/runs/a/output.log" {
		t.Errorf("Files = %v, want only the contributing log", runs[1].Files)
	}

	limited, err := s.Runs(ctx, 1)
	if err != nil || len(limited) != 1 || limited[0].ID != id2 {
		t.Errorf("Runs(1) = %+v, %v", limited, err)
	}
}

func TestPhases(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	id, err := s.Record(ctx, sampleReport(t, 100), time.Now())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	phases, err := s.Phases(ctx, id)
	if err != nil {
		t.Fatalf("Phases: %v", err)
	}
	if len(phases) != 3 {
		t.Fatalf("Phases = %d, want 3", len(phases))
	}
	top := phases[0]
	if top.Rank != 1 || top.Label != "space_rebuild:" || !top.Rebuild || !top.Important || top.Count != 2 || top.DurationS != 30 {
		t.Errorf("top phase = %+v", top)
	}
	// engine_launch: 0.1 s of 100 s is folded.
	if last := phases[2]; last.Label != "engine_launch:" || last.Important {
		t.Errorf("last phase = %+v", last)
	}
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Record(ctx, sampleReport(t, 10), time.Now()); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	runs, err := s.Runs(ctx, 0)
	if err != nil || len(runs) != 1 {
		t.Errorf("after reopen: %d runs, err %v", len(runs), err)
	}
	if s.Path() != path {
		t.Errorf("Path = %q", s.Path())
	}
}

func TestFormat(t *testing.T) {
	if out := Format(nil, nil); !strings.Contains(out, "No runs recorded") {
		t.Errorf("empty Format = %q", out)
	}

	runs := []Run{
		{ID: 2, RecordedAt: time.Now(), TotalReportedS: 90, TotalMeasuredS: 45, Unaccounted: 0.5, Files: []string{"/x/run1.log", "/x/run2.log"}},
		{ID: 1, RecordedAt: time.Now(), TotalReportedS: 10, Files: nil},
	}
	out := Format(runs, map[int64]string{2: "Space Rebuild"})
	for _, want := range []string{"Space Rebuild", "run1.log +1", "50.00%", "90.0 s"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if !strings.Contains(lines[len(lines)-1], " - ") {
		t.Errorf("run without top phase or logs should print '-':\n%s", out)
	}
}
