// Package history keeps a SQLite record of past analysis runs so that
// breakdowns can be compared across simulations.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/suykerbuyk/phasetime/internal/classify"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at      TEXT NOT NULL,
	threshold        REAL NOT NULL,
	total_measured_s REAL NOT NULL,
	total_reported_s REAL NOT NULL,
	unaccounted      REAL NOT NULL,
	files            TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS run_phases (
	run_id     INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	rank       INTEGER NOT NULL,
	label      TEXT NOT NULL,
	count      INTEGER NOT NULL,
	duration_s REAL NOT NULL,
	ratio      REAL NOT NULL,
	rebuild    INTEGER NOT NULL,
	important  INTEGER NOT NULL,
	PRIMARY KEY (run_id, rank)
);
CREATE INDEX IF NOT EXISTS idx_runs_recorded_at ON runs(recorded_at);
`

// Run is one recorded analysis.
type Run struct {
	ID             int64
	RecordedAt     time.Time
	Threshold      float64
	TotalMeasuredS float64
	TotalReportedS float64
	Unaccounted    float64
	Files          []string // logs that contributed
}

// Phase is one ranked phase of a recorded run.
type Phase struct {
	Rank      int
	Label     string
	Count     int
	DurationS float64
	Ratio     float64
	Rebuild   bool
	Important bool
}

// Store is an open history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// A single connection keeps PRAGMA foreign_keys in effect.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open history: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores r as a new run and returns its id. Skipped logs are not
// listed in the run's files.
func (s *Store) Record(ctx context.Context, r classify.Report, at time.Time) (int64, error) {
	var files []string
	for _, f := range r.Files {
		if !f.Skipped {
			files = append(files, f.Path)
		}
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return 0, fmt.Errorf("encode files: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (recorded_at, threshold, total_measured_s, total_reported_s, unaccounted, files)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		at.UTC().Format(time.RFC3339Nano), r.Threshold, r.TotalMeasuredS, r.TotalReportedS, r.Unaccounted, string(filesJSON))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_phases (run_id, rank, label, count, duration_s, ratio, rebuild, important)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare phases: %w", err)
	}
	defer stmt.Close()

	rank := 0
	insert := func(e classify.Entry, important bool) error {
		rank++
		_, err := stmt.ExecContext(ctx, id, rank, e.Label, e.Count, e.DurationS, e.Ratio, e.Rebuild, important)
		return err
	}
	for _, e := range r.Important() {
		if err := insert(e, true); err != nil {
			return 0, fmt.Errorf("insert phase %q: %w", e.Label, err)
		}
	}
	for _, e := range r.Folded {
		if err := insert(e, false); err != nil {
			return 0, fmt.Errorf("insert phase %q: %w", e.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Runs returns up to limit runs, newest first. limit <= 0 means all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, recorded_at, threshold, total_measured_s, total_reported_s, unaccounted, files
		FROM runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			at, files string
		)
		if err := rows.Scan(&run.ID, &at, &run.Threshold, &run.TotalMeasuredS, &run.TotalReportedS, &run.Unaccounted, &files); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.RecordedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("run %d: bad timestamp %q: %w", run.ID, at, err)
		}
		if err := json.Unmarshal([]byte(files), &run.Files); err != nil {
			return nil, fmt.Errorf("run %d: decode files: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Phases returns the ranked phases of run id.
func (s *Store) Phases(ctx context.Context, id int64) ([]Phase, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, label, count, duration_s, ratio, rebuild, important
		 FROM run_phases WHERE run_id = ? ORDER BY rank`, id)
	if err != nil {
		return nil, fmt.Errorf("query phases: %w", err)
	}
	defer rows.Close()

	var phases []Phase
	for rows.Next() {
		var p Phase
		if err := rows.Scan(&p.Rank, &p.Label, &p.Count, &p.DurationS, &p.Ratio, &p.Rebuild, &p.Important); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}
