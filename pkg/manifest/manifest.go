// Package manifest persists batch-conversion runs: one row per run,
// one row per input file with its success or failure outcome. The
// store is the system of record for "what happened" in a batch; graph
// files themselves stay on the filesystem.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps the manifest database.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the manifest database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open manifest database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate manifest database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		grid_resolution INTEGER NOT NULL,
		edge_samples INTEGER NOT NULL,
		succeeded INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS files (
		run_id TEXT NOT NULL,
		source TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		output TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		faces INTEGER NOT NULL DEFAULT 0,
		edges INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_files_run ON files(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// File statuses.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusTimeout = "timeout"
)

// Run is one batch conversion.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	GridResolution int
	EdgeSamples    int
	Succeeded      int
	Failed         int
}

// FileRecord is one input file's outcome within a run.
type FileRecord struct {
	RunID    string
	Source   string
	Category string
	Output   string
	Status   string
	Error    string
	Faces    int
	Edges    int
	Duration time.Duration
}

// BeginRun inserts a new run row and returns its identifier.
func (s *Store) BeginRun(ctx context.Context, gridResolution, edgeSamples int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, grid_resolution, edge_samples) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC(), gridResolution, edgeSamples)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// RecordFile appends one file outcome to its run.
func (s *Store) RecordFile(ctx context.Context, rec FileRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (run_id, source, category, output, status, error, faces, edges, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Source, rec.Category, rec.Output, rec.Status, rec.Error,
		rec.Faces, rec.Edges, rec.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("record file %s: %w", rec.Source, err)
	}
	return nil
}

// FinishRun stamps the run's end time and outcome counters.
func (s *Store) FinishRun(ctx context.Context, runID string, succeeded, failed int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, succeeded = ?, failed = ? WHERE id = ?`,
		time.Now().UTC(), succeeded, failed, runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

// Files lists a run's file outcomes in insertion order.
func (s *Store) Files(ctx context.Context, runID string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, source, category, output, status, error, faces, edges, duration_ms
		 FROM files WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("list files for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var rec FileRecord
		var ms int64
		if err := rows.Scan(&rec.RunID, &rec.Source, &rec.Category, &rec.Output,
			&rec.Status, &rec.Error, &rec.Faces, &rec.Edges, &ms); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Runs lists all runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, COALESCE(finished_at, started_at),
		        grid_resolution, edge_samples, succeeded, failed
		 FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt,
			&r.GridResolution, &r.EdgeSamples, &r.Succeeded, &r.Failed); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
