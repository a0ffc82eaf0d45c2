// Package history keeps a SQLite record of every cleaning run and the
// outcome of each file in it.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ironsheep/frame-cleaner/internal/outcome"
)

// ErrRunNotFound is returned by Run for an unknown id.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id              TEXT PRIMARY KEY,
    input           TEXT NOT NULL,
    output_dir      TEXT NOT NULL,
    started_ns      INTEGER NOT NULL,
    finished_ns     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS outcomes (
    run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    ordinal         INTEGER NOT NULL,
    filename        TEXT NOT NULL,
    input_path      TEXT NOT NULL,
    output_path     TEXT NOT NULL DEFAULT '',
    preview_path    TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL,
    error_message   TEXT NOT NULL DEFAULT '',
    entities_before INTEGER NOT NULL,
    entities_after  INTEGER NOT NULL,
    entities_deleted INTEGER NOT NULL,
    delete_failures INTEGER NOT NULL DEFAULT 0,
    border_found    INTEGER NOT NULL,
    border_kind     TEXT NOT NULL DEFAULT '',
    border_width    REAL NOT NULL,
    border_height   REAL NOT NULL,
    delete_pct      REAL NOT NULL,
    processing_ns   INTEGER NOT NULL,
    PRIMARY KEY (run_id, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_ns);
CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes(status);
`

// Store is the SQLite run history.
type Store struct {
	db *sql.DB
}

// RunInfo is a run without its outcomes.
type RunInfo struct {
	ID         string          `json:"id"`
	Input      string          `json:"input"`
	OutputDir  string          `json:"output_dir"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Summary    outcome.Summary `json:"summary"`
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// One writer at a time; readers share the connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// WriteRun stores run and its outcomes. Writing the same run id again
// replaces the earlier record.
func (s *Store) WriteRun(ctx context.Context, run *outcome.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM outcomes WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear outcomes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, input, output_dir, started_ns, finished_ns)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Input, run.OutputDir, unixNano(run.StartedAt), unixNano(run.FinishedAt),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outcomes (run_id, ordinal, filename, input_path, output_path, preview_path,
			status, error_message, entities_before, entities_after, entities_deleted,
			delete_failures, border_found, border_kind, border_width, border_height,
			delete_pct, processing_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, o := range run.Outcomes {
		if _, err := stmt.ExecContext(ctx,
			run.ID, i, o.Filename, o.InputPath, o.OutputPath, o.PreviewPath,
			string(o.Status), o.ErrorMessage, o.EntitiesBefore, o.EntitiesAfter, o.EntitiesDeleted,
			o.DeleteFailures, o.BorderFound, o.BorderKind, o.BorderWidth, o.BorderHeight,
			o.DeletePct, int64(o.ProcessingTime),
		); err != nil {
			return fmt.Errorf("insert outcome %s: %w", o.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.input, r.output_dir, r.started_ns, r.finished_ns,
			COUNT(o.ordinal),
			COALESCE(SUM(o.status = 'success'), 0),
			COALESCE(SUM(o.status = 'failed'), 0),
			COALESCE(SUM(o.status = 'review'), 0),
			COALESCE(SUM(o.entities_deleted), 0),
			COALESCE(SUM(o.status != 'failed' AND o.border_found = 0), 0)
		FROM runs r
		LEFT JOIN outcomes o ON o.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_ns DESC, r.id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := []RunInfo{}
	for rows.Next() {
		var info RunInfo
		var started, finished int64
		sum := &info.Summary
		if err := rows.Scan(&info.ID, &info.Input, &info.OutputDir, &started, &finished,
			&sum.Total, &sum.Success, &sum.Failed, &sum.Review, &sum.Removed, &sum.NoBorder); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		info.StartedAt = fromUnixNano(started)
		info.FinishedAt = fromUnixNano(finished)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Run loads the run with id and its outcomes in processing order.
func (s *Store) Run(ctx context.Context, id string) (*outcome.Run, error) {
	run := &outcome.Run{ID: id}
	var started, finished int64

	err := s.db.QueryRowContext(ctx, `
		SELECT input, output_dir, started_ns, finished_ns FROM runs WHERE id = ?`, id,
	).Scan(&run.Input, &run.OutputDir, &started, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", id, ErrRunNotFound)
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.StartedAt = fromUnixNano(started)
	run.FinishedAt = fromUnixNano(finished)

	rows, err := s.db.QueryContext(ctx, `
		SELECT filename, input_path, output_path, preview_path, status, error_message,
			entities_before, entities_after, entities_deleted, delete_failures,
			border_found, border_kind, border_width, border_height, delete_pct, processing_ns
		FROM outcomes WHERE run_id = ? ORDER BY ordinal`, id)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		o := &outcome.ProcessingOutcome{}
		var status string
		var elapsed int64
		if err := rows.Scan(&o.Filename, &o.InputPath, &o.OutputPath, &o.PreviewPath, &status, &o.ErrorMessage,
			&o.EntitiesBefore, &o.EntitiesAfter, &o.EntitiesDeleted, &o.DeleteFailures,
			&o.BorderFound, &o.BorderKind, &o.BorderWidth, &o.BorderHeight, &o.DeletePct, &elapsed); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Status = outcome.Status(status)
		o.ProcessingTime = time.Duration(elapsed)
		run.Outcomes = append(run.Outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return run, nil
}

// Delete removes a run and its outcomes.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	return nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
