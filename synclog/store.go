// Package synclog records the outcome of every content sync in SQLite so the
// admin dashboard can show when the Notion source was last read and why a
// cycle failed. Post content is never stored here.
package synclog

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome is the result class of a sync run.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeFailed      Outcome = "failed"
)

// Run is one row of the journal.
type Run struct {
	ID        int64
	StartedAt time.Time
	Duration  time.Duration
	Outcome   Outcome
	ErrorKind string
	Message   string
	PostCount int
}

// ErrNoRuns is returned by LastSuccess when no run has succeeded yet.
var ErrNoRuns = errors.New("synclog: no successful run recorded")

// Store wraps the journal database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the journal at path. ":memory:" is accepted for
// tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the dashboard read while the sync loop writes.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	if path == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS sync_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    error_kind TEXT NOT NULL DEFAULT '',
    message TEXT NOT NULL DEFAULT '',
    post_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sync_runs_outcome ON sync_runs(outcome, id);
`)
	return err
}

// Record appends r to the journal and returns its id.
func (s *Store) Record(ctx context.Context, r Run) (int64, error) {
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (started_at, duration_ms, outcome, error_kind, message, post_count) VALUES (?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(time.RFC3339Nano), r.Duration.Milliseconds(), string(r.Outcome), r.ErrorKind, r.Message, r.PostCount)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, outcome, error_kind, message, post_count FROM sync_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LastSuccess returns the most recent run with outcome ok, or ErrNoRuns.
func (s *Store) LastSuccess(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, duration_ms, outcome, error_kind, message, post_count FROM sync_runs WHERE outcome = ? ORDER BY id DESC LIMIT 1`,
		string(OutcomeOK))
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	return r, err
}

// Prune deletes all but the newest keep runs and reports how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sync_runs WHERE id NOT IN (SELECT id FROM sync_runs ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r       Run
		started string
		ms      int64
		outcome string
	)
	if err := sc.Scan(&r.ID, &started, &ms, &outcome, &r.ErrorKind, &r.Message, &r.PostCount); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, err
	}
	r.StartedAt = t
	r.Duration = time.Duration(ms) * time.Millisecond
	r.Outcome = Outcome(outcome)
	return r, nil
}
