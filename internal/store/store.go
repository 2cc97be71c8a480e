// Package store persists analysis runs, their issues and the symbol
// reference graph to SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/funvibe/flowcheck/internal/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started    TEXT NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	units      INTEGER NOT NULL,
	issues     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS units (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	path     TEXT NOT NULL,
	hash     TEXT NOT NULL,
	issues   INTEGER NOT NULL,
	excluded INTEGER NOT NULL,
	failed   INTEGER NOT NULL,
	error    TEXT,
	PRIMARY KEY (run_id, path)
);
CREATE TABLE IF NOT EXISTS issues (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	file     TEXT NOT NULL,
	line     INTEGER NOT NULL,
	col      INTEGER NOT NULL,
	code     TEXT NOT NULL,
	severity TEXT NOT NULL,
	message  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS issues_run ON issues(run_id);
CREATE TABLE IF NOT EXISTS refs (
	run_id TEXT NOT NULL REFERENCES runs(id),
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	PRIMARY KEY (run_id, source, target)
);
`

// Store is an open results database.
type Store struct {
	db *sql.DB
}

// Run is a stored run.
type Run struct {
	ID      string
	Started time.Time
	Elapsed time.Duration
	Units   int
	Issues  int
}

// Issue is a stored issue.
type Issue struct {
	File     string
	Line     int
	Column   int
	Code     string
	Severity string
	Message  string
}

// Open opens or creates the database at path and ensures the schema.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun writes a run with its units, issues and references in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, res *pipeline.Result) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started, elapsed_ms, units, issues) VALUES (?, ?, ?, ?, ?)`,
		res.RunID, res.Started.UTC().Format(time.RFC3339Nano), res.Elapsed.Milliseconds(), len(res.Units), len(res.Issues),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	failures := make(map[string]string, len(res.Unanalyzable))
	for _, f := range res.Unanalyzable {
		failures[f.Path] = f.Err.Error()
	}
	for _, u := range res.Units {
		var msg sql.NullString
		if e, ok := failures[u.Path]; ok {
			msg = sql.NullString{String: e, Valid: true}
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO units (run_id, path, hash, issues, excluded, failed, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, u.Path, u.Hash, u.Issues, u.Excluded, u.Failed, msg,
		); err != nil {
			return fmt.Errorf("insert unit %s: %w", u.Path, err)
		}
	}

	for _, is := range res.Issues {
		sp := is.Span()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO issues (run_id, file, line, col, code, severity, message) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, sp.File, sp.Line, sp.Column, string(is.Code), is.Severity.String(), is.Message,
		); err != nil {
			return fmt.Errorf("insert issue: %w", err)
		}
	}

	if res.References != nil {
		for _, e := range res.References.Edges() {
			if _, err = tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO refs (run_id, source, target) VALUES (?, ?, ?)`,
				res.RunID, e.From, e.To,
			); err != nil {
				return fmt.Errorf("insert reference: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.Info("store.save", "run", res.RunID, "units", len(res.Units), "issues", len(res.Issues))
	return nil
}

// Runs lists the stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started, elapsed_ms, units, issues FROM runs ORDER BY started DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started string
		var elapsed int64
		if err := rows.Scan(&r.ID, &started, &elapsed, &r.Units, &r.Issues); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s: %w", r.ID, err)
		}
		r.Elapsed = time.Duration(elapsed) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// Issues returns the issues of a run in file, line, column order.
func (s *Store) Issues(ctx context.Context, runID string) ([]Issue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file, line, col, code, severity, message FROM issues WHERE run_id = ? ORDER BY file, line, col, code`, runID)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}
	defer rows.Close()

	var out []Issue
	for rows.Next() {
		var is Issue
		if err := rows.Scan(&is.File, &is.Line, &is.Column, &is.Code, &is.Severity, &is.Message); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		out = append(out, is)
	}
	return out, rows.Err()
}

// References returns the reference edges of a run.
func (s *Store) References(ctx context.Context, runID string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, target FROM refs WHERE run_id = ? ORDER BY source, target`, runID)
	if err != nil {
		return nil, fmt.Errorf("query references: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		out[from] = append(out[from], to)
	}
	return out, rows.Err()
}

// LastHashes returns the content hash of every unit as of its most
// recent run.
func (s *Store) LastHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.path, u.hash FROM units u
		JOIN runs r ON r.id = u.run_id
		ORDER BY r.started`)
	if err != nil {
		return nil, fmt.Errorf("query hashes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("scan hash: %w", err)
		}
		out[path] = hash
	}
	return out, rows.Err()
}
