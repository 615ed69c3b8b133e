package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id          TEXT PRIMARY KEY,
  started_at  TEXT NOT NULL,
  source      TEXT NOT NULL,
  changed     INTEGER NOT NULL CHECK (changed IN (0,1)),
  initialized INTEGER NOT NULL CHECK (initialized IN (0,1)),
  message     TEXT,
  warnings    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_time ON runs(started_at);
CREATE TABLE IF NOT EXISTS entity_changes (
  id          INTEGER PRIMARY KEY,
  run_id      TEXT NOT NULL REFERENCES runs(id),
  occurred_at TEXT NOT NULL,
  kind        TEXT NOT NULL,
  name        TEXT NOT NULL,
  change_type TEXT NOT NULL CHECK (change_type IN ('added','updated','removed'))
);
CREATE INDEX IF NOT EXISTS idx_changes_time ON entity_changes(occurred_at);
CREATE INDEX IF NOT EXISTS idx_changes_kind ON entity_changes(kind, name);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// RecordRun stores run and its changes in one transaction. A run without an
// ID gets a new one, which is returned.
func (d *DB) RecordRun(ctx context.Context, run Run, changes []Change) (string, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs(id, started_at, source, changed, initialized, message, warnings) VALUES(?,?,?,?,?,?,?)`,
		run.ID, formatTime(run.StartedAt), run.Source, boolToInt(run.Changed), boolToInt(run.Initialized), nullIfEmpty(run.Message), run.Warnings)
	if err != nil {
		return "", err
	}

	for _, c := range changes {
		occurred := c.OccurredAt
		if occurred.IsZero() {
			occurred = run.StartedAt
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO entity_changes(run_id, occurred_at, kind, name, change_type) VALUES(?,?,?,?,?)`,
			run.ID, formatTime(occurred), c.Kind, c.Name, c.ChangeType)
		if err != nil {
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

// ListRecentChanges returns the most recent N changes across all runs.
func (d *DB) ListRecentChanges(ctx context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT c.occurred_at, c.run_id, r.source, c.kind, c.name, c.change_type
FROM entity_changes c JOIN runs r ON r.id = c.run_id
ORDER BY c.occurred_at DESC, c.id DESC LIMIT ?`
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var c Change
		var occurredAtStr string
		if err := rows.Scan(&occurredAtStr, &c.RunID, &c.Source, &c.Kind, &c.Name, &c.ChangeType); err != nil {
			return nil, err
		}
		c.OccurredAt = parseTime(occurredAtStr)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}

// ListRuns returns the most recent N runs.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx, "SELECT id, started_at, source, changed, initialized, message, warnings FROM runs ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                    Run
			startedAt            string
			changed, initialized int
			msg                  sql.NullString
		)
		if err := rows.Scan(&r.ID, &startedAt, &r.Source, &changed, &initialized, &msg, &r.Warnings); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(startedAt)
		r.Changed = changed == 1
		r.Initialized = initialized == 1
		r.Message = msg.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetStats counts recorded changes per kind.
func (d *DB) GetStats(ctx context.Context) ([]KindStats, error) {
	query := `
		SELECT
			kind,
			SUM(CASE WHEN change_type = 'added' THEN 1 ELSE 0 END),
			SUM(CASE WHEN change_type = 'updated' THEN 1 ELSE 0 END),
			SUM(CASE WHEN change_type = 'removed' THEN 1 ELSE 0 END)
		FROM
			entity_changes
		GROUP BY
			kind
		ORDER BY
			kind;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []KindStats
	for rows.Next() {
		var s KindStats
		if err := rows.Scan(&s.Kind, &s.Added, &s.Updated, &s.Removed); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// ErrRunNotFound is returned by GetRun for unknown ids.
var ErrRunNotFound = errors.New("run not found")

// GetRun returns a single run and the changes recorded with it.
func (d *DB) GetRun(ctx context.Context, id string) (Run, []Change, error) {
	var (
		r                    Run
		startedAt            string
		changed, initialized int
		msg                  sql.NullString
	)
	err := d.sql.QueryRowContext(ctx, "SELECT id, started_at, source, changed, initialized, message, warnings FROM runs WHERE id = ?", id).
		Scan(&r.ID, &startedAt, &r.Source, &changed, &initialized, &msg, &r.Warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, ErrRunNotFound
	}
	if err != nil {
		return Run{}, nil, err
	}
	r.StartedAt = parseTime(startedAt)
	r.Changed = changed == 1
	r.Initialized = initialized == 1
	r.Message = msg.String

	rows, err := d.sql.QueryContext(ctx, "SELECT occurred_at, kind, name, change_type FROM entity_changes WHERE run_id = ? ORDER BY id", id)
	if err != nil {
		return Run{}, nil, err
	}
	defer rows.Close()
	var changes []Change
	for rows.Next() {
		c := Change{RunID: r.ID, Source: r.Source}
		var occurredAtStr string
		if err := rows.Scan(&occurredAtStr, &c.Kind, &c.Name, &c.ChangeType); err != nil {
			return Run{}, nil, err
		}
		c.OccurredAt = parseTime(occurredAtStr)
		changes = append(changes, c)
	}
	return r, changes, rows.Err()
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts our RFC3339 format and SQLite's CURRENT_TIMESTAMP format.
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
