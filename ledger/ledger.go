// Package ledger records conversion runs in a sqlite database so unchanged
// inputs can be skipped and the latest status of every file reported.
package ledger

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"

	"github.com/heshanpadmasiri/cy2pw/diagnostics"
)

// Migrations contains the ordered list of migrations to apply.
var Migrations = []string{
	`CREATE TABLE runs (
		id         INTEGER PRIMARY KEY,
		started_at INTEGER NOT NULL
	)`,
	`CREATE TABLE results (
		id          INTEGER PRIMARY KEY,
		run_id      INTEGER NOT NULL REFERENCES runs(id),
		path        TEXT NOT NULL,
		target      TEXT NOT NULL,
		hash        TEXT NOT NULL,
		status      TEXT NOT NULL,
		warnings    INTEGER NOT NULL,
		markers     INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL
	)`,
	`CREATE INDEX results_path ON results(path, id)`,
}

// Migrate brings the schema up to date.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return fmt.Errorf("checking schema_version: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("initializing schema version: %w", err)
		}
	}

	var current int
	if err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(Migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(Migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}

		if _, err := tx.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("updating schema version to %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", i+1, err)
		}
	}

	return nil
}

// Entry is the recorded outcome of one file in one run.
type Entry struct {
	RunID      int64
	Path       string
	Target     string
	Hash       string
	Status     diagnostics.Status
	Warnings   int
	Markers    int
	RecordedAt time.Time
}

// EntryFor builds the entry of a file report.
func EntryFor(report diagnostics.FileReport, hash string) Entry {
	return Entry{
		Path:     report.Path,
		Target:   report.Target,
		Hash:     hash,
		Status:   report.Status,
		Warnings: len(report.Warnings),
		Markers:  len(report.Markers),
	}
}

// Ledger is an open run database. It is safe for concurrent use.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the ledger at path.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	// sqlite serializes writers
	db.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Ledger{db: db, now: time.Now}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Hash returns the content hash stored for an input file.
func Hash(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// BeginRun starts a new run and returns its id.
func (l *Ledger) BeginRun(ctx context.Context) (int64, error) {
	res, err := l.db.ExecContext(ctx, `INSERT INTO runs (started_at) VALUES (?)`, l.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("starting run: %w", err)
	}
	return res.LastInsertId()
}

// Record stores the outcome of one file.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO results (run_id, path, target, hash, status, warnings, markers, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Path, e.Target, e.Hash, string(e.Status), e.Warnings, e.Markers, l.now().UnixNano())
	if err != nil {
		return fmt.Errorf("recording %s: %w", e.Path, err)
	}
	return nil
}

// Unchanged reports whether the last recorded conversion of path used the
// same content and did not fail.
func (l *Ledger) Unchanged(ctx context.Context, path, hash string) (bool, error) {
	var status, last string
	err := l.db.QueryRowContext(ctx,
		`SELECT hash, status FROM results WHERE path = ? AND status != ? ORDER BY id DESC LIMIT 1`,
		path, string(diagnostics.StatusSkipped)).Scan(&last, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up %s: %w", path, err)
	}
	return last == hash && diagnostics.Status(status) != diagnostics.StatusFailed, nil
}

// Latest returns the most recent entry of every recorded path, ordered by
// path. Skipped entries are ignored in favour of the conversion they skipped.
func (l *Ledger) Latest(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT r.run_id, r.path, r.target, r.hash, r.status, r.warnings, r.markers, r.recorded_at
		 FROM results r
		 JOIN (SELECT path, MAX(id) AS id FROM results WHERE status != ? GROUP BY path) latest
		   ON latest.id = r.id
		 ORDER BY r.path`, string(diagnostics.StatusSkipped))
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var status string
		var recorded int64
		if err := rows.Scan(&e.RunID, &e.Path, &e.Target, &e.Hash, &status, &e.Warnings, &e.Markers, &recorded); err != nil {
			return nil, fmt.Errorf("reading result: %w", err)
		}
		e.Status = diagnostics.Status(status)
		e.RecordedAt = time.Unix(0, recorded)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
