// Package archive records finished workflow runs in SQLite for audit. The
// archive is write-once per run: the scheduler never reads it back, so
// in-process resume stays out of scope while the full coordination history
// (statuses, outputs, reviews, revision counts) survives the process.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run describes one workflow execution.
type Run struct {
	ID         string
	Workflow   string // Workflow name (e.g., "discovery", "sow")
	Rounds     int
	Complete   bool // False when the run ended with non-terminal tasks
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Store is the SQLite-backed audit archive.
type Store struct {
	db *sql.DB
}

// Open creates or opens the archive database at the given path. Creates
// parent directories if needed. Enables WAL mode, foreign keys, and a busy
// timeout.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Foreign keys must be enabled via PRAGMA for modernc.org/sqlite.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		workflow TEXT NOT NULL,
		rounds INTEGER NOT NULL,
		complete INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_tasks (
		run_id TEXT NOT NULL,
		task_id TEXT NOT NULL,
		title TEXT NOT NULL,
		role TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		revision_count INTEGER NOT NULL,
		output TEXT,
		PRIMARY KEY (run_id, task_id),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS run_reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		target_task_id TEXT NOT NULL,
		reviewer_role TEXT NOT NULL,
		approved INTEGER NOT NULL,
		confidence REAL NOT NULL,
		critical_issues INTEGER NOT NULL,
		concerns INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_run_tasks_run_id ON run_tasks(run_id);
	CREATE INDEX IF NOT EXISTS idx_run_reviews_run_target ON run_reviews(run_id, target_task_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
