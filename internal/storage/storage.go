// Package storage persists stitch-run history in SQLite.
package storage

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite-backed persistence for stitch runs.
type Store struct {
	DB *sql.DB
}

// New opens (or creates) the database at path and ensures schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stitch_runs (
            id TEXT PRIMARY KEY,
            status TEXT NOT NULL,
            input_path TEXT,
            output_path TEXT,
            mode TEXT,
            image_count INTEGER,
            width INTEGER,
            height INTEGER,
            error_message TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            completed_at TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_stitch_runs_created_at ON stitch_runs(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// RunRecord captures one persisted stitch run.
type RunRecord struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	InputPath   string     `json:"input_path"`
	OutputPath  string     `json:"output_path"`
	Mode        string     `json:"mode"`
	ImageCount  int        `json:"image_count"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RecordRunStarted inserts a new run in "running" state.
func (s *Store) RecordRunStarted(rec RunRecord) error {
	_, err := s.DB.Exec(
		`INSERT INTO stitch_runs (id, status, input_path, output_path, mode, created_at)
         VALUES (?, 'running', ?, ?, ?, CURRENT_TIMESTAMP)`,
		rec.ID, rec.InputPath, rec.OutputPath, rec.Mode,
	)
	return err
}

// RecordRunCompleted marks a run as completed with its result metadata.
func (s *Store) RecordRunCompleted(id string, imageCount, width, height int) error {
	_, err := s.DB.Exec(
		`UPDATE stitch_runs
         SET status = 'completed', image_count = ?, width = ?, height = ?, completed_at = CURRENT_TIMESTAMP
         WHERE id = ?`,
		imageCount, width, height, id,
	)
	return err
}

// RecordRunFailed marks a run as failed with its error message.
func (s *Store) RecordRunFailed(id string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := s.DB.Exec(
		`UPDATE stitch_runs
         SET status = 'failed', error_message = ?, completed_at = CURRENT_TIMESTAMP
         WHERE id = ?`,
		msg, id,
	)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := s.DB.Query(
		`SELECT id, status, input_path, output_path, mode,
                COALESCE(image_count, 0), COALESCE(width, 0), COALESCE(height, 0),
                COALESCE(error_message, ''), created_at, completed_at
         FROM stitch_runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var completed sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Status, &rec.InputPath, &rec.OutputPath, &rec.Mode,
			&rec.ImageCount, &rec.Width, &rec.Height, &rec.Error, &rec.CreatedAt, &completed); err != nil {
			return nil, err
		}
		if completed.Valid {
			rec.CompletedAt = &completed.Time
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
