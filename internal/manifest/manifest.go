// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest records what each run did to each artifact in a SQLite
// database next to the corpus. The manifest is an audit trail only; files on
// disk remain the sole signal that an artifact is complete.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/openreview-corpus/pkg/types"
)

// Status is the outcome recorded for one artifact.
type Status string

const (
	StatusSaved    Status = "saved"
	StatusExisting Status = "existing"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Artifact is one row of the artifacts table.
type Artifact struct {
	ForumID   string
	Category  types.Category
	Status    Status
	Path      string
	Detail    string
	RunID     string
	UpdatedAt time.Time
}

// RunCounts are the totals stored for a finished run.
type RunCounts struct {
	Papers        int
	PDFs          int
	Reviews       int
	Supplementary int
	Repos         int
	Failed        int
}

// Store wraps the manifest database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the manifest at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			papers INTEGER DEFAULT 0,
			pdfs INTEGER DEFAULT 0,
			reviews INTEGER DEFAULT 0,
			supplementary INTEGER DEFAULT 0,
			repos INTEGER DEFAULT 0,
			failed INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			forum_id TEXT PRIMARY KEY,
			title TEXT,
			authors TEXT,
			status TEXT,
			run_id TEXT,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			forum_id TEXT NOT NULL,
			category TEXT NOT NULL,
			status TEXT NOT NULL,
			path TEXT,
			detail TEXT,
			run_id TEXT,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (forum_id, category)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_status ON artifacts(category, status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// StartRun inserts a run row.
func (s *Store) StartRun(ctx context.Context, runID string, started time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, started_at) VALUES (?, ?)`,
		runID, started.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording run start: %w", err)
	}
	return nil
}

// FinishRun stores the end time and totals of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, finished time.Time, c RunCounts) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, papers = ?, pdfs = ?, reviews = ?,
			supplementary = ?, repos = ?, failed = ? WHERE id = ?`,
		finished.UTC().Format(time.RFC3339), c.Papers, c.PDFs, c.Reviews,
		c.Supplementary, c.Repos, c.Failed, runID)
	if err != nil {
		return fmt.Errorf("recording run end: %w", err)
	}
	return nil
}

// RecordPaper upserts the identifying fields of a paper.
func (s *Store) RecordPaper(ctx context.Context, runID string, p types.PaperRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO papers (forum_id, title, authors, status, run_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(forum_id) DO UPDATE SET
			title = excluded.title,
			authors = excluded.authors,
			status = excluded.status,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`,
		p.ForumID, p.Title, p.Authors, p.Field(types.FieldStatus), runID, now())
	if err != nil {
		return fmt.Errorf("recording paper %s: %w", p.ForumID, err)
	}
	return nil
}

// RecordArtifact upserts the latest outcome for (forum, category).
func (s *Store) RecordArtifact(ctx context.Context, a Artifact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (forum_id, category, status, path, detail, run_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(forum_id, category) DO UPDATE SET
			status = excluded.status,
			path = excluded.path,
			detail = excluded.detail,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`,
		a.ForumID, string(a.Category), string(a.Status), a.Path, a.Detail, a.RunID, now())
	if err != nil {
		return fmt.Errorf("recording %s artifact for %s: %w", a.Category, a.ForumID, err)
	}
	return nil
}

// Artifacts returns the recorded artifacts of a forum ordered by category.
func (s *Store) Artifacts(ctx context.Context, forumID string) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT forum_id, category, status, COALESCE(path, ''), COALESCE(detail, ''),
			COALESCE(run_id, ''), updated_at
		FROM artifacts WHERE forum_id = ? ORDER BY category`, forumID)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		var category, status, updated string
		if err := rows.Scan(&a.ForumID, &category, &status, &a.Path, &a.Detail, &a.RunID, &updated); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		a.Category = types.Category(category)
		a.Status = Status(status)
		a.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		out = append(out, a)
	}
	return out, rows.Err()
}

// StatusCounts tallies artifacts by category and status.
func (s *Store) StatusCounts(ctx context.Context) (map[types.Category]map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, status, COUNT(*) FROM artifacts GROUP BY category, status`)
	if err != nil {
		return nil, fmt.Errorf("querying status counts: %w", err)
	}
	defer rows.Close()

	out := make(map[types.Category]map[Status]int)
	for rows.Next() {
		var category, status string
		var n int
		if err := rows.Scan(&category, &status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		c := types.Category(category)
		if out[c] == nil {
			out[c] = make(map[Status]int)
		}
		out[c][Status(status)] = n
	}
	return out, rows.Err()
}

// LastRun returns the id and counts of the most recently started run.
func (s *Store) LastRun(ctx context.Context) (string, RunCounts, error) {
	var id string
	var c RunCounts
	err := s.db.QueryRowContext(ctx,
		`SELECT id, papers, pdfs, reviews, supplementary, repos, failed
		FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`).
		Scan(&id, &c.Papers, &c.PDFs, &c.Reviews, &c.Supplementary, &c.Repos, &c.Failed)
	if err == sql.ErrNoRows {
		return "", RunCounts{}, nil
	}
	if err != nil {
		return "", RunCounts{}, fmt.Errorf("querying last run: %w", err)
	}
	return id, c, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
