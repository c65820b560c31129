// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists completed search runs in a local SQLite
// database so past result sets can be listed and re-read without
// re-querying the backends.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/learninglab/kscholar/pkg/types"
)

const dbFile = "history.db"

// Run is one completed search: the query, the canonical terms it expanded
// to, the collected records, and the run's warnings.
type Run struct {
	ID          string                `json:"id" yaml:"id"`
	Query       string                `json:"query" yaml:"query"`
	Terms       []types.CanonicalTerm `json:"terms" yaml:"terms"`
	DocType     string                `json:"doc_type,omitempty" yaml:"doc_type,omitempty"`
	YearFrom    int                   `json:"year_from,omitempty" yaml:"year_from,omitempty"`
	YearTo      int                   `json:"year_to,omitempty" yaml:"year_to,omitempty"`
	Total       int                   `json:"total" yaml:"total"`
	DupsRemoved int                   `json:"dups_removed" yaml:"dups_removed"`
	Warnings    []string              `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	CreatedAt   time.Time             `json:"created_at" yaml:"created_at"`

	Records []types.StandardRecord `json:"records,omitempty" yaml:"records,omitempty"`
}

// Store manages the run history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database at dir/history.db,
// creating the schema if it does not exist.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

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
			query TEXT NOT NULL,
			terms TEXT NOT NULL,
			doc_type TEXT,
			year_from INTEGER,
			year_to INTEGER,
			total INTEGER NOT NULL,
			dups_removed INTEGER NOT NULL,
			warnings TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			authors TEXT,
			venue TEXT,
			pub_year INTEGER,
			url TEXT,
			doi TEXT,
			abstract TEXT,
			keywords TEXT,
			source TEXT NOT NULL,
			query_term TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_run_id ON records(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun persists a run and its records in one transaction and returns
// the generated run ID.
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	termsJSON, _ := json.Marshal(run.Terms)
	warningsJSON, _ := json.Marshal(run.Warnings)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, terms, doc_type, year_from, year_to, total, dups_removed, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Query, string(termsJSON), run.DocType, run.YearFrom, run.YearTo,
		len(run.Records), run.DupsRemoved, string(warningsJSON),
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (run_id, title, authors, venue, pub_year, url, doi, abstract, keywords, source, query_term)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range run.Records {
		authorsJSON, _ := json.Marshal(rec.Authors)
		keywordsJSON, _ := json.Marshal(rec.Keywords)
		_, err := stmt.ExecContext(ctx,
			run.ID, rec.Title, string(authorsJSON), rec.Venue, rec.PubYear,
			rec.URL, rec.DOI, rec.Abstract, string(keywordsJSON),
			string(rec.Source), rec.QueryTerm,
		)
		if err != nil {
			return "", fmt.Errorf("inserting record %q: %w", rec.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns run summaries (without records), newest first. A
// limit of 0 or less returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, query, terms, doc_type, year_from, year_to, total, dups_removed, warnings, created_at
		 FROM runs ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a full run including its records.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, terms, doc_type, year_from, year_to, total, dups_removed, warnings, created_at
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT title, authors, venue, pub_year, url, doi, abstract, keywords, source, query_term
		 FROM records WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return Run{}, fmt.Errorf("reading records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec types.StandardRecord
		var authorsJSON, keywordsJSON, source string
		if err := rows.Scan(&rec.Title, &authorsJSON, &rec.Venue, &rec.PubYear,
			&rec.URL, &rec.DOI, &rec.Abstract, &keywordsJSON, &source, &rec.QueryTerm); err != nil {
			return Run{}, fmt.Errorf("scanning record: %w", err)
		}
		json.Unmarshal([]byte(authorsJSON), &rec.Authors)
		json.Unmarshal([]byte(keywordsJSON), &rec.Keywords)
		rec.Source = types.Source(source)
		run.Records = append(run.Records, rec)
	}
	return run, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var termsJSON, warningsJSON, createdAt string
	err := sc.Scan(&run.ID, &run.Query, &termsJSON, &run.DocType,
		&run.YearFrom, &run.YearTo, &run.Total, &run.DupsRemoved,
		&warningsJSON, &createdAt)
	if err != nil {
		return Run{}, err
	}
	json.Unmarshal([]byte(termsJSON), &run.Terms)
	json.Unmarshal([]byte(warningsJSON), &run.Warnings)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		run.CreatedAt = t
	}
	return run, nil
}
