// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists finished research reports in SQLite and
// exposes full-text search over them.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/websight/pkg/types"
)

const (
	archiveDir = "archive"
	dbFile     = "websight.db"
)

// ErrNotFound is returned when a report ID does not exist in the archive.
var ErrNotFound = errors.New("report not found")

// ArchivedReport is a stored report with its archive identity.
type ArchivedReport struct {
	ID      string                 `json:"id" yaml:"id"`
	Query   string                 `json:"query" yaml:"query"`
	Text    string                 `json:"text" yaml:"text"`
	Sources []types.SourceAnalysis `json:"sources,omitempty" yaml:"sources,omitempty"`
	Created time.Time              `json:"created" yaml:"created"`
}

// Store manages the report archive SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the archive database at
// dataDir/archive/websight.db, creating the schema if needed.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, archiveDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
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
		`CREATE TABLE IF NOT EXISTS reports (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			query TEXT NOT NULL,
			text TEXT NOT NULL,
			sources TEXT,
			created TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='reports_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE reports_fts USING fts5(query, text, content=reports, content_rowid=rowid)`,
			`CREATE TRIGGER reports_ai AFTER INSERT ON reports BEGIN
				INSERT INTO reports_fts(rowid, query, text) VALUES (new.rowid, new.query, new.text);
			END`,
			`CREATE TRIGGER reports_ad AFTER DELETE ON reports BEGIN
				INSERT INTO reports_fts(reports_fts, rowid, query, text) VALUES('delete', old.rowid, old.query, old.text);
			END`,
			`CREATE TRIGGER reports_au AFTER UPDATE ON reports BEGIN
				INSERT INTO reports_fts(reports_fts, rowid, query, text) VALUES('delete', old.rowid, old.query, old.text);
				INSERT INTO reports_fts(rowid, query, text) VALUES (new.rowid, new.query, new.text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Save stores a report and returns its archive ID.
func (s *Store) Save(ctx context.Context, rep types.Report) (string, error) {
	id := uuid.NewString()
	sourcesJSON, _ := json.Marshal(rep.Sources)
	created := rep.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, query, text, sources, created) VALUES (?, ?, ?, ?, ?)`,
		id, rep.Query, rep.Text, string(sourcesJSON), created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("inserting report: %w", err)
	}
	return id, nil
}

// Get returns one archived report by ID.
func (s *Store) Get(ctx context.Context, id string) (ArchivedReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, text, sources, created FROM reports WHERE id = ?`, id)

	rep, err := scanReport(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ArchivedReport{}, ErrNotFound
		}
		return ArchivedReport{}, fmt.Errorf("looking up report: %w", err)
	}
	return rep, nil
}

// List returns archived reports, newest first. A non-positive limit uses
// the store default.
func (s *Store) List(ctx context.Context, limit int) ([]ArchivedReport, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, text, sources, created FROM reports ORDER BY created DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	return collectReports(rows)
}

// Search runs a full-text query over report queries and bodies, ranked by
// relevance.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]ArchivedReport, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.query, r.text, r.sources, r.created
		FROM reports_fts
		JOIN reports r ON r.rowid = reports_fts.rowid
		WHERE reports_fts MATCH ?
		ORDER BY reports_fts.rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching reports: %w", err)
	}
	defer rows.Close()

	return collectReports(rows)
}

func collectReports(rows *sql.Rows) ([]ArchivedReport, error) {
	var out []ArchivedReport
	for rows.Next() {
		rep, err := scanReport(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func scanReport(scan func(...any) error) (ArchivedReport, error) {
	var (
		rep         ArchivedReport
		sourcesJSON sql.NullString
		createdStr  string
	)
	if err := scan(&rep.ID, &rep.Query, &rep.Text, &sourcesJSON, &createdStr); err != nil {
		return ArchivedReport{}, err
	}
	if sourcesJSON.Valid {
		json.Unmarshal([]byte(sourcesJSON.String), &rep.Sources)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdStr); err == nil {
		rep.Created = t
	}
	return rep, nil
}
