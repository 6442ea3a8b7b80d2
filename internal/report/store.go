// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report ingests annotation ledgers into a SQLite database and
// computes per-category aggregate statistics from them.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/impact-observatory/internal/ledger"
	"github.com/pdiddy/impact-observatory/pkg/types"
)

const (
	analysisDir = "analysis"
	dbFile      = "impact.db"
)

// Store manages the analysis SQLite database under the pipeline output
// directory.
type Store struct {
	db        *sql.DB
	outputDir string
	topN      int
}

// NewStore opens or creates the analysis database at
// outputDir/analysis/impact.db, creating the schema if needed.
func NewStore(cfg types.ReportConfig) (*Store, error) {
	dir := filepath.Join(cfg.OutputDir, analysisDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating analysis directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	topN := cfg.TopN
	if topN <= 0 {
		topN = 20
	}

	s := &Store{db: db, outputDir: cfg.OutputDir, topN: topN}

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
		// One row per (document, category, mode). Document ids are only
		// unique within a category; a cross-listed paper may appear in
		// several category corpora. A ledger can carry duplicate records
		// for a document after a crash resume; the replace keeps the
		// last one, matching append order.
		`CREATE TABLE IF NOT EXISTS annotations (
			doc_id TEXT NOT NULL,
			category TEXT NOT NULL,
			mode TEXT NOT NULL,
			year INTEGER,
			fields TEXT NOT NULL,
			extracted_at TEXT,
			PRIMARY KEY (doc_id, category, mode)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_category ON annotations(mode, category)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			ledger TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from one ledger ingestion run.
type IngestSummary struct {
	Ingested int
	Updated  int
	Skipped  int
	Failed   int
}

// Total returns the number of ledger files processed.
func (s IngestSummary) Total() int {
	return s.Ingested + s.Updated + s.Skipped + s.Failed
}

// Ingest loads every category ledger of one mode into the database. It
// detects new, changed, and unchanged ledger files by modification time,
// so re-running after an annotation run only reads what changed.
func (s *Store) Ingest(ctx context.Context, mode string, w io.Writer) (IngestSummary, error) {
	ledgerDir := filepath.Join(s.outputDir, mode)

	entries, err := os.ReadDir(ledgerDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading ledger directory %s: %w", ledgerDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ledger.FileSuffix) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		category := strings.TrimSuffix(entry.Name(), ledger.FileSuffix)
		key := mode + "/" + entry.Name()

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", category, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE ledger = ?`, key,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", category)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		n, err := s.ingestLedger(ctx, ledgerDir, category, mode, key, modTime, isUpdate)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", category, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d records)\n", category, n)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "ingested %s (%d records)\n", category, n)
			summary.Ingested++
		}
	}

	fmt.Fprintf(w, "\ningested: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Ingested, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestLedger(ctx context.Context, ledgerDir, category, mode, key, modTime string, isUpdate bool) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM annotations WHERE category = ? AND mode = ?`, category, mode); err != nil {
			return 0, fmt.Errorf("deleting old records: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO annotations (doc_id, category, mode, year, fields, extracted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	err = ledger.Read(ledgerDir, category, func(res types.AnnotationResult) error {
		var year any
		if res.Year.Known {
			year = res.Year.Value
		}
		_, err := stmt.ExecContext(ctx,
			res.DocumentID, category, mode, year,
			string(res.Fields), res.ExtractedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", res.DocumentID, err)
		}
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_status (ledger, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(ledger) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		key, modTime,
	)
	if err != nil {
		return 0, fmt.Errorf("updating ingest status: %w", err)
	}

	return count, tx.Commit()
}
