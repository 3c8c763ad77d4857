// Package store provides an optional DuckDB audit database recording
// per-sample filter tables and final classifications, so a run's decision
// inputs can be queried after the fact.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/gofflab/Lincer-1/internal/classify"
	"github.com/gofflab/Lincer-1/internal/novel"
)

// Store manages a DuckDB connection for audit records.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create audit db directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sample_summaries (
		sample VARCHAR,
		transcript_id VARCHAR,
		length BIGINT,
		exons INTEGER,
		coverage DOUBLE,
		class_code VARCHAR,
		ref_id VARCHAR,
		ref_gene_id VARCHAR,
		passed BOOLEAN,
		PRIMARY KEY (sample, transcript_id)
	)`); err != nil {
		return err
	}

	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS classifications (
		transcript_id VARCHAR PRIMARY KEY,
		class_code_all VARCHAR,
		ref_id_all VARCHAR,
		ref_gene_id_all VARCHAR,
		class_code_lnc VARCHAR,
		ref_id_lnc VARCHAR,
		ref_gene_id_lnc VARCHAR,
		classification VARCHAR
	)`)
	return err
}

// appender creates a DuckDB appender for the named table.
func (s *Store) appender(table string, fn func(*goduckdb.Appender) error) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var app *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		app, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer app.Close()

	if err := fn(app); err != nil {
		return err
	}
	return app.Flush()
}

// WriteSampleRows batch-inserts one sample's pre-filter rows together
// with the filter outcome.
func (s *Store) WriteSampleRows(sampleName string, rows []novel.Row, keep map[string]bool) error {
	if len(rows) == 0 {
		return nil
	}

	return s.appender("sample_summaries", func(app *goduckdb.Appender) error {
		for _, r := range rows {
			if err := app.AppendRow(
				sampleName, r.TranscriptID,
				r.Length, int32(r.Exons), r.Coverage,
				r.ClassCode, r.RefID, r.RefGeneID,
				keep[r.TranscriptID],
			); err != nil {
				return fmt.Errorf("append sample summary: %w", err)
			}
		}
		return nil
	})
}

// WriteClassifications batch-inserts the classification table.
func (s *Store) WriteClassifications(records map[string]*classify.Record) error {
	if len(records) == 0 {
		return nil
	}

	return s.appender("classifications", func(app *goduckdb.Appender) error {
		for _, id := range classify.SortedIDs(records) {
			r := records[id]
			if err := app.AppendRow(
				id,
				r.VsRef.ClassCode, r.VsRef.RefID, r.VsRef.RefGeneID,
				r.VsLnc.ClassCode, r.VsLnc.RefID, r.VsLnc.RefGeneID,
				string(r.Label),
			); err != nil {
				return fmt.Errorf("append classification: %w", err)
			}
		}
		return nil
	})
}

// CountByClassification returns the number of transcripts per label.
func (s *Store) CountByClassification() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT classification, COUNT(*) FROM classifications GROUP BY classification`)
	if err != nil {
		return nil, fmt.Errorf("query classifications: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan classification count: %w", err)
		}
		counts[label] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classification counts: %w", err)
	}
	return counts, nil
}
