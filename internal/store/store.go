// Package store persists finished audit results in SQLite so past batches
// stay queryable after the process exits. A file lock on the data directory
// keeps concurrent CLI invocations from interleaving writes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"call-audit-go/internal/domain"
)

// ErrNotFound is returned by Get when no result exists for the call id.
var ErrNotFound = errors.New("audit result not found")

// Store manages audit result persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the results database under dataDir and
// applies migrations. The directory lock is held until Close.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, "audit.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire data dir lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another audit process holds the data directory")
	}

	dbPath := filepath.Join(dataDir, "results.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: dbPath, lock: lock}
	if err := s.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection and releases the directory lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var dbErr error
	if s.db != nil {
		dbErr = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && dbErr == nil {
			dbErr = err
		}
	}
	return dbErr
}

func (s *Store) applyMigrations(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
            version INTEGER NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS audit_results (
            call_id TEXT PRIMARY KEY,
            filename TEXT NOT NULL,
            batch_id TEXT,
            status TEXT NOT NULL,
            depth TEXT NOT NULL,
            qa_score REAL,
            risk_severity TEXT,
            critical_findings INTEGER NOT NULL DEFAULT 0,
            error_message TEXT,
            result_json TEXT NOT NULL,
            created_at TEXT NOT NULL,
            stored_at TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_audit_results_status ON audit_results(status)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_results_batch ON audit_results(batch_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if count == 0 {
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (1)`); err != nil {
			return fmt.Errorf("seed schema version: %w", err)
		}
	}
	return nil
}

// Save upserts one result keyed by call id. Re-saving the same call id
// replaces the previous row, which makes retried runs idempotent.
func (s *Store) Save(ctx context.Context, batchID string, result *domain.AuditResult) error {
	if result == nil || result.Call == nil {
		return errors.New("result must carry a call")
	}
	doc, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	var qaScore any
	if qa := result.QAScore(); qa != nil {
		qaScore = *qa
	}
	var riskSeverity any
	if result.Risk != nil {
		riskSeverity = string(result.Risk.Severity)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO audit_results (
            call_id, filename, batch_id, status, depth, qa_score,
            risk_severity, critical_findings, error_message, result_json,
            created_at, stored_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(call_id) DO UPDATE SET
            filename = excluded.filename,
            batch_id = excluded.batch_id,
            status = excluded.status,
            depth = excluded.depth,
            qa_score = excluded.qa_score,
            risk_severity = excluded.risk_severity,
            critical_findings = excluded.critical_findings,
            error_message = excluded.error_message,
            result_json = excluded.result_json,
            stored_at = excluded.stored_at`,
		result.Call.ID,
		result.Call.Filename,
		nullableString(batchID),
		string(result.Call.Status),
		string(result.Call.Depth),
		qaScore,
		riskSeverity,
		len(result.CriticalFindings()),
		nullableString(result.Call.ErrorMessage),
		string(doc),
		result.Call.CreatedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save result %s: %w", result.Call.ID, err)
	}
	return nil
}

// Get fetches one result by call id.
func (s *Store) Get(ctx context.Context, callID string) (*domain.AuditResult, error) {
	var doc string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT result_json FROM audit_results WHERE call_id = ?`,
		callID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, callID)
	}
	if err != nil {
		return nil, fmt.Errorf("get result %s: %w", callID, err)
	}
	return decodeResult(doc)
}

// Filter narrows Query. Zero values mean no constraint.
type Filter struct {
	BatchID      string
	Status       domain.CallStatus
	RiskSeverity domain.FindingSeverity
	Limit        int
}

// Query returns stored results newest first, filtered by the non-zero
// filter fields.
func (s *Store) Query(ctx context.Context, f Filter) ([]*domain.AuditResult, error) {
	var (
		clauses []string
		args    []any
	)
	if f.BatchID != "" {
		clauses = append(clauses, "batch_id = ?")
		args = append(args, f.BatchID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.RiskSeverity != "" {
		clauses = append(clauses, "risk_severity = ?")
		args = append(args, string(f.RiskSeverity))
	}

	query := `SELECT result_json FROM audit_results`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY stored_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []*domain.AuditResult
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		r, err := decodeResult(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func decodeResult(doc string) (*domain.AuditResult, error) {
	var r domain.AuditResult
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("decode stored result: %w", err)
	}
	return &r, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
