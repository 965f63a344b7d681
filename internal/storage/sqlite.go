package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/icdlookup/internal/catalog"
	"github.com/hyperjump/icdlookup/internal/models"
)

// SQLiteStore implements CodeStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	dsn, err := sqliteDSN(dbPath, "")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// OpenSQLiteStoreReadOnly opens an existing code database without creating or migrating it.
func OpenSQLiteStoreReadOnly(dbPath string) (*SQLiteStore, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	dsn, err := sqliteDSN(dbPath, "mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// sqliteDSN builds a file: URI for dbPath. The driver splits a DSN at its
// first '?', so '?', '#' and '%' in the path must be percent-escaped.
func sqliteDSN(dbPath, query string) (string, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: query}
	return u.String(), nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS icd_codes (
		code TEXT PRIMARY KEY,
		normalized_code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_icd_codes_position ON icd_codes(position);

	CREATE TABLE IF NOT EXISTS catalog_imports (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_catalog_imports_created_at ON catalog_imports(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplaceCodes deletes every stored code and writes records in one transaction,
// keeping their order. Malformed records and repeated normalized codes are skipped;
// the first occurrence of a code wins.
func (s *SQLiteStore) ReplaceCodes(ctx context.Context, records []models.Record) (ReplaceResult, error) {
	var res ReplaceResult
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM icd_codes`); err != nil {
		return res, fmt.Errorf("failed to clear codes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO icd_codes (code, normalized_code, description, position)
		 VALUES (?, ?, ?, ?)`)
	if err != nil {
		return res, err
	}
	defer stmt.Close()

	for _, r := range records {
		norm := catalog.NormalizeCode(r.Code)
		if !r.Valid() || norm == "" {
			res.Invalid++
			continue
		}
		result, err := stmt.ExecContext(ctx, strings.TrimSpace(r.Code), norm, strings.TrimSpace(r.Desc), res.Written)
		if err != nil {
			return ReplaceResult{}, fmt.Errorf("failed to insert code %s: %w", r.Code, err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			res.Duplicates++
			continue
		}
		res.Written++
	}

	if err := tx.Commit(); err != nil {
		return ReplaceResult{}, err
	}
	return res, nil
}

// ListCodes returns every stored code in import order.
func (s *SQLiteStore) ListCodes(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, description FROM icd_codes ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Record
	for rows.Next() {
		var r models.Record
		if err := rows.Scan(&r.Code, &r.Desc); err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// GetCode returns the stored record for code, matching on the normalized form.
func (s *SQLiteStore) GetCode(ctx context.Context, code string) (*models.Record, error) {
	var r models.Record
	err := s.db.QueryRowContext(ctx,
		`SELECT code, description FROM icd_codes WHERE normalized_code = ?`,
		catalog.NormalizeCode(code),
	).Scan(&r.Code, &r.Desc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("code %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CountCodes returns the number of stored codes.
func (s *SQLiteStore) CountCodes(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM icd_codes").Scan(&n)
	return n, err
}

// CreateImport records an import run. ID and CreatedAt are filled in when empty.
func (s *SQLiteStore) CreateImport(ctx context.Context, run *models.ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO catalog_imports (id, source, record_count, skipped, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.RecordCount, run.Skipped, run.CreatedAt,
	)
	return err
}

// ListImports returns the most recent import runs, newest first.
func (s *SQLiteStore) ListImports(ctx context.Context, limit int) ([]*models.ImportRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, record_count, skipped, created_at
		 FROM catalog_imports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.ImportRun
	for rows.Next() {
		var run models.ImportRun
		if err := rows.Scan(&run.ID, &run.Source, &run.RecordCount, &run.Skipped, &run.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &run)
	}
	return list, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
