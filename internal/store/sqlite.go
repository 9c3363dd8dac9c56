// ABOUTME: SQLite implementation of the SessionStore interface using modernc.org/sqlite
// ABOUTME: Provides session record persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the SessionStore interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS session_records (
			token      TEXT PRIMARY KEY,
			principal  BLOB NOT NULL,
			created_at TEXT NOT NULL,
			expires_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_session_records_expires
			ON session_records(expires_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// PutSessionRecord writes a session record, replacing any existing record
// for the same token. The replace keeps re-login with an unexpired token
// from failing on the primary key.
func (s *SQLiteStore) PutSessionRecord(ctx context.Context, rec *SessionRecord) error {
	query := `
		INSERT OR REPLACE INTO session_records (token, principal, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.Token,
		rec.Principal,
		rec.CreatedAt.UTC().Format(time.RFC3339),
		rec.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting session record: %w", err)
	}

	s.logger.Debug("stored session record", "expires_at", rec.ExpiresAt)
	return nil
}

// GetSessionRecord retrieves a valid (non-expired) session record.
// Returns ErrSessionRecordNotFound if the record doesn't exist or has expired.
func (s *SQLiteStore) GetSessionRecord(ctx context.Context, token string) (*SessionRecord, error) {
	query := `
		SELECT token, principal, created_at, expires_at
		FROM session_records
		WHERE token = ? AND expires_at > ?
	`

	var rec SessionRecord
	var createdAtStr, expiresAtStr string
	now := time.Now().UTC().Format(time.RFC3339)

	err := s.db.QueryRowContext(ctx, query, token, now).Scan(
		&rec.Token,
		&rec.Principal,
		&createdAtStr,
		&expiresAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session record: %w", err)
	}

	rec.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	rec.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}

	return &rec, nil
}

// DeleteSessionRecord deletes a session record. Deleting a record that
// doesn't exist is not an error, so logout stays idempotent.
func (s *SQLiteStore) DeleteSessionRecord(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM session_records WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("deleting session record: %w", err)
	}
	return nil
}

// DeleteExpiredSessionRecords removes all expired session records.
func (s *SQLiteStore) DeleteExpiredSessionRecords(ctx context.Context) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, "DELETE FROM session_records WHERE expires_at <= ?", now)
	if err != nil {
		return fmt.Errorf("deleting expired session records: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		s.logger.Debug("deleted expired session records", "count", rowsAffected)
	}
	return nil
}

// Ensure SQLiteStore implements SessionStore
var _ SessionStore = (*SQLiteStore)(nil)
