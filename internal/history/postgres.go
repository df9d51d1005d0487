package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL. It mirrors
// the SQLite backend: one JSON document per row, transactional trim.
type PostgresStore struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewPostgresStore creates a PostgreSQL history store on an existing
// connection and ensures the schema exists.
func NewPostgresStore(db *sql.DB, logger *logrus.Logger) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createPostgresSchema(db); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{db: db, logger: logger}, nil
}

// NewPostgresStoreFromDSN creates a PostgreSQL history store from a
// connection string.
func NewPostgresStoreFromDSN(dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// createPostgresSchema creates the history table if it does not exist.
func createPostgresSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		recorded_at TIMESTAMPTZ NOT NULL,
		entry JSONB NOT NULL
	)`

	_, err := db.Exec(schema)
	return err
}

// List returns the persisted entries, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT entry FROM history ORDER BY seq DESC")
	if err != nil {
		return nil, domain.NewStorageError("read", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, domain.NewStorageError("scan", err)
		}

		var entry domain.HistoryEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			// An unreadable row is skipped, not fatal.
			s.logger.WithError(err).Warn("Skipping unreadable history row")
			continue
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("read", err)
	}
	return entries, nil
}

// Append inserts the entry and evicts rows beyond domain.MaxHistoryEntries in
// a single transaction.
func (s *PostgresStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return domain.NewStorageError("encode", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewStorageError("begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO history (id, recorded_at, entry) VALUES ($1, $2, $3)",
		entry.ID, entry.Timestamp, data,
	); err != nil {
		return domain.NewStorageError("insert", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM history WHERE seq NOT IN (
			SELECT seq FROM history ORDER BY seq DESC LIMIT $1
		)
	`, domain.MaxHistoryEntries); err != nil {
		return domain.NewStorageError("trim", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.NewStorageError("commit", err)
	}
	return nil
}

// Clear removes all persisted entries.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM history"); err != nil {
		return domain.NewStorageError("clear", err)
	}
	return nil
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
