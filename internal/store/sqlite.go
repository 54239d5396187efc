// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps documents in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and creates the
// schema if it does not exist.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	return err
}

const sqliteUpsert = `INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET body=excluded.body, updated_at=excluded.updated_at`

// Get implements DocumentStore.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return []byte(body), nil
}

// Put implements DocumentStore.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	return s.PutAll(ctx, []Document{{Key: key, Value: value}})
}

// PutAll implements DocumentStore in one transaction.
func (s *SQLiteStore) PutAll(ctx context.Context, docs []Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, d := range docs {
		if _, err := tx.ExecContext(ctx, sqliteUpsert, d.Key, string(d.Value), now); err != nil {
			return fmt.Errorf("writing %s: %w", d.Key, err)
		}
	}
	return tx.Commit()
}

// Close implements DocumentStore.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
