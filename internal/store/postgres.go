// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool is the subset of *pgxpool.Pool used by PostgresStore.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore keeps documents as JSONB rows.
type PostgresStore struct {
	db PgxPool
}

const pgSchema = `CREATE TABLE IF NOT EXISTS documents (
	name TEXT PRIMARY KEY,
	body JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const pgUpsert = `INSERT INTO documents (name, body, updated_at) VALUES ($1, $2, now())
	ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`

// OpenPostgres connects to dsn and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	s := NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(db PgxPool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the documents table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Get implements DocumentStore.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRow(ctx, `SELECT body FROM documents WHERE name = $1`, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return body, nil
}

// Put implements DocumentStore.
func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.Exec(ctx, pgUpsert, key, string(value)); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// PutAll implements DocumentStore in one transaction.
func (s *PostgresStore) PutAll(ctx context.Context, docs []Document) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	for _, d := range docs {
		if _, err := tx.Exec(ctx, pgUpsert, d.Key, string(d.Value)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("writing %s: %w", d.Key, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Close implements DocumentStore.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
