// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the paper set and run metadata. Backends implement
// a small document interface keyed by name; Repository layers the paper-set
// operations on top of any backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// Document keys.
const (
	KeyPapers = "papers"
	KeyMeta   = "meta"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is one named JSON value.
type Document struct {
	Key   string
	Value []byte
}

// DocumentStore reads and writes whole JSON documents by key.
type DocumentStore interface {
	// Get returns the stored bytes or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces one document.
	Put(ctx context.Context, key string, value []byte) error

	// PutAll replaces several documents in order. SQL backends commit them
	// in one transaction; the file backend replaces each file atomically.
	PutAll(ctx context.Context, docs []Document) error

	Close() error
}

// Load decodes the document at key into a T.
func Load[T any](ctx context.Context, s DocumentStore, key string) (T, error) {
	var v T
	data, err := s.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decoding %s: %w", key, err)
	}
	return v, nil
}

// Save encodes v as indented JSON and stores it at key.
func Save[T any](ctx context.Context, s DocumentStore, key string, v T) error {
	data, err := encode(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}

func encode(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Open returns the backend cfg selects.
func Open(ctx context.Context, cfg types.StoreConfig, log zerolog.Logger) (DocumentStore, error) {
	switch cfg.Backend {
	case types.StoreJSON, "":
		return NewFileStore(cfg, log), nil
	case types.StoreSQLite:
		s, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case types.StorePostgres:
		s, err := OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
