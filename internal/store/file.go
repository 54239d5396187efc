// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pdiddy/arxiv-radar/internal/observability"
	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// FileStore keeps each document in <dir>/<key>.json. In read-only mode
// writes go to the overlay directory and reads prefer it, falling back to
// the data directory.
type FileStore struct {
	dataDir    string
	overlayDir string
	readOnly   bool
	log        zerolog.Logger
}

// NewFileStore creates a file store from cfg. Directories are created on
// first write.
func NewFileStore(cfg types.StoreConfig, log zerolog.Logger) *FileStore {
	return &FileStore{
		dataDir:    cfg.DataDir,
		overlayDir: cfg.OverlayDir,
		readOnly:   cfg.ReadOnly,
		log:        observability.Component(log, "store"),
	}
}

func fileName(key string) string { return key + ".json" }

// readDirs lists the directories searched by Get, in order.
func (s *FileStore) readDirs() []string {
	if s.readOnly && s.overlayDir != "" {
		return []string{s.overlayDir, s.dataDir}
	}
	return []string{s.dataDir}
}

func (s *FileStore) writeDir() string {
	if s.readOnly {
		return s.overlayDir
	}
	return s.dataDir
}

// Get implements DocumentStore.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	for _, dir := range s.readDirs() {
		data, err := os.ReadFile(filepath.Join(dir, fileName(key)))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
	}
	return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
}

// Put implements DocumentStore.
func (s *FileStore) Put(_ context.Context, key string, value []byte) error {
	dir := s.writeDir()
	if dir == "" {
		return fmt.Errorf("writing %s: no writable directory configured", key)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, fileName(key))
	if err := writeFileAtomic(path, value); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	s.log.Debug().Str("path", path).Int("bytes", len(value)).Msg("document written")
	return nil
}

// PutAll implements DocumentStore. Each file is replaced atomically, in
// order; a failure stops before later documents are touched.
func (s *FileStore) PutAll(ctx context.Context, docs []Document) error {
	for _, d := range docs {
		if err := s.Put(ctx, d.Key, d.Value); err != nil {
			return err
		}
	}
	return nil
}

// Close implements DocumentStore.
func (s *FileStore) Close() error { return nil }

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
