// Package metastore loads and saves directory sidecar metadata.
package metastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"

	"github.com/ngenohkevin/tagdeck/internal/cache"
	"github.com/ngenohkevin/tagdeck/internal/entry"
	"github.com/ngenohkevin/tagdeck/internal/logging"
)

// FileStore reads and writes files of the current location
type FileStore interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	DirSeparator() string
}

// Store caches directory metadata read through a FileStore
type Store struct {
	files      FileStore
	metaFolder string
	cache      *cache.Cache[*entry.DirectoryMeta]
}

// New creates a store. Cached metadata expires after ttl.
func New(files FileStore, metaFolder string, ttl time.Duration) *Store {
	return &Store{
		files:      files,
		metaFolder: metaFolder,
		cache:      cache.New[*entry.DirectoryMeta](ttl),
	}
}

// Close stops the cache janitor
func (s *Store) Close() {
	s.cache.Close()
}

// LoadDirectoryMeta returns the sidecar metadata of dir, nil when dir has
// none. A broken sidecar file is an error.
func (s *Store) LoadDirectoryMeta(ctx context.Context, dir string) (*entry.DirectoryMeta, error) {
	if meta, ok := s.cache.Get(dir); ok {
		return meta.Clone(), nil
	}

	path := entry.MetaFileLocationForDir(dir, s.files.DirSeparator(), s.metaFolder)
	data, err := s.files.ReadFile(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var meta entry.DirectoryMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	s.cache.Set(dir, &meta)
	return meta.Clone(), nil
}

// SaveDirectoryMeta writes the sidecar metadata of dir, assigning an id
// when it has none.
func (s *Store) SaveDirectoryMeta(ctx context.Context, dir string, meta *entry.DirectoryMeta) (*entry.DirectoryMeta, error) {
	if meta == nil {
		return nil, fmt.Errorf("metadata is required")
	}
	out := meta.Clone()
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	path := entry.MetaFileLocationForDir(dir, s.files.DirSeparator(), s.metaFolder)
	if err := s.files.WriteFile(ctx, path, data); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	s.cache.Set(dir, out.Clone())
	logging.Debug("directory metadata saved", logging.String("path", path))
	return out, nil
}

// Invalidate drops the cached metadata of dir
func (s *Store) Invalidate(dir string) {
	s.cache.Delete(dir)
}

// Reset drops all cached metadata, used when the location changes
func (s *Store) Reset() {
	s.cache.Clear()
}
