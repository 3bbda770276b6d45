// Package store persists the inverted index to disk and loads it back.
//
// Writes are atomic: the index is fully written to a temporary file in
// the same directory and renamed into place, so a concurrent reader
// sees either the old index or the new one, never a partial write.
// A corrupt or incompatible file on load is treated as absent, which
// makes the caller rebuild rather than serve a wrong answer.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/renameio"

	derrors "github.com/docdex/docdex/internal/errors"
	"github.com/docdex/docdex/internal/index"
)

// ErrNotFound indicates no usable index exists at the store path.
// Corrupt and version-incompatible files load as ErrNotFound.
var ErrNotFound = errors.New("index not found")

// Store persists and loads the index at a fixed path.
type Store struct {
	path   string
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a store for the index file at path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the index file path.
func (s *Store) Path() string {
	return s.path
}

// Save persists the index atomically: serialize, write to a temporary
// file in the target directory, fsync, rename into place.
func (s *Store) Save(idx *index.Index) error {
	if err := idx.Validate(); err != nil {
		return fmt.Errorf("refusing to persist invalid index: %w", err)
	}

	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	s.logger.Debug("index_saved",
		slog.String("path", s.path),
		slog.Int("fragments", idx.N),
		slog.Int("bytes", len(data)))

	return nil
}

// Load reads the persisted index. A missing file returns ErrNotFound.
// An unreadable, unparseable, version-incompatible, or invariant-
// violating file is logged and also returned as ErrNotFound so the
// caller rebuilds instead of trusting partial state.
func (s *Store) Load() (*index.Index, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		s.logger.Warn("index_unreadable",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var idx index.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		s.logger.Warn("index_corrupt",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrNotFound,
			derrors.IndexCorruptError("index file is not valid JSON", err))
	}

	if err := idx.Validate(); err != nil {
		s.logger.Warn("index_invalid",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrNotFound,
			derrors.IndexCorruptError("index file violates invariants", err))
	}

	return &idx, nil
}

// IsStale reports whether the index was built from a different corpus
// version than the current checksum.
func (s *Store) IsStale(idx *index.Index, currentChecksum string) bool {
	return idx == nil || idx.Checksum != currentChecksum
}
