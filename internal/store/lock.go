package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RebuildLock is a cross-process file lock around index rebuilds.
// Correctness never depends on it: the atomic rename means concurrent
// rebuilds are safe, just wasteful. Holding the lock lets one process
// skip a rebuild another process is already doing.
type RebuildLock struct {
	path  string
	flock *flock.Flock
}

// NewRebuildLock creates a rebuild lock at the given path.
func NewRebuildLock(path string) *RebuildLock {
	return &RebuildLock{
		path:  path,
		flock: flock.New(path),
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if acquired, false if another process holds it.
func (l *RebuildLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire rebuild lock: %w", err)
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call when not held.
func (l *RebuildLock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release rebuild lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *RebuildLock) Path() string {
	return l.path
}
