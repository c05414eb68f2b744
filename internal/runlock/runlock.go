// Package runlock serializes runs against one database with an advisory
// file lock, so overlapping invocations (cron plus a manual run) cannot
// interleave feed transactions.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrHeld indicates another process holds the run lock.
var ErrHeld = errors.New("another run is in progress")

// Lock is a held advisory lock.
type Lock struct {
	fl   *flock.Flock
	path string
}

// Acquire takes the run lock for the given log directory without blocking.
func Acquire(logDir string) (*Lock, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	path := filepath.Join(logDir, "turnstile.lock")
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock file %s)", ErrHeld, path)
	}
	return &Lock{fl: fl, path: path}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release drops the lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
