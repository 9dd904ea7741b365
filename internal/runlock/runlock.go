// Package runlock keeps two engine runs from overlapping on one host.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("another run is already in progress")

type Lock struct {
	f *flock.Flock
}

// Acquire takes the lock file at path without waiting. ErrLocked means a run
// holds it; the caller should exit quietly.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	f := flock.New(path)
	ok, err := f.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{f: f}, nil
}

func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return l.f.Unlock()
}
