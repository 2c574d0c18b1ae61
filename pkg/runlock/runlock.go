// Package runlock keeps two sort runs from writing into the same destinations at once.
package runlock

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"
	"github.com/zeebo/blake3"
)

// ErrLocked is returned when another run holds the lock.
var ErrLocked = errors.New("another mediasort run is using these folders")

type Lock struct {
	path string
	fl   *flock.Flock
}

// Path returns the lock file location for roots inside dir. An empty dir
// means the OS temp directory. The order of roots does not matter.
func Path(dir string, roots ...string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	sorted := append([]string(nil), roots...)
	sort.Strings(sorted)

	h := blake3.New()
	for _, r := range sorted {
		_, _ = h.Write([]byte(filepath.Clean(r)))
		_, _ = h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return filepath.Join(dir, "mediasort-"+hex.EncodeToString(sum[:8])+".lock")
}

// Acquire takes the lock for roots without blocking.
func Acquire(dir string, roots ...string) (*Lock, error) {
	path := Path(dir, roots...)
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, path)
	}
	return &Lock{path: path, fl: fl}, nil
}

func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
