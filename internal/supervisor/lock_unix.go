//go:build !windows

package supervisor

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
)

// TryAcquire opens (creating if needed) the lock file at path and takes
// an exclusive non-blocking flock on it. Returns ErrLocked when the lock
// is held elsewhere. The file is never removed; only the flock matters.
func TryAcquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	// #nosec G304
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, err
	}
	return &Lock{f: f}, nil
}
