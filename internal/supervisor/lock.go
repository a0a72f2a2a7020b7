package supervisor

import (
	"errors"
	"os"
)

// ErrLocked is returned by TryAcquire when another holder owns the lock.
var ErrLocked = errors.New("lock already held")

// Lock is an exclusive advisory file lock whose lifetime tracks the
// supervised process rather than the supervisor. The flocked descriptor
// is passed to the launched child as an inherited file, so the kernel
// releases the lock exactly when the child (including a crashed child)
// exits, regardless of what happens to the supervisor.
//
// Acquisition is atomic across all callers: two concurrent Start
// invocations race on the flock, and the loser observes ErrLocked.
type Lock struct {
	f *os.File
}

// File exposes the locked descriptor for inheritance via exec.Cmd.ExtraFiles.
func (l *Lock) File() *os.File { return l.f }

// Release closes this process's descriptor. If a launched child holds an
// inherited duplicate, the lock stays held until that child exits.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

// Path returns the lock file path, or empty after Release.
func (l *Lock) Path() string {
	if l == nil || l.f == nil {
		return ""
	}
	return l.f.Name()
}
