//go:build !windows

package supervisor

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/franklstreet-svg/twickell/internal/service"
)

func (hostOS) Terminate(pid int) error { return syscall.Kill(pid, syscall.SIGTERM) }

func (hostOS) Kill(pid int) error { return syscall.Kill(pid, syscall.SIGKILL) }

// Launch starts the command in its own session so it survives the
// supervisor's exit, with stdout/stderr appended to spec.LogPath.
func (hostOS) Launch(spec service.Spec, lk *Lock) (int, error) {
	cmd := spec.BuildCommand()
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	logFile, err := openAppendLog(spec.LogPath)
	if err != nil {
		return 0, err
	}
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if lk != nil && lk.File() != nil {
		// The child's duplicate of the flocked descriptor keeps the
		// lock held until the child exits.
		cmd.ExtraFiles = []*os.File{lk.File()}
	}
	if err := cmd.Start(); err != nil {
		_ = logFile.Close()
		return 0, err
	}
	pid := cmd.Process.Pid
	// The child owns its copies now.
	_ = logFile.Close()
	// Reap if the supervisor outlives the child (serve mode); a one-shot
	// CLI exits first and init reaps instead.
	go func() { _ = cmd.Wait() }()
	return pid, nil
}

// openAppendLog opens path for appending, creating parent directories as
// needed. The file is never truncated here: interleaved writers from an
// old and a new instance are acceptable, logs are diagnostic only.
func openAppendLog(path string) (*os.File, error) {
	if path == "" {
		return os.OpenFile(os.DevNull, os.O_RDWR, 0)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	// #nosec G302 G304
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
