//go:build windows

package supervisor

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/franklstreet-svg/twickell/internal/service"
)

func (hostOS) Terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

func (hostOS) Kill(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

// Launch starts the command detached from the current console so it
// survives the supervisor's exit. The lock is not passed down: os/exec
// rejects ExtraFiles on Windows, and a LockFileEx byte-range lock is
// released when the launcher closes its handle regardless, so here the
// lock only covers the check-then-act window inside Start.
func (hostOS) Launch(spec service.Spec, _ *Lock) (int, error) {
	cmd := spec.BuildCommand()
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x00000008, // DETACHED_PROCESS
	}
	logFile, err := openAppendLog(spec.LogPath)
	if err != nil {
		return 0, err
	}
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		_ = logFile.Close()
		return 0, err
	}
	pid := cmd.Process.Pid
	_ = logFile.Close()
	go func() { _ = cmd.Wait() }()
	return pid, nil
}

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
