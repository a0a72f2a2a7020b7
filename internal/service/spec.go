package service

import (
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Default bounds applied when a Spec leaves them zero.
const (
	DefaultStartTimeout = 5 * time.Second
	DefaultStopTimeout  = 5 * time.Second
	DefaultProbeTimeout = 2 * time.Second
)

// Spec describes one supervised singleton service. Specs are supplied by
// configuration and treated as immutable; runtime truth lives in the OS
// process and socket tables, never in the Spec.
type Spec struct {
	Name    string   `json:"name" mapstructure:"name"`
	Command string   `json:"command" mapstructure:"command"`
	WorkDir string   `json:"work_dir" mapstructure:"workdir"`
	Env     []string `json:"env" mapstructure:"env"`
	LogPath string   `json:"log_path" mapstructure:"log_path"` // stdout+stderr, append mode, never truncated
	RunDir  string   `json:"run_dir" mapstructure:"run_dir"`   // lock files live here

	// Liveness probes. Pattern defaults to Command when empty; Port and
	// HealthURL are optional.
	Pattern   string `json:"pattern" mapstructure:"pattern"`
	Port      int    `json:"port" mapstructure:"port"`
	HealthURL string `json:"health_url" mapstructure:"health_url"`

	StartTimeout time.Duration `json:"start_timeout" mapstructure:"start_timeout"`
	StopTimeout  time.Duration `json:"stop_timeout" mapstructure:"stop_timeout"`
	ProbeTimeout time.Duration `json:"probe_timeout" mapstructure:"probe_timeout"`
}

// MatchPattern returns the command-line substring used for process-table
// discovery.
func (s *Spec) MatchPattern() string {
	if p := strings.TrimSpace(s.Pattern); p != "" {
		return p
	}
	return strings.TrimSpace(s.Command)
}

// LockPath returns the advisory lock file path for this service.
func (s *Spec) LockPath() string {
	dir := s.RunDir
	if dir == "" {
		dir = "/tmp"
	}
	return filepath.Join(dir, s.Name+".lock")
}

func (s *Spec) StartDeadline() time.Duration { return durOr(s.StartTimeout, DefaultStartTimeout) }
func (s *Spec) StopDeadline() time.Duration  { return durOr(s.StopTimeout, DefaultStopTimeout) }
func (s *Spec) ProbeDeadline() time.Duration { return durOr(s.ProbeTimeout, DefaultProbeTimeout) }

func durOr(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

// BuildCommand constructs an *exec.Cmd for the spec's launch command.
// A shell is only involved when the command requires one: an explicit
// "sh -c" prefix is honored without double-wrapping, shell
// metacharacters force "/bin/sh -c", and a plain command is split into
// argv directly.
func (s *Spec) BuildCommand() *exec.Cmd {
	cmdStr := strings.TrimSpace(s.Command)
	if cmdStr == "" {
		// #nosec G204
		return exec.Command("/bin/true")
	}
	if afterC, ok := explicitShellArg(cmdStr); ok {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", afterC)
	}
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", cmdStr)
	}
	parts := strings.Fields(cmdStr)
	name := parts[0]
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// #nosec G204
	return exec.Command(name, args...)
}

// explicitShellArg detects a leading "sh -c <ARG>" (or an absolute shell
// path variant) and returns the argument with one pair of surrounding
// quotes stripped, so the script inside reaches the shell intact.
func explicitShellArg(cmdStr string) (string, bool) {
	trim := strings.TrimLeft(cmdStr, " \t")
	for _, p := range []string{"sh -c ", "/bin/sh -c ", "/usr/bin/sh -c "} {
		if !strings.HasPrefix(trim, p) {
			continue
		}
		after := trim[len(p):]
		if n := len(after); n >= 2 {
			if (after[0] == '\'' && after[n-1] == '\'') || (after[0] == '"' && after[n-1] == '"') {
				after = after[1 : n-1]
			}
		}
		return after, true
	}
	return "", false
}
