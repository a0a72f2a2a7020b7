package probe

import (
	"context"
	"os"
	"strings"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// PatternProbe detects a service by scanning the OS process table for a
// command-line substring. The supervisor's own process is excluded so a
// pattern matching the launch command never matches the launcher.
type PatternProbe struct{ Pattern string }

func (p PatternProbe) Check(ctx context.Context) (bool, error) {
	pids, err := PIDsMatching(ctx, p.Pattern)
	if err != nil {
		return false, err
	}
	return len(pids) > 0, nil
}

func (p PatternProbe) Describe() string { return "pattern:" + p.Pattern }

// PIDsMatching returns the PIDs of all processes whose command line
// contains pattern, excluding the calling process. An empty pattern
// matches nothing.
func PIDsMatching(ctx context.Context, pattern string) ([]int, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, nil
	}
	if pids, ok := pidsMatchingFast(pattern); ok {
		return pids, nil
	}
	procs, err := gopsproc.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	self := os.Getpid()
	var out []int
	for _, pr := range procs {
		if int(pr.Pid) == self {
			continue
		}
		cmdline, err := pr.CmdlineWithContext(ctx)
		if err != nil || cmdline == "" {
			continue
		}
		if strings.Contains(cmdline, pattern) {
			out = append(out, int(pr.Pid))
		}
	}
	return out, nil
}
