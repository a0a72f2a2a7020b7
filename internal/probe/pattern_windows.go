//go:build windows

package probe

import (
	gopsproc "github.com/shirou/gopsutil/v4/process"
)

func pidsMatchingFast(_ string) ([]int, bool) { return nil, false }

// ProcStartUnix returns the start time of pid as Unix seconds, or 0 when
// unavailable.
func ProcStartUnix(pid int) int64 {
	if pid <= 0 {
		return 0
	}
	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return 0
	}
	ms, err := p.CreateTime()
	if err != nil || ms <= 0 {
		return 0
	}
	return ms / 1000
}
