//go:build !windows

package probe

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	gopsproc "github.com/shirou/gopsutil/v4/process"
	"github.com/tklauser/go-sysconf"
)

// pidsMatchingFast scans /proc directly on Linux, which avoids the cost
// of materializing every process through gopsutil. Returns ok=false on
// other platforms so the caller falls back to the portable path.
func pidsMatchingFast(pattern string) ([]int, bool) {
	if runtime.GOOS != "linux" {
		return nil, false
	}
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, false
	}
	self := os.Getpid()
	var out []int
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid == self {
			continue
		}
		b, err := os.ReadFile(filepath.Join("/proc", e.Name(), "cmdline"))
		if err != nil || len(b) == 0 {
			continue
		}
		// cmdline separates argv with NUL bytes
		cmdline := strings.ReplaceAll(string(bytes.TrimRight(b, "\x00")), "\x00", " ")
		if strings.Contains(cmdline, pattern) {
			out = append(out, pid)
		}
	}
	return out, true
}

// ProcStartUnix returns the start time of pid as Unix seconds, or 0 when
// unavailable. Used to report uptime and to distinguish a reused PID from
// the instance observed before a restart.
func ProcStartUnix(pid int) int64 {
	if pid <= 0 {
		return 0
	}
	if runtime.GOOS == "linux" {
		if ts := procStartUnixLinux(pid); ts > 0 {
			return ts
		}
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

func procStartUnixLinux(pid int) int64 {
	// starttime is field 22 of /proc/[pid]/stat, clock ticks since boot
	b, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return 0
	}
	line := string(b)
	end := strings.LastIndex(line, ") ")
	if end == -1 {
		return 0
	}
	parts := strings.Fields(strings.TrimSpace(line[end+2:]))
	if len(parts) < 20 {
		return 0
	}
	startTicks, err := strconv.ParseInt(parts[19], 10, 64)
	if err != nil || startTicks <= 0 {
		return 0
	}
	btime := bootTimeLinux()
	if btime == 0 {
		return 0
	}
	clk, err := sysconf.Sysconf(sysconf.SC_CLK_TCK)
	if err != nil || clk <= 0 {
		clk = 100
	}
	return btime + (startTicks / int64(clk))
}

func bootTimeLinux() int64 {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return 0
	}
	defer func() { _ = f.Close() }()
	s := bufio.NewScanner(f)
	for s.Scan() {
		text := s.Text()
		if strings.HasPrefix(text, "btime ") {
			if bt, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(text, "btime ")), 10, 64); err == nil {
				return bt
			}
		}
	}
	return 0
}
