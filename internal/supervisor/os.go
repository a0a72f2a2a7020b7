package supervisor

import (
	"context"
	"time"

	"github.com/franklstreet-svg/twickell/internal/probe"
	"github.com/franklstreet-svg/twickell/internal/service"
)

// OS is the capability surface the supervisor needs from the host:
// process discovery, liveness probing, signalling, and detached launch.
// Status/start/stop logic is written against this interface so it can be
// exercised with a fake in tests, without spawning real processes.
type OS interface {
	// FindPIDs returns PIDs whose command line contains pattern.
	FindPIDs(ctx context.Context, pattern string) ([]int, error)
	// ProcStartUnix returns the start time of pid as Unix seconds, 0 if unknown.
	ProcStartUnix(pid int) int64
	// PortBound reports whether a loopback TCP listener accepts connections.
	PortBound(ctx context.Context, port int, timeout time.Duration) bool
	// Healthy reports whether a GET to url succeeds within timeout.
	Healthy(ctx context.Context, url string, timeout time.Duration) bool
	// Terminate delivers a graceful termination signal to pid.
	Terminate(pid int) error
	// Kill force-terminates pid.
	Kill(pid int) error
	// Launch starts the spec's command detached from this session, with
	// stdout/stderr appended to spec.LogPath. On unix a non-nil lk's
	// descriptor is inherited by the child so the lock outlives the
	// launcher; Windows cannot transfer the lock, so there it only spans
	// the check-then-act window. Returns the child PID.
	Launch(spec service.Spec, lk *Lock) (int, error)
}

// Host returns the real OS implementation.
func Host() OS { return hostOS{} }

type hostOS struct{}

func (hostOS) FindPIDs(ctx context.Context, pattern string) ([]int, error) {
	return probe.PIDsMatching(ctx, pattern)
}

func (hostOS) ProcStartUnix(pid int) int64 { return probe.ProcStartUnix(pid) }

func (hostOS) PortBound(ctx context.Context, port int, timeout time.Duration) bool {
	return runProbe(ctx, probe.PortProbe{Port: port, Timeout: timeout})
}

func (hostOS) Healthy(ctx context.Context, url string, timeout time.Duration) bool {
	return runProbe(ctx, probe.HTTPProbe{URL: url, Timeout: timeout})
}

// runProbe evaluates a liveness probe; probe errors count as "not
// detected", matching the probes' own fact-not-error contract.
func runProbe(ctx context.Context, p probe.Probe) bool {
	ok, err := p.Check(ctx)
	return err == nil && ok
}
