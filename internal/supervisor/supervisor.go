package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/franklstreet-svg/twickell/internal/history"
	"github.com/franklstreet-svg/twickell/internal/metrics"
	"github.com/franklstreet-svg/twickell/internal/probe"
	"github.com/franklstreet-svg/twickell/internal/service"
)

// StartResult reports the outcome of a Start invocation.
type StartResult int

const (
	// AlreadyRunning means a live instance was found (or the singleton
	// lock was held) and nothing was launched.
	AlreadyRunning StartResult = iota
	// Started means a new instance was launched and became ready.
	Started
	// Failed means the launch did not produce a ready instance.
	Failed
)

func (r StartResult) String() string {
	switch r {
	case AlreadyRunning:
		return "ALREADY_RUNNING"
	case Started:
		return "STARTED"
	default:
		return "NOT_RUNNING"
	}
}

// ErrEnvironmentMissing marks an absent working-directory root. Every
// command treats it as a distinct precondition failure, reported as a
// sentinel rather than a process exit failure.
var ErrEnvironmentMissing = errors.New("environment root missing")

// EnsureRoot verifies the configured root directory exists.
func EnsureRoot(path string) error {
	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrEnvironmentMissing, path)
	}
	return nil
}

const defaultPollInterval = 100 * time.Millisecond

// Supervisor guarantees at most one running instance per service. State
// is never cached: every operation re-derives truth from the injected OS
// capability. Safe for concurrent use; the single-instance guarantee
// across concurrent Start calls rests on the flock in TryAcquire, not on
// any in-process synchronization.
type Supervisor struct {
	host OS
	log  *slog.Logger
	sink history.Sink
	poll time.Duration
}

func New() *Supervisor {
	return &Supervisor{host: Host(), log: slog.Default(), poll: defaultPollInterval}
}

// SetOS swaps the host capability, used by tests to inject a fake.
func (s *Supervisor) SetOS(h OS) { s.host = h }

func (s *Supervisor) SetLogger(l *slog.Logger) {
	if l != nil {
		s.log = l
	}
}

// SetHistory attaches a lifecycle-event sink. Passing nil detaches.
func (s *Supervisor) SetHistory(sink history.Sink) { s.sink = sink }

// SetPollInterval adjusts the readiness/stop polling interval.
func (s *Supervisor) SetPollInterval(d time.Duration) {
	if d > 0 {
		s.poll = d
	}
}

// Status derives a fresh Handle for spec. It never fails: facts that
// cannot be observed are reported absent.
func (s *Supervisor) Status(ctx context.Context, spec service.Spec) service.Handle {
	h := service.Handle{Name: spec.Name, Port: spec.Port}
	if pids, err := s.host.FindPIDs(ctx, spec.MatchPattern()); err == nil && len(pids) > 0 {
		h.PID = pids[0]
		h.Running = true
		h.DetectedBy = probe.PatternProbe{Pattern: spec.MatchPattern()}.Describe()
		h.StartedUnix = s.host.ProcStartUnix(h.PID)
	}
	if spec.Port > 0 {
		h.PortBound = s.host.PortBound(ctx, spec.Port, spec.ProbeDeadline())
		if h.PortBound && !h.Running {
			h.Running = true
			h.DetectedBy = probe.PortProbe{Port: spec.Port}.Describe()
		}
	}
	if spec.HealthURL != "" {
		if s.host.Healthy(ctx, spec.HealthURL, spec.ProbeDeadline()) {
			h.Health = service.HealthOK
		} else {
			h.Health = service.HealthUnreachable
		}
	}
	metrics.SetRunning(spec.Name, h.Running)
	return h
}

// Start launches spec's command unless an instance is already running.
// The check-then-act window is closed by the per-service flock: a
// concurrent Start that loses the lock reports AlreadyRunning instead of
// launching a duplicate. After a launch, readiness is polled until the
// start timeout; Failed means the process exited early or never
// satisfied its probes. Failures are not retried.
func (s *Supervisor) Start(ctx context.Context, spec service.Spec) (StartResult, error) {
	if s.alive(ctx, spec) {
		s.log.Info("start skipped, already running", "service", spec.Name)
		return AlreadyRunning, nil
	}
	lk, err := TryAcquire(spec.LockPath())
	if errors.Is(err, ErrLocked) {
		s.log.Info("start skipped, lock held", "service", spec.Name, "lock", spec.LockPath())
		return AlreadyRunning, nil
	}
	if err != nil {
		return Failed, fmt.Errorf("acquire lock for %s: %w", spec.Name, err)
	}
	// Only the parent's descriptor is closed here; a launched child keeps
	// the lock alive through its inherited duplicate.
	defer func() { _ = lk.Release() }()

	// Re-check under the lock: a concurrent Start may have finished
	// between the precondition probe and lock acquisition.
	if s.alive(ctx, spec) {
		return AlreadyRunning, nil
	}

	pid, err := s.host.Launch(spec, lk)
	if err != nil {
		metrics.IncStartFailure(spec.Name)
		s.record(history.EventStartFailed, spec.Name, 0, err.Error())
		return Failed, fmt.Errorf("launch %s: %w", spec.Name, err)
	}
	s.log.Info("launched", "service", spec.Name, "pid", pid)

	if !s.waitReady(ctx, spec) {
		metrics.IncStartFailure(spec.Name)
		s.record(history.EventStartFailed, spec.Name, pid, "not ready within start timeout")
		return Failed, fmt.Errorf("%s (pid %d) not ready within %s", spec.Name, pid, spec.StartDeadline())
	}
	metrics.IncStart(spec.Name)
	s.record(history.EventStart, spec.Name, pid, "")
	s.log.Info("started", "service", spec.Name, "pid", pid)
	return Started, nil
}

// Stop signals every matching instance and waits for the process table
// to reflect the change, escalating to a kill at the stop timeout.
// Absence of a match is a fact, not an error.
func (s *Supervisor) Stop(ctx context.Context, spec service.Spec) error {
	pids, err := s.host.FindPIDs(ctx, spec.MatchPattern())
	if err != nil {
		return fmt.Errorf("discover %s: %w", spec.Name, err)
	}
	if len(pids) == 0 {
		s.log.Info("stop skipped, not running", "service", spec.Name)
		return nil
	}
	for _, pid := range pids {
		_ = s.host.Terminate(pid)
	}
	s.log.Info("terminating", "service", spec.Name, "pids", pids)

	deadline := time.Now().Add(spec.StopDeadline())
	for time.Now().Before(deadline) {
		left, err := s.host.FindPIDs(ctx, spec.MatchPattern())
		if err == nil && len(left) == 0 {
			metrics.IncStop(spec.Name)
			s.record(history.EventStop, spec.Name, pids[0], "")
			return nil
		}
		if err := sleepCtx(ctx, s.poll); err != nil {
			return err
		}
	}
	// Graceful window elapsed; escalate.
	left, _ := s.host.FindPIDs(ctx, spec.MatchPattern())
	for _, pid := range left {
		_ = s.host.Kill(pid)
	}
	if len(left) > 0 {
		s.log.Warn("escalated to kill", "service", spec.Name, "pids", left)
	}
	metrics.IncStop(spec.Name)
	s.record(history.EventStop, spec.Name, pids[0], "killed after stop timeout")
	return nil
}

// Restart composes Stop then Start sequentially.
func (s *Supervisor) Restart(ctx context.Context, spec service.Spec) (StartResult, error) {
	if err := s.Stop(ctx, spec); err != nil {
		return Failed, err
	}
	return s.Start(ctx, spec)
}

// alive is the cheap precondition probe for Start: a matching process or
// a bound service port counts as running.
func (s *Supervisor) alive(ctx context.Context, spec service.Spec) bool {
	if pids, err := s.host.FindPIDs(ctx, spec.MatchPattern()); err == nil && len(pids) > 0 {
		return true
	}
	if spec.Port > 0 && s.host.PortBound(ctx, spec.Port, spec.ProbeDeadline()) {
		return true
	}
	return false
}

// waitReady polls until the launched service satisfies its probes or the
// start timeout elapses. With a port configured the port must be bound;
// otherwise a process-table match suffices.
func (s *Supervisor) waitReady(ctx context.Context, spec service.Spec) bool {
	deadline := time.Now().Add(spec.StartDeadline())
	for {
		if spec.Port > 0 {
			if s.host.PortBound(ctx, spec.Port, s.poll) {
				return true
			}
		} else if pids, err := s.host.FindPIDs(ctx, spec.MatchPattern()); err == nil && len(pids) > 0 {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		if err := sleepCtx(ctx, s.poll); err != nil {
			return false
		}
	}
}

func (s *Supervisor) record(typ history.EventType, name string, pid int, detail string) {
	if s.sink == nil {
		return
	}
	cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	e := history.Event{Type: typ, OccurredAt: time.Now(), Service: name, PID: pid, Detail: detail}
	if err := s.sink.Send(cctx, e); err != nil {
		s.log.Warn("history send failed", "service", name, "err", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
