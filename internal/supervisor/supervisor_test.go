package supervisor

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/franklstreet-svg/twickell/internal/service"
)

// fakeOS simulates the process and socket tables in memory so the
// supervisor logic can be exercised without spawning anything.
type fakeOS struct {
	mu          sync.Mutex
	nextPID     int
	procs       map[int]service.Spec // pid -> spec it was launched from
	ports       map[int]bool
	healthy     map[string]bool
	launches    int
	launchDelay time.Duration
	launchDead  bool // launched process exits immediately
	ignoreTerm  bool // SIGTERM has no effect, only Kill works
	termed      []int
	killed      []int
}

func newFakeOS() *fakeOS {
	return &fakeOS{
		nextPID: 1000,
		procs:   make(map[int]service.Spec),
		ports:   make(map[int]bool),
		healthy: make(map[string]bool),
	}
}

func (f *fakeOS) FindPIDs(_ context.Context, pattern string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for pid, sp := range f.procs {
		if strings.Contains(sp.Command, pattern) || strings.Contains(sp.Pattern, pattern) {
			out = append(out, pid)
		}
	}
	return out, nil
}

func (f *fakeOS) ProcStartUnix(pid int) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.procs[pid]; ok {
		return time.Now().Unix() - 5
	}
	return 0
}

func (f *fakeOS) PortBound(_ context.Context, port int, _ time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ports[port]
}

func (f *fakeOS) Healthy(_ context.Context, url string, _ time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthy[url]
}

func (f *fakeOS) Terminate(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.termed = append(f.termed, pid)
	if !f.ignoreTerm {
		f.removeLocked(pid)
	}
	return nil
}

func (f *fakeOS) Kill(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killed = append(f.killed, pid)
	f.removeLocked(pid)
	return nil
}

func (f *fakeOS) removeLocked(pid int) {
	if sp, ok := f.procs[pid]; ok {
		if sp.Port > 0 {
			f.ports[sp.Port] = false
		}
		delete(f.procs, pid)
	}
}

func (f *fakeOS) Launch(spec service.Spec, _ *Lock) (int, error) {
	if f.launchDelay > 0 {
		time.Sleep(f.launchDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launches++
	f.nextPID++
	pid := f.nextPID
	if !f.launchDead {
		f.procs[pid] = spec
		if spec.Port > 0 {
			f.ports[spec.Port] = true
		}
	}
	return pid, nil
}

func newTestSupervisor(t *testing.T, f *fakeOS) (*Supervisor, service.Spec) {
	t.Helper()
	s := New()
	s.SetOS(f)
	s.SetPollInterval(5 * time.Millisecond)
	spec := service.Spec{
		Name:         "worker",
		Command:      "python3 workers/queue_worker.py",
		Pattern:      "queue_worker.py",
		RunDir:       t.TempDir(),
		StartTimeout: 300 * time.Millisecond,
		StopTimeout:  100 * time.Millisecond,
	}
	return s, spec
}

func TestStartThenAlreadyRunning(t *testing.T) {
	f := newFakeOS()
	s, spec := newTestSupervisor(t, f)
	ctx := context.Background()

	res, err := s.Start(ctx, spec)
	if err != nil || res != Started {
		t.Fatalf("first start: res=%v err=%v", res, err)
	}
	res, err = s.Start(ctx, spec)
	if err != nil || res != AlreadyRunning {
		t.Fatalf("second start: res=%v err=%v", res, err)
	}
	if f.launches != 1 {
		t.Fatalf("expected exactly one launch, got %d", f.launches)
	}
	if h := s.Status(ctx, spec); !h.Running || h.PID == 0 {
		t.Fatalf("status after start: %+v", h)
	}
}

func TestStartFailedWhenProcessDiesImmediately(t *testing.T) {
	f := newFakeOS()
	f.launchDead = true
	s, spec := newTestSupervisor(t, f)

	res, err := s.Start(context.Background(), spec)
	if res != Failed {
		t.Fatalf("expected Failed, got %v err=%v", res, err)
	}
	if err == nil {
		t.Fatalf("expected a descriptive error for a failed launch")
	}
}

func TestStopIdempotentOnAbsent(t *testing.T) {
	f := newFakeOS()
	s, spec := newTestSupervisor(t, f)

	if err := s.Stop(context.Background(), spec); err != nil {
		t.Fatalf("stop on absent service: %v", err)
	}
	if len(f.termed) != 0 || len(f.killed) != 0 {
		t.Fatalf("no signals expected, got term=%v kill=%v", f.termed, f.killed)
	}
}

func TestStopTerminatesGracefully(t *testing.T) {
	f := newFakeOS()
	s, spec := newTestSupervisor(t, f)
	ctx := context.Background()

	if res, err := s.Start(ctx, spec); err != nil || res != Started {
		t.Fatalf("start: res=%v err=%v", res, err)
	}
	if err := s.Stop(ctx, spec); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(f.termed) != 1 {
		t.Fatalf("expected one SIGTERM, got %v", f.termed)
	}
	if len(f.killed) != 0 {
		t.Fatalf("graceful stop must not kill, got %v", f.killed)
	}
	if h := s.Status(ctx, spec); h.Running {
		t.Fatalf("expected stopped, got %+v", h)
	}
}

func TestStopEscalatesToKill(t *testing.T) {
	f := newFakeOS()
	f.ignoreTerm = true
	s, spec := newTestSupervisor(t, f)
	ctx := context.Background()

	if res, err := s.Start(ctx, spec); err != nil || res != Started {
		t.Fatalf("start: res=%v err=%v", res, err)
	}
	if err := s.Stop(ctx, spec); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(f.killed) != 1 {
		t.Fatalf("expected kill escalation, got %v", f.killed)
	}
	if h := s.Status(ctx, spec); h.Running {
		t.Fatalf("expected stopped after kill, got %+v", h)
	}
}

func TestRestartYieldsNewPID(t *testing.T) {
	f := newFakeOS()
	s, spec := newTestSupervisor(t, f)
	ctx := context.Background()

	if res, _ := s.Start(ctx, spec); res != Started {
		t.Fatalf("start: %v", res)
	}
	before := s.Status(ctx, spec)

	res, err := s.Restart(ctx, spec)
	if err != nil || res != Started {
		t.Fatalf("restart: res=%v err=%v", res, err)
	}
	after := s.Status(ctx, spec)
	if !after.Running || after.PID == before.PID {
		t.Fatalf("expected new pid, before=%+v after=%+v", before, after)
	}
}

func TestStatusPortAndHealth(t *testing.T) {
	f := newFakeOS()
	s, spec := newTestSupervisor(t, f)
	spec.Name = "api"
	spec.Command = "uvicorn app.app:app"
	spec.Pattern = "uvicorn app.app"
	spec.Port = 8100
	spec.HealthURL = "http://127.0.0.1:8100/health"
	ctx := context.Background()

	h := s.Status(ctx, spec)
	if h.Running || h.PortBound || h.Health != service.HealthUnreachable {
		t.Fatalf("expected all-absent status, got %+v", h)
	}

	if res, _ := s.Start(ctx, spec); res != Started {
		t.Fatalf("start: %v", res)
	}
	f.mu.Lock()
	f.healthy[spec.HealthURL] = true
	f.mu.Unlock()

	h = s.Status(ctx, spec)
	if !h.Running || !h.PortBound || h.Health != service.HealthOK || h.DetectedBy != "pattern:uvicorn app.app" {
		t.Fatalf("unexpected status: %+v", h)
	}
}

func TestStatusDetectsByPortWhenPatternMisses(t *testing.T) {
	f := newFakeOS()
	s, spec := newTestSupervisor(t, f)
	spec.Port = 8100
	f.mu.Lock()
	f.ports[8100] = true
	f.mu.Unlock()

	h := s.Status(context.Background(), spec)
	if !h.Running || h.DetectedBy != "port:8100" || h.PID != 0 {
		t.Fatalf("expected port-detected running, got %+v", h)
	}
}

func TestConcurrentStartLaunchesOnce(t *testing.T) {
	f := newFakeOS()
	f.launchDelay = 30 * time.Millisecond
	s, spec := newTestSupervisor(t, f)
	ctx := context.Background()

	results := make([]StartResult, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, _ := s.Start(ctx, spec)
			results[i] = res
		}(i)
	}
	wg.Wait()

	if f.launches != 1 {
		t.Fatalf("singleton violated: %d launches", f.launches)
	}
	started := 0
	for _, r := range results {
		if r == Started {
			started++
		} else if r != AlreadyRunning {
			t.Fatalf("unexpected result %v", r)
		}
	}
	if started != 1 {
		t.Fatalf("expected exactly one Started, got %d (%v)", started, results)
	}
}

func TestEnsureRoot(t *testing.T) {
	if err := EnsureRoot(t.TempDir()); err != nil {
		t.Fatalf("existing root: %v", err)
	}
	err := EnsureRoot(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatalf("expected error for absent root")
	}
}
