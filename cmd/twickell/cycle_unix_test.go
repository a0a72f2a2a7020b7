//go:build !windows

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestCLICycle drives status/start/start/stop against a real child
// process and checks the singleton guarantee end to end.
func TestCLICycle(t *testing.T) {
	root := t.TempDir()
	marker := "4.6213975"
	body := `
root = "` + root + `"

[[services]]
name = "worker"
command = "sleep ` + marker + `"
pattern = "sleep ` + marker + `"
start_timeout = "3s"
stop_timeout = "3s"
probe_timeout = "200ms"
`
	cfgPath := filepath.Join(root, "twickell.toml")
	if err := os.WriteFile(cfgPath, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := runCommand(t, cfgPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "worker process: NOT_RUNNING") {
		t.Fatalf("fresh status should be NOT_RUNNING:\n%s", out)
	}

	out, err = runCommand(t, cfgPath, "start")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !strings.Contains(out, "worker: STARTED") {
		t.Fatalf("expected STARTED:\n%s", out)
	}

	out, err = runCommand(t, cfgPath, "start")
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !strings.Contains(out, "worker: ALREADY_RUNNING") {
		t.Fatalf("second start must be idempotent:\n%s", out)
	}

	out, err = runCommand(t, cfgPath, "status")
	if err != nil {
		t.Fatalf("status while running: %v", err)
	}
	if !strings.Contains(out, "worker process: RUNNING") {
		t.Fatalf("expected RUNNING:\n%s", out)
	}

	out, err = runCommand(t, cfgPath, "stop")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !strings.Contains(out, "worker: STOPPED") {
		t.Fatalf("expected STOPPED:\n%s", out)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		out, err = runCommand(t, cfgPath, "status")
		if err != nil {
			t.Fatalf("status after stop: %v", err)
		}
		if strings.Contains(out, "worker process: NOT_RUNNING") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("worker still reported running after stop:\n%s", out)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
