package main

import (
	"time"

	"github.com/franklstreet-svg/twickell/internal/service"
)

// printHandle emits the status facts for one service, one line each.
func (rt *runtime) printHandle(sp service.Spec, h service.Handle) {
	if h.Running {
		if h.PID > 0 {
			rt.printf("%s process: RUNNING pid=%d uptime=%s", sp.Name, h.PID, uptime(h.StartedUnix))
		} else {
			rt.printf("%s process: RUNNING (detected by %s)", sp.Name, h.DetectedBy)
		}
	} else {
		rt.printf("%s process: NOT_RUNNING", sp.Name)
	}
	if sp.Port > 0 {
		if h.PortBound {
			rt.printf("%s port %d: LISTENING", sp.Name, sp.Port)
		} else {
			rt.printf("%s port %d: NOT_LISTENING", sp.Name, sp.Port)
		}
	}
	if sp.HealthURL != "" {
		if h.Health == service.HealthOK {
			rt.printf("%s health: OK", sp.Name)
		} else {
			rt.printf("%s health: UNREACHABLE", sp.Name)
		}
	}
}

func uptime(startedUnix int64) string {
	if startedUnix <= 0 {
		return "unknown"
	}
	d := time.Since(time.Unix(startedUnix, 0))
	if d < 0 {
		d = 0
	}
	return d.Truncate(time.Second).String()
}
