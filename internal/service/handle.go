package service

// Health sentinels reported by a status query. A probe that cannot reach
// its target yields a sentinel, never an error.
const (
	HealthOK          = "ok"
	HealthUnreachable = "unreachable"
)

// Handle is the runtime-observed state of a service. It is derived fresh
// on every query from the OS process table, the socket table, and the
// health endpoint; it is never cached. Zero values mean "absent".
type Handle struct {
	Name        string `json:"name"`
	Running     bool   `json:"running"`
	PID         int    `json:"pid,omitempty"`
	StartedUnix int64  `json:"started_unix,omitempty"`
	Port        int    `json:"port,omitempty"`
	PortBound   bool   `json:"port_bound"`
	Health      string `json:"health,omitempty"` // empty when no health URL is configured
	DetectedBy  string `json:"detected_by,omitempty"`
}
