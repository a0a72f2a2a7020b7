package probe

import "context"

// Probe is a strategy that infers whether a service instance is alive.
// Implementations must be safe for concurrent use and must bound their
// own blocking time, either via ctx or an internal timeout.
type Probe interface {
	// Check returns true if the service is detected as running.
	// Unreachable dependencies are reported as (false, nil), not errors.
	Check(ctx context.Context) (bool, error)
	// Describe returns a human-readable description of the probe method.
	Describe() string
}
