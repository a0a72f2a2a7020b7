package history

import (
	"context"
	"time"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	EventStart       EventType = "start"
	EventStop        EventType = "stop"
	EventStartFailed EventType = "start_failed"
)

// Event records one supervisor action against a service.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Service    string    `json:"service"`
	PID        int       `json:"pid"`
	Detail     string    `json:"detail,omitempty"`
}

// Sink is a destination for lifecycle events. Implementations must be
// safe for concurrent use. Send failures are swallowed by the caller:
// history is diagnostic, never load-bearing.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}
