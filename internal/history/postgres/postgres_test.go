package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/franklstreet-svg/twickell/internal/history"
)

func TestPostgresSinkIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Errorf("terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	sink, err := New(connStr)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer func() { _ = sink.Close() }()

	events := []history.Event{
		{Type: history.EventStart, OccurredAt: time.Now().UTC(), Service: "api", PID: 4242},
		{Type: history.EventStop, OccurredAt: time.Now().UTC(), Service: "api", PID: 4242, Detail: "killed after stop timeout"},
	}
	for _, e := range events {
		if err := sink.Send(ctx, e); err != nil {
			t.Fatalf("send %s: %v", e.Type, err)
		}
	}

	var n int
	if err := sink.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM service_history WHERE service = $1`, "api").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != len(events) {
		t.Fatalf("expected %d rows, got %d", len(events), n)
	}
}

func TestPostgresEmptyDSN(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}
