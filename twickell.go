package twickell

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/franklstreet-svg/twickell/internal/config"
	"github.com/franklstreet-svg/twickell/internal/history"
	"github.com/franklstreet-svg/twickell/internal/history/factory"
	"github.com/franklstreet-svg/twickell/internal/metrics"
	iapi "github.com/franklstreet-svg/twickell/internal/server"
	"github.com/franklstreet-svg/twickell/internal/service"
	"github.com/franklstreet-svg/twickell/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Spec = service.Spec

type Handle = service.Handle

type StartResult = supervisor.StartResult

const (
	AlreadyRunning = supervisor.AlreadyRunning
	Started        = supervisor.Started
	Failed         = supervisor.Failed
)

type HistorySink = history.Sink

// Supervisor is a thin facade over internal/supervisor.Supervisor.
// It provides a stable public API for embedding.

type Supervisor struct{ inner *supervisor.Supervisor }

func New() *Supervisor { return &Supervisor{inner: supervisor.New()} }

func (s *Supervisor) SetHistory(sink HistorySink) { s.inner.SetHistory(sink) }

func (s *Supervisor) Status(ctx context.Context, sp Spec) Handle { return s.inner.Status(ctx, sp) }
func (s *Supervisor) Start(ctx context.Context, sp Spec) (StartResult, error) {
	return s.inner.Start(ctx, sp)
}
func (s *Supervisor) Stop(ctx context.Context, sp Spec) error { return s.inner.Stop(ctx, sp) }
func (s *Supervisor) Restart(ctx context.Context, sp Spec) (StartResult, error) {
	return s.inner.Restart(ctx, sp)
}

func LoadConfig(path string) (*cfg.Config, error) {
	return cfg.Load(path)
}

// NewHistorySink builds an event sink from a DSN (sqlite path,
// postgres://, or clickhouse://).
func NewHistorySink(dsn string) (HistorySink, error) {
	return factory.NewSinkFromDSN(dsn)
}

// NewHTTPServer builds an HTTP server exposing the status API for the
// given supervisor and service set. The caller owns ListenAndServe and
// Shutdown.
func NewHTTPServer(addr, basePath string, s *Supervisor, specs []Spec) *http.Server {
	return iapi.NewServer(addr, basePath, s.inner, specs)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the
// default registry. It returns any immediate listen error; otherwise it
// runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
