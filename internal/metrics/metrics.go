package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors, registered via Register.
var (
	regOK atomic.Bool

	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "twickell",
			Subsystem: "service",
			Name:      "starts_total",
			Help:      "Number of successful service starts.",
		}, []string{"name"},
	)
	serviceStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "twickell",
			Subsystem: "service",
			Name:      "stops_total",
			Help:      "Number of stop operations that found something to signal.",
		}, []string{"name"},
	)
	startFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "twickell",
			Subsystem: "service",
			Name:      "start_failures_total",
			Help:      "Number of launches that did not become ready within the start timeout.",
		}, []string{"name"},
	)
	serviceRunning = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "twickell",
			Subsystem: "service",
			Name:      "running",
			Help:      "Whether the service was observed running at the last status query (1 or 0).",
		}, []string{"name"},
	)
)

// Register registers all collectors with r. Safe to call multiple times;
// calls after a success are no-ops and AlreadyRegistered is tolerated.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	for _, c := range []prometheus.Collector{serviceStarts, serviceStops, startFailures, serviceRunning} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers used by the supervisor. They no-op until Register is called.

func IncStart(name string) {
	if regOK.Load() {
		serviceStarts.WithLabelValues(name).Inc()
	}
}

func IncStop(name string) {
	if regOK.Load() {
		serviceStops.WithLabelValues(name).Inc()
	}
}

func IncStartFailure(name string) {
	if regOK.Load() {
		startFailures.WithLabelValues(name).Inc()
	}
}

func SetRunning(name string, running bool) {
	if !regOK.Load() {
		return
	}
	v := 0.0
	if running {
		v = 1.0
	}
	serviceRunning.WithLabelValues(name).Set(v)
}
