package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the wallet's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	cascadeSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: "cascade",
			Name:      "steps_total",
			Help:      "Refresh cascade steps by outcome.",
		},
		[]string{"step", "result"},
	)

	cascadesStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: "cascade",
			Name:      "started_total",
			Help:      "Refresh cascades started.",
		},
	)

	staleWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: "cascade",
			Name:      "stale_writes_total",
			Help:      "Results discarded because a newer session or network generation exists.",
		},
		[]string{"step"},
	)

	bridgeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wallet",
			Subsystem: "bridge",
			Name:      "request_duration_seconds",
			Help:      "Duration of native bridge commands.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"command", "success"},
	)
)

func init() {
	Registry.MustRegister(
		cascadeSteps,
		cascadesStarted,
		staleWrites,
		bridgeDuration,
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordCascadeStarted() {
	cascadesStarted.Inc()
}

func RecordCascadeStep(step string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	cascadeSteps.WithLabelValues(step, result).Inc()
}

func RecordStaleWrite(step string) {
	staleWrites.WithLabelValues(step).Inc()
}

func RecordBridgeCall(command string, success bool, d time.Duration) {
	s := "false"
	if success {
		s = "true"
	}
	bridgeDuration.WithLabelValues(command, s).Observe(d.Seconds())
}
