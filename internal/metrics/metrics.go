// Package metrics exposes Prometheus collectors for the adapter.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsConsumed counts stream events by kind (chunk, trace).
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapter_events_consumed_total",
			Help: "Total stream events consumed, by kind",
		},
		[]string{"kind"},
	)

	// NormalizationErrors counts trace records produced with error status.
	NormalizationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adapter_normalization_errors_total",
			Help: "Trace records that ended in error status",
		},
	)

	// Deliveries counts downstream mutation deliveries by outcome.
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapter_deliveries_total",
			Help: "Downstream mutation deliveries, by outcome",
		},
		[]string{"status"},
	)

	// Operations counts resolver operations by discriminator and outcome.
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapter_operations_total",
			Help: "Resolver operations, by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
