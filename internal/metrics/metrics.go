// Package metrics exposes Prometheus instrumentation for the scheduling core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OccurrencesGenerated counts appointments created by series expansion,
	// including the anchor.
	OccurrencesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groompro_occurrences_generated_total",
		Help: "Appointments created by recurring series expansion.",
	})

	// SeriesOperations counts resolved edit operations by kind
	// (plain, detach, bulk_fields, bulk_time, regenerate).
	SeriesOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "groompro_series_operations_total",
		Help: "Appointment edit operations by resolved kind.",
	}, []string{"op"})

	// HookFailures counts best-effort hook errors by hook name
	// (notify, calendar, backup).
	HookFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "groompro_hook_failures_total",
		Help: "Best-effort external hook failures.",
	}, []string{"hook"})
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
