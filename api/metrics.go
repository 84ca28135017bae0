/*
metrics.go - Prometheus instrumentation for the closure pipeline

PURPOSE:
  Counts closure attempts by terminal state, tracks how long a full run
  takes, and accumulates the folio and no-show totals the night audit
  produces. Exposed on /metrics for scraping.

SEE ALSO:
  - handlers.go: CloseDay records one observation per attempt
  - server.go: mounts the /metrics endpoint
*/
package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/innkeep/night-audit/audit"
)

var (
	closuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "night_audit_closures_total",
		Help: "Closure attempts by terminal state.",
	}, []string{"state"})

	closureDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "night_audit_closure_duration_seconds",
		Help:    "Wall time of one closure attempt.",
		Buckets: prometheus.DefBuckets,
	})

	foliosGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "night_audit_folios_generated_total",
		Help: "Folios generated during closures.",
	})

	noShowsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "night_audit_no_shows_processed_total",
		Help: "Reservations converted to no-show during closures.",
	})
)

func observeClosure(result *audit.CloseResult, err error, elapsed time.Duration) {
	closureDuration.Observe(elapsed.Seconds())

	state := "ERROR"
	if result != nil {
		state = string(result.State)
	}
	if err != nil && (result == nil || result.State != audit.StateFailed) {
		state = "ERROR"
	}
	closuresTotal.WithLabelValues(state).Inc()

	if result != nil {
		foliosGenerated.Add(float64(result.FoliosGenerated))
		noShowsProcessed.Add(float64(result.NoShowsProcessed))
	}
}
