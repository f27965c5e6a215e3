// Package metrics exposes Prometheus instruments for drill sessions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Drill Sessions
// =============================================================================

var (
	// drillActions counts navigator transitions.
	// Labels: action (drill, highlight, back, navigate, clear, set_values, remove)
	drillActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vardrill",
		Subsystem: "navigation",
		Name:      "actions_total",
		Help:      "Drill transitions applied to sessions",
	}, []string{"action"})

	// analysisDuration measures a full recomputation (cache misses only).
	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vardrill",
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "Time to recompute variation and stage statistics",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	// memoLookups counts analysis cache lookups.
	// Labels: result (hit, miss)
	memoLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vardrill",
		Subsystem: "analysis",
		Name:      "memo_lookups_total",
		Help:      "Analysis memo lookups by result",
	}, []string{"result"})

	// activeSessions tracks sessions held in memory.
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vardrill",
		Subsystem: "session",
		Name:      "active",
		Help:      "Drill sessions held in memory",
	})

	// datasetReloads counts dataset swaps.
	// Labels: status (ok, error)
	datasetReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vardrill",
		Subsystem: "dataset",
		Name:      "reloads_total",
		Help:      "Dataset reloads by status",
	}, []string{"status"})

	// droppedFilters counts filters pruned because their column vanished.
	droppedFilters = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vardrill",
		Subsystem: "dataset",
		Name:      "dropped_filters_total",
		Help:      "Filters dropped after a dataset reload removed their column",
	})
)

// RecordAction counts one navigator transition.
func RecordAction(action string) {
	drillActions.WithLabelValues(action).Inc()
}

// ObserveAnalysis records the duration of one recomputation.
func ObserveAnalysis(d time.Duration) {
	analysisDuration.Observe(d.Seconds())
}

// RecordMemo counts a memo hit or miss.
func RecordMemo(hit bool) {
	if hit {
		memoLookups.WithLabelValues("hit").Inc()
		return
	}
	memoLookups.WithLabelValues("miss").Inc()
}

// SetActiveSessions sets the in-memory session gauge.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// RecordReload counts a dataset reload attempt.
func RecordReload(err error) {
	if err != nil {
		datasetReloads.WithLabelValues("error").Inc()
		return
	}
	datasetReloads.WithLabelValues("ok").Inc()
}

// RecordDroppedFilters counts pruned filters.
func RecordDroppedFilters(n int) {
	droppedFilters.Add(float64(n))
}
