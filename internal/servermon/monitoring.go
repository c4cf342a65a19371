// Copyright 2026 Canonical.

// The servermon package is used to update statistics used
// for monitoring the API server.
package servermon

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DBQueryDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "condb",
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Histogram of database query time in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method"})
	DBQueryErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "condb",
		Subsystem: "db",
		Name:      "error_total",
		Help:      "The number of database errors.",
	}, []string{"method"})
	CommitsCreatedCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "condb",
		Subsystem: "vcs",
		Name:      "commits_created_total",
		Help:      "The number of commits created.",
	}, []string{"database"})
	WorkingCommitsOpenedCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "condb",
		Subsystem: "vcs",
		Name:      "working_commits_opened_total",
		Help:      "The number of working commits opened.",
	}, []string{"database"})
	MergeCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "condb",
		Subsystem: "vcs",
		Name:      "merges_total",
		Help:      "The number of merge and rebase operations.",
	}, []string{"database", "operation", "result"})
	MergeConflictCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "condb",
		Subsystem: "vcs",
		Name:      "merge_conflicts_total",
		Help:      "The number of conflicts detected by merge and rebase operations.",
	}, []string{"database"})
	ValidationProblemCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "condb",
		Subsystem: "validate",
		Name:      "problems_total",
		Help:      "The number of validation problems reported.",
	}, []string{"database", "severity"})
	SolveDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "condb",
		Subsystem: "solve",
		Name:      "duration_seconds",
		Help:      "Histogram of solve pipeline time in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"database"})
	SolveErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "condb",
		Subsystem: "solve",
		Name:      "error_total",
		Help:      "The number of failed solve runs.",
	}, []string{"database"})
	DatabaseCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "condb",
		Subsystem: "system",
		Name:      "database",
		Help:      "The number of databases managed by the server.",
	})
	BranchCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "condb",
		Subsystem: "system",
		Name:      "branch",
		Help:      "The number of active branches per database.",
	}, []string{"database"})
	ResponseTimeHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "condb",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "The duration of handling an HTTP request in seconds.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})
)

// DurationObserver returns a function that, when run with `defer` will
// record the duration of the parent function's execution.
func DurationObserver(m *prometheus.HistogramVec, labelValues ...string) func() {
	start := time.Now()
	return func() {
		m.WithLabelValues(labelValues...).Observe(time.Since(start).Seconds())
	}
}

// ErrorCounter increases the specified counter if the error is not nil.
func ErrorCounter(m *prometheus.CounterVec, err *error, labelValues ...string) {
	if *err == nil {
		return
	}

	m.WithLabelValues(labelValues...).Inc()
}
