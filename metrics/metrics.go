// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

// Package metrics instruments the analysis pipeline with Prometheus
// collectors: per-path run counts and durations, processed event volume,
// and normalization drop counts.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewlens_analysis_runs_total",
			Help: "Total analysis runs per path and outcome",
		},
		[]string{"path", "outcome"}, // path: clustering, patterns, suppression, trend, simulate
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "viewlens_analysis_duration_seconds",
			Help:    "Duration of analysis runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewlens_events_processed_total",
			Help: "Total watch events accepted into an analysis run",
		},
		[]string{"path"},
	)

	EntriesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viewlens_entries_dropped_total",
			Help: "Total malformed entries dropped during normalization",
		},
	)

	ClustersFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "viewlens_clusters_found",
			Help:    "Cluster counts per clustering run",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	RiskScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "viewlens_risk_score",
			Help:    "Risk scores produced by pattern analysis",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.5, 0.7, 0.9, 1},
		},
	)
)

// RecordRun records one analysis run on a path: its outcome, duration, and
// how many events it accepted.
func RecordRun(path string, duration time.Duration, events int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	AnalysisRuns.WithLabelValues(path, outcome).Inc()
	AnalysisDuration.WithLabelValues(path).Observe(duration.Seconds())
	if err == nil {
		EventsProcessed.WithLabelValues(path).Add(float64(events))
	}
}

// RecordDropped counts entries discarded during normalization.
func RecordDropped(n int) {
	if n > 0 {
		EntriesDropped.Add(float64(n))
	}
}

// RecordClusters observes a clustering run's cluster count.
func RecordClusters(n int) {
	ClustersFound.Observe(float64(n))
}

// RecordRiskScore observes a pattern-analysis risk score.
func RecordRiskScore(score float64) {
	RiskScore.Observe(score)
}
