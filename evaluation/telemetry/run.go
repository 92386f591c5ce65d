/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sampleCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragjudge_samples_total",
			Help: "Total number of samples evaluated, by outcome",
		},
		[]string{"dataset", "status"},
	)

	runCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragjudge_evaluations_total",
			Help: "Total number of evaluation runs, by final status",
		},
		[]string{"dataset", "status"},
	)

	averageGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ragjudge_metric_average",
			Help: "Average score of the most recent run (0.0-1.0)",
		},
		[]string{"dataset", "metric"},
	)
)

// Run records Prometheus metrics for the evaluation runs of one dataset.
type Run struct {
	dataset   string
	completed prometheus.Counter
	failed    prometheus.Counter
}

// NewRun binds the run metrics to a dataset label.
func NewRun(dataset string) *Run {
	return &Run{
		dataset:   dataset,
		completed: sampleCounter.With(prometheus.Labels{"dataset": dataset, "status": "completed"}),
		failed:    sampleCounter.With(prometheus.Labels{"dataset": dataset, "status": "failed"}),
	}
}

// SampleCompleted counts a sample that produced a result.
func (r *Run) SampleCompleted() { r.completed.Inc() }

// SampleFailed counts a sample that was abandoned.
func (r *Run) SampleFailed() { r.failed.Inc() }

// Finished records the final status of the run.
func (r *Run) Finished(status string) {
	runCounter.With(prometheus.Labels{"dataset": r.dataset, "status": status}).Inc()
}

// Average publishes the run's average score for a metric.
func (r *Run) Average(metric string, avg float64) {
	averageGauge.With(prometheus.Labels{"dataset": r.dataset, "metric": metric}).Set(avg)
}
