/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evaluator

import (
	"errors"
	"fmt"
	"time"

	"chainguard.dev/ragjudge/evaluation/judge"
	"chainguard.dev/ragjudge/evaluation/metric"
	"chainguard.dev/ragjudge/evaluation/stats"
)

// Config configures one evaluation run.
type Config struct {
	DatasetPath string `json:"dataset_path"`
	// ModelName is used as the judge model when Judge.Model is empty.
	ModelName    string        `json:"model_name"`
	Judge        judge.Config  `json:"judge_config"`
	MetricsToRun []metric.Name `json:"metrics_to_run"`
	// MaxSamples truncates the dataset; 0 means all samples.
	MaxSamples  int    `json:"max_samples,omitempty"`
	SaveResults bool   `json:"save_results"`
	OutputPath  string `json:"output_path,omitempty"`
	// CSVPath additionally exports the results as CSV when SaveResults is set.
	CSVPath string `json:"csv_path,omitempty"`
}

// validate checks the parts of the config that do not depend on the judge.
func (c Config) validate() ([]metric.Name, error) {
	if len(c.MetricsToRun) == 0 {
		return nil, &ConfigError{Err: errors.New("metrics_to_run must not be empty")}
	}
	metrics, err := metric.Ordered(c.MetricsToRun)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	if c.MaxSamples < 0 {
		return nil, &ConfigError{Err: fmt.Errorf("max_samples cannot be negative, got %d", c.MaxSamples)}
	}
	return metrics, nil
}

// JudgeConfig returns the judge configuration with the model name applied.
func (c Config) JudgeConfig() judge.Config {
	jc := c.Judge
	if jc.Model == "" {
		jc.Model = c.ModelName
	}
	return jc.WithDefaults()
}

// Status is the state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusPaused    Status = "paused"
)

// Progress is a snapshot of a running evaluation.
type Progress struct {
	CurrentSample          int           `json:"current_sample"`
	TotalSamples           int           `json:"total_samples"`
	CurrentMetric          metric.Name   `json:"current_metric,omitempty"`
	Status                 Status        `json:"status"`
	ProgressPercentage     float64       `json:"progress_percentage"`
	EstimatedTimeRemaining time.Duration `json:"estimated_time_remaining,omitempty"`
}

// Result is the outcome of one fully evaluated sample.
type Result struct {
	SampleID    string        `json:"sample_id"`
	Query       string        `json:"query"`
	Generation  string        `json:"generation"`
	GroundTruth string        `json:"ground_truth"`
	Context     string        `json:"context,omitempty"`
	Scores      metric.Scores `json:"scores"`
	Timestamp   time.Time     `json:"timestamp"`
}

// Summary is the persisted outcome of a run.
type Summary struct {
	EvaluationID     string                        `json:"evaluation_id"`
	DatasetName      string                        `json:"dataset_name"`
	TotalSamples     int                           `json:"total_samples"`
	CompletedSamples int                           `json:"completed_samples"`
	FailedSamples    int                           `json:"failed_samples"`
	StartedAt        time.Time                     `json:"started_at"`
	CompletedAt      time.Time                     `json:"completed_at"`
	DurationSeconds  float64                       `json:"duration_seconds"`
	Metrics          map[metric.Name]stats.Summary `json:"metrics"`
	Results          []Result                      `json:"results"`
}

// summarize aggregates every metric over the results. Metrics that were not
// run summarize to zeros.
func summarize(results []Result) map[metric.Name]stats.Summary {
	out := make(map[metric.Name]stats.Summary, len(metric.All()))
	for _, name := range metric.All() {
		var scores []float64
		for _, r := range results {
			if s, ok := r.Scores.Get(name); ok {
				scores = append(scores, s.Score)
			}
		}
		out[name] = stats.Summarize(scores)
	}
	return out
}
