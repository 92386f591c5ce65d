/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evaluator

import (
	"context"
	"errors"
	"time"

	"chainguard.dev/ragjudge/evaluation/dataset"
	"chainguard.dev/ragjudge/evaluation/judge"
	"chainguard.dev/ragjudge/evaluation/metric"
	"chainguard.dev/ragjudge/evaluation/telemetry"
	"chainguard.dev/ragjudge/evaluation/templates"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
)

// Evaluator runs every requested metric over every sample of a dataset.
// Samples are evaluated one at a time; an Evaluator may be reused for
// several runs but not concurrently.
type Evaluator struct {
	cfg        Config
	metrics    []metric.Name
	judge      metric.Judge
	registry   *templates.Registry
	loader     dataset.Loader
	onProgress func(Progress)
	progressCh chan<- Progress
	now        func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator) error

// WithRegistry replaces the built-in template registry.
func WithRegistry(r *templates.Registry) Option {
	return func(e *Evaluator) error {
		if r == nil {
			return errors.New("registry cannot be nil")
		}
		e.registry = r
		return nil
	}
}

// WithLoader replaces the file loader used when Evaluate is given no dataset.
func WithLoader(l dataset.Loader) Option {
	return func(e *Evaluator) error {
		if l == nil {
			return errors.New("loader cannot be nil")
		}
		e.loader = l
		return nil
	}
}

// WithProgress registers a callback invoked synchronously with every update.
func WithProgress(fn func(Progress)) Option {
	return func(e *Evaluator) error {
		e.onProgress = fn
		return nil
	}
}

// WithProgressChannel sends every update to ch. Sends block until received
// or the run's context is done. The caller owns ch and closes it.
func WithProgressChannel(ch chan<- Progress) Option {
	return func(e *Evaluator) error {
		e.progressCh = ch
		return nil
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		e.now = now
		return nil
	}
}

// New creates an Evaluator that scores with j.
func New(cfg Config, j metric.Judge, opts ...Option) (*Evaluator, error) {
	metrics, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, &ConfigError{Err: errors.New("judge is required")}
	}

	e := &Evaluator{
		cfg:      cfg,
		metrics:  metrics,
		judge:    j,
		registry: templates.DefaultRegistry(),
		loader:   dataset.FileLoader,
		now:      time.Now,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, &ConfigError{Err: err}
		}
	}
	return e, nil
}

// NewFromConfig creates an Evaluator backed by the judge client cfg describes.
func NewFromConfig(ctx context.Context, cfg Config, opts ...Option) (*Evaluator, error) {
	if _, err := cfg.validate(); err != nil {
		return nil, err
	}
	client, err := judge.New(ctx, cfg.JudgeConfig())
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	return New(cfg, client, opts...)
}

// Evaluate scores ds, or the dataset at the configured path when ds is nil.
//
// A sample whose metric fails is logged, dropped from the results and
// counted as failed. When ctx is cancelled the run stops before the next
// sample and the partial summary is returned with ctx.Err(); samples never
// started count as neither completed nor failed, and nothing is persisted.
// When persistence fails the complete summary is returned with a
// *PersistenceError.
func (e *Evaluator) Evaluate(ctx context.Context, ds *dataset.Dataset) (*Summary, error) {
	if ds == nil {
		loaded, err := e.loader.Load(ctx, e.cfg.DatasetPath)
		if err != nil {
			return nil, &DatasetLoadError{Path: e.cfg.DatasetPath, Err: err}
		}
		ds = loaded
	}
	samples := ds.Truncate(e.cfg.MaxSamples)

	id := uuid.NewString()
	log := clog.FromContext(ctx).With("evaluation_id", id).With("dataset", ds.Name)
	run := telemetry.NewRun(ds.Name)
	started := e.now()

	progress := Progress{TotalSamples: len(samples), Status: StatusRunning}
	e.notify(ctx, progress)

	log.With("samples", len(samples)).With("metrics", e.metrics).Info("Starting evaluation")

	results := make([]Result, 0, len(samples))
	var (
		failed    int
		spent     time.Duration
		cancelled error
	)
	for i, sample := range samples {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}

		sampleStart := e.now()
		scores, failedMetric, err := e.evaluateSample(ctx, sample, &progress)
		if err != nil {
			log.With("sample_id", sample.ID).With("metric", failedMetric).With("error", err.Error()).
				Error("Failed to evaluate sample, skipping it")
			failed++
			run.SampleFailed()
		} else {
			results = append(results, Result{
				SampleID:    sample.ID,
				Query:       sample.Query,
				Generation:  sample.Generation,
				GroundTruth: sample.GroundTruth,
				Context:     sample.Context,
				Scores:      *scores,
				Timestamp:   e.now().UTC(),
			})
			run.SampleCompleted()
		}
		spent += e.now().Sub(sampleStart)

		done := i + 1
		progress.CurrentSample = done
		progress.ProgressPercentage = float64(done) / float64(len(samples)) * 100
		progress.EstimatedTimeRemaining = spent / time.Duration(done) * time.Duration(len(samples)-done)
		e.notify(ctx, progress)
	}

	completed := e.now()
	summary := &Summary{
		EvaluationID:     id,
		DatasetName:      ds.Name,
		TotalSamples:     len(samples),
		CompletedSamples: len(results),
		FailedSamples:    failed,
		StartedAt:        started.UTC(),
		CompletedAt:      completed.UTC(),
		DurationSeconds:  completed.Sub(started).Seconds(),
		Metrics:          summarize(results),
		Results:          results,
	}
	for _, name := range e.metrics {
		run.Average(string(name), summary.Metrics[name].Average)
	}

	progress.CurrentMetric = ""
	progress.EstimatedTimeRemaining = 0
	if cancelled != nil {
		progress.Status = StatusFailed
		run.Finished(string(StatusFailed))
		log.With("completed", summary.CompletedSamples).Warn("Evaluation cancelled")
		e.notify(ctx, progress)
		return summary, cancelled
	}
	progress.Status = StatusCompleted
	run.Finished(string(StatusCompleted))
	e.notify(ctx, progress)

	log.With("completed", summary.CompletedSamples).
		With("failed", summary.FailedSamples).
		With("duration_seconds", summary.DurationSeconds).
		Info("Evaluation finished")

	if e.cfg.SaveResults && e.cfg.OutputPath != "" {
		if err := SaveJSON(summary, e.cfg.OutputPath); err != nil {
			return summary, &PersistenceError{Path: e.cfg.OutputPath, Err: err}
		}
		if e.cfg.CSVPath != "" {
			if err := ExportCSV(summary, e.cfg.CSVPath); err != nil {
				return summary, &PersistenceError{Path: e.cfg.CSVPath, Err: err}
			}
		}
	}
	return summary, nil
}

// evaluateSample runs the configured metrics in order and reports which
// metric failed, if any.
func (e *Evaluator) evaluateSample(ctx context.Context, sample dataset.Sample, progress *Progress) (*metric.Scores, metric.Name, error) {
	var scores metric.Scores
	for _, name := range e.metrics {
		progress.CurrentMetric = name
		e.notify(ctx, *progress)

		if err := metric.Run(ctx, name, sample, e.judge, e.registry, &scores); err != nil {
			return nil, name, err
		}
	}
	return &scores, "", nil
}

func (e *Evaluator) notify(ctx context.Context, p Progress) {
	if e.onProgress != nil {
		e.onProgress(p)
	}
	if e.progressCh != nil {
		select {
		case e.progressCh <- p:
		case <-ctx.Done():
		}
	}
}
