/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// MeterName is the instrumentation scope used for judge telemetry.
const MeterName = "chainguard.dev/ragjudge/judge"

// Judge provides OpenTelemetry instruments for judge calls.
// Instruments that fail to initialize are replaced with no-ops.
type Judge struct {
	tracer           oteltrace.Tracer
	calls            metric.Int64Counter
	failures         metric.Int64Counter
	attempts         metric.Int64Counter
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	latency          metric.Float64Histogram
}

// NewJudge creates judge instruments from the global otel providers.
func NewJudge() *Judge {
	meter := otel.Meter(MeterName, metric.WithInstrumentationVersion("1.0.0"))

	return &Judge{
		tracer:   otel.Tracer(MeterName, oteltrace.WithInstrumentationVersion("1.0.0")),
		calls:    counter(meter, "judge.calls", "The number of judge evaluations", "{calls}"),
		failures: counter(meter, "judge.failures", "The number of judge evaluations that exhausted their retries", "{calls}"),
		attempts: counter(meter, "judge.attempts", "The number of model requests including retries", "{requests}"),
		promptTokens: counter(meter, "genai.token.prompt",
			"The number of prompt tokens used", "{tokens}"),
		completionTokens: counter(meter, "genai.token.completion",
			"The number of completion tokens used", "{tokens}"),
		latency: histogram(meter, "judge.latency", "Wall time of a judge evaluation including retries", "s"),
	}
}

func counter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		slog.Warn("Failed to create counter, metric will be disabled", "error", err, "metric", name)
		return noop.Int64Counter{}
	}
	return c
}

func histogram(meter metric.Meter, name, desc, unit string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		slog.Warn("Failed to create histogram, metric will be disabled", "error", err, "metric", name)
		return noop.Float64Histogram{}
	}
	return h
}

// StartEvaluation opens a span covering one judge evaluation.
func (j *Judge) StartEvaluation(ctx context.Context, model, template string) (context.Context, oteltrace.Span) {
	return j.tracer.Start(ctx, "judge.evaluate", oteltrace.WithAttributes(
		attribute.String("model", model),
		attribute.String("template", template),
	))
}

// RecordEvaluation records the outcome of one evaluation and ends its span.
func (j *Judge) RecordEvaluation(ctx context.Context, span oteltrace.Span, model, template string, attempts int, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("template", template),
	)
	j.calls.Add(ctx, 1, attrs)
	j.attempts.Add(ctx, int64(attempts), attrs)
	j.latency.Record(ctx, elapsed.Seconds(), attrs)

	span.SetAttributes(attribute.Int("judge.attempts", attempts))
	if err != nil {
		j.failures.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RecordTokens records prompt and completion token usage reported by a backend.
func (j *Judge) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64) {
	attrs := metric.WithAttributes(attribute.String("model", model))
	j.promptTokens.Add(ctx, promptTokens, attrs)
	j.completionTokens.Add(ctx, completionTokens, attrs)
}
