package graphene

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// runtimeMetrics holds the OpenTelemetry metric instruments for the
// runtime. These are created once during construction and reused for
// every compile and evaluation.
type runtimeMetrics struct {
	// compileDuration records compilation duration in milliseconds.
	compileDuration metric.Float64Histogram

	// evalDuration records evaluation duration in milliseconds.
	evalDuration metric.Float64Histogram

	// evalCounter increments for each evaluation driven to completion.
	evalCounter metric.Int64Counter
}

// initMetrics creates the metric instruments; a nil meter disables them.
func initMetrics(meter metric.Meter) (*runtimeMetrics, error) {
	if meter == nil {
		return nil, nil
	}

	m := &runtimeMetrics{}
	var err error

	m.compileDuration, err = meter.Float64Histogram(
		"graphene.compile.duration",
		metric.WithDescription("Document graph compilation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create compile duration histogram: %w", err)
	}

	m.evalDuration, err = meter.Float64Histogram(
		"graphene.eval.duration",
		metric.WithDescription("Graph evaluation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create eval duration histogram: %w", err)
	}

	m.evalCounter, err = meter.Int64Counter(
		"graphene.eval.count",
		metric.WithDescription("Number of graph evaluations driven to completion"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create eval counter: %w", err)
	}

	return m, nil
}

// startSpan opens a span when a tracer is configured; the returned end
// function records the outcome and duration metric.
func (r *Runtime) startSpan(ctx context.Context, name string, hist func(*runtimeMetrics) metric.Float64Histogram, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	start := time.Now()

	var span trace.Span
	if r.tracer != nil {
		ctx, span = r.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	}

	return ctx, func(err error) {
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0
		if r.metrics != nil {
			hist(r.metrics).Record(ctx, elapsed, metric.WithAttributes(attrs...))
		}
		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			span.End()
		}
	}
}
