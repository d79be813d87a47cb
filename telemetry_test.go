package graphene

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/graphene-go/graphene/evalctx"
)

func TestTelemetrySpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	rt, err := New(WithTracer(tp.Tracer("graphene-test")))
	require.NoError(t, err)
	defer rt.Close()

	handle, err := rt.Compile(context.Background(), addNetwork(2, 3), nil)
	require.NoError(t, err)
	_, err = rt.Execute(context.Background(), handle, evalctx.Empty())
	require.NoError(t, err)

	names := map[string]bool{}
	for _, span := range exporter.GetSpans() {
		names[span.Name] = true
	}
	assert.True(t, names["graphene.compile"], "compile span recorded")
	assert.True(t, names["graphene.execute"], "execute span recorded")
}

func TestTelemetryMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	rt, err := New(WithMeter(provider.Meter("graphene-test")))
	require.NoError(t, err)
	defer rt.Close()

	handle, err := rt.Compile(context.Background(), addNetwork(2, 3), nil)
	require.NoError(t, err)
	_, err = rt.Execute(context.Background(), handle, evalctx.Empty())
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)

	recorded := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			recorded[m.Name] = true
		}
	}
	assert.True(t, recorded["graphene.compile.duration"])
	assert.True(t, recorded["graphene.eval.duration"])
	assert.True(t, recorded["graphene.eval.count"])
}

func TestTelemetryDisabledIsNoOp(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)
	defer rt.Close()

	handle, err := rt.Compile(context.Background(), addNetwork(1, 1), nil)
	require.NoError(t, err)
	_, err = rt.Execute(context.Background(), handle, evalctx.Empty())
	require.NoError(t, err)
}
