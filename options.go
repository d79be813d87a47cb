package graphene

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/graphene-go/graphene/memo"
	"github.com/graphene-go/graphene/registry"
)

// Option configures the Runtime.
type Option func(*runtimeConfig)

// runtimeConfig holds configuration for a Runtime instance.
type runtimeConfig struct {
	configPath  string
	logger      *slog.Logger
	tracer      trace.Tracer
	meter       metric.Meter
	reg         *registry.Registry
	store       memo.RecordStore
	memoBound   int
	monitorAll  bool
	disableMemo bool
	seed        uint64
}

// WithConfigFile sets the runtime.yaml path. File settings apply first;
// other options override them.
func WithConfigFile(path string) Option {
	return func(c *runtimeConfig) {
		c.configPath = path
	}
}

// WithLogger sets a custom logger for the runtime. If not provided, a
// default JSON logger is created.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runtimeConfig) {
		c.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer for compile and execute spans.
// Without one, tracing is a no-op.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *runtimeConfig) {
		c.tracer = tracer
	}
}

// WithMeter sets an OpenTelemetry meter; the runtime creates its
// duration histograms and counters from it once, at construction.
func WithMeter(meter metric.Meter) Option {
	return func(c *runtimeConfig) {
		c.meter = meter
	}
}

// WithRegistry sets the implementation registry compilation and
// execution resolve against. Default: registry.Default().
func WithRegistry(reg *registry.Registry) Option {
	return func(c *runtimeConfig) {
		c.reg = reg
	}
}

// WithRecordStore sets an external store receiving introspection
// records after each evaluation.
func WithRecordStore(store memo.RecordStore) Option {
	return func(c *runtimeConfig) {
		c.store = store
	}
}

// WithMemoBound bounds the context-keyed caches.
func WithMemoBound(bound int) Option {
	return func(c *runtimeConfig) {
		c.memoBound = bound
	}
}

// WithMonitorAll inserts an introspection tap around every node, not
// just flagged ones.
func WithMonitorAll() Option {
	return func(c *runtimeConfig) {
		c.monitorAll = true
	}
}

// WithoutMemo disables memoization insertion at compile time, for hosts
// that drive caching themselves.
func WithoutMemo() Option {
	return func(c *runtimeConfig) {
		c.disableMemo = true
	}
}

// WithSeed seeds the runtime's node-id generator.
func WithSeed(seed uint64) Option {
	return func(c *runtimeConfig) {
		c.seed = seed
	}
}
