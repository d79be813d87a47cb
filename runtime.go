package graphene

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/graphene-go/graphene/compiler"
	"github.com/graphene-go/graphene/component"
	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/exec"
	"github.com/graphene-go/graphene/memo"
	"github.com/graphene-go/graphene/proto"
	"github.com/graphene-go/graphene/registry"
	"github.com/graphene-go/graphene/value"
)

// Runtime is the host-facing surface of the graph engine: it compiles
// document graphs, drives evaluations, and serves introspection.
//
// A Runtime is safe for concurrent use. Each compiled handle owns a
// long-lived executor, so recompiling after an edit reuses every node
// instance the edit did not touch.
type Runtime struct {
	id      string
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *runtimeMetrics
	reg     *registry.Registry
	store   memo.RecordStore
	idgen   *document.IDGenerator

	monitorAll  bool
	disableMemo bool

	mu      sync.Mutex
	handles map[string]*CompiledHandle
	closed  bool
}

// CompiledHandle is one compiled document graph with its executor state.
type CompiledHandle struct {
	id       string
	network  *proto.Network
	executor *exec.DynamicExecutor
	monitors []proto.Entry
}

// ID returns the handle's unique identifier.
func (h *CompiledHandle) ID() string { return h.id }

// New creates a runtime instance.
//
// Example:
//
//	rt, err := graphene.New(
//	    graphene.WithLogger(logger),
//	    graphene.WithConfigFile("runtime.yaml"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
func New(opts ...Option) (*Runtime, error) {
	cfg := &runtimeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	if cfg.reg == nil {
		cfg.reg = registry.Default()
	}

	if cfg.configPath != "" {
		fileCfg, err := component.Load(cfg.configPath)
		if err != nil {
			return nil, &Error{Op: "New", Kind: KindConfiguration, Err: err}
		}
		applyFileConfig(cfg, fileCfg)
	}

	if cfg.memoBound > 0 {
		memo.SetDefaultBound(cfg.memoBound)
	}
	if cfg.seed == 0 {
		cfg.seed = 0x6772617068656e65 // stable default, not a process-global RNG
	}

	metrics, err := initMetrics(cfg.meter)
	if err != nil {
		return nil, &Error{Op: "New", Kind: KindConfiguration, Err: err}
	}

	return &Runtime{
		id:          uuid.NewString(),
		logger:      cfg.logger,
		tracer:      cfg.tracer,
		metrics:     metrics,
		reg:         cfg.reg,
		store:       cfg.store,
		idgen:       document.NewIDGenerator(cfg.seed),
		monitorAll:  cfg.monitorAll,
		disableMemo: cfg.disableMemo,
		handles:     map[string]*CompiledHandle{},
	}, nil
}

// applyFileConfig layers runtime.yaml under the explicit options.
func applyFileConfig(cfg *runtimeConfig, file *component.Config) {
	if file.Memo != nil && cfg.memoBound == 0 {
		cfg.memoBound = file.Memo.Bound
	}
	if file.Introspection != nil && file.Introspection.MonitorAll {
		cfg.monitorAll = true
	}
	if cfg.seed == 0 {
		cfg.seed = file.Seed
	}
	if cfg.store == nil && file.RecordStore != nil && file.RecordStore.URL != "" {
		store, err := memo.NewRedisRecordStore(memo.RedisOptions{
			URL:            file.RecordStore.URL,
			HistoryCap:     file.RecordStore.HistoryCap,
			ConnectTimeout: file.RecordStore.ConnectTimeout,
		})
		if err != nil {
			// The external store is an enhancement; its absence only
			// costs persisted history.
			cfg.logger.Warn("record store unavailable", "error", err)
		} else {
			cfg.store = store
		}
	}
}

// NewNodeID returns a fresh document node id from the runtime's seeded
// generator.
func (r *Runtime) NewNodeID() document.NodeID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idgen.Next()
}

// Compile lowers a document graph and instantiates its executor. The
// returned handle stays valid until the runtime closes; recompile into
// it with Recompile to reuse executor state across edits.
func (r *Runtime) Compile(ctx context.Context, network *document.NodeNetwork, scopeValues map[string]value.TaggedValue) (*CompiledHandle, error) {
	handle := &CompiledHandle{
		id:       uuid.NewString(),
		executor: exec.New(r.reg, r.logger),
	}
	if err := r.compileInto(ctx, handle, network, scopeValues); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, &Error{Op: "Runtime.Compile", Kind: KindConfiguration, Err: ErrClosed}
	}
	r.handles[handle.id] = handle
	return handle, nil
}

// Recompile lowers an edited document graph into an existing handle.
// Executor nodes whose construction identity is unchanged are reused, so
// continuous edits re-instantiate only what they touched.
func (r *Runtime) Recompile(ctx context.Context, handle *CompiledHandle, network *document.NodeNetwork, scopeValues map[string]value.TaggedValue) error {
	if _, err := r.lookup(handle); err != nil {
		return err
	}
	return r.compileInto(ctx, handle, network, scopeValues)
}

func (r *Runtime) compileInto(ctx context.Context, handle *CompiledHandle, network *document.NodeNetwork, scopeValues map[string]value.TaggedValue) error {
	_, end := r.startSpan(ctx, "graphene.compile",
		func(m *runtimeMetrics) metric.Float64Histogram { return m.compileDuration },
		attribute.String("handle", handle.id))

	compiled, err := compiler.Compile(network, compiler.Options{
		Registry:    r.reg,
		ScopeValues: scopeValues,
		DisableMemo: r.disableMemo,
		MonitorAll:  r.monitorAll,
	})
	if err != nil {
		end(err)
		return &Error{Op: "Runtime.Compile", Kind: KindCompile, Err: err}
	}

	if err := handle.executor.Update(compiled); err != nil {
		end(err)
		return &Error{Op: "Runtime.Compile", Kind: KindUpdate, Err: err}
	}

	handle.network = compiled
	handle.monitors = nil
	for _, entry := range compiled.Nodes {
		if entry.Node.Identifier == compiler.IdentifierMonitor {
			handle.monitors = append(handle.monitors, entry)
		}
	}

	end(nil)
	r.logger.Debug("compiled document graph",
		"runtime", r.id, "handle", handle.id,
		"nodes", len(compiled.Nodes), "monitors", len(handle.monitors))
	return nil
}

// Execute evaluates the compiled graph's export under the given
// evaluation context. Node failures are poison values inside the result;
// the returned error covers runtime-level conditions only.
func (r *Runtime) Execute(ctx context.Context, handle *CompiledHandle, ec *evalctx.Context) (value.TaggedValue, error) {
	h, err := r.lookup(handle)
	if err != nil {
		return value.None, err
	}

	ctx, end := r.startSpan(ctx, "graphene.execute",
		func(m *runtimeMetrics) metric.Float64Histogram { return m.evalDuration },
		attribute.String("handle", h.id))

	out, err := h.executor.Execute(ctx, ec)
	end(err)
	if err != nil {
		return value.None, &Error{Op: "Runtime.Execute", Kind: KindExecute, Err: err}
	}
	if r.metrics != nil {
		r.metrics.evalCounter.Add(ctx, 1)
	}

	if r.store != nil {
		r.flushRecords(ctx, h)
	}
	return out, nil
}

// flushRecords pushes the latest tap records to the external store.
func (r *Runtime) flushRecords(ctx context.Context, handle *CompiledHandle) {
	for _, entry := range handle.monitors {
		h, ok := handle.executor.Handle(entry.ID)
		if !ok {
			continue
		}
		tap, ok := h.Impl.(*memo.RecordNode)
		if !ok {
			continue
		}
		rec, ok := tap.Latest()
		if !ok {
			continue
		}
		key := recordKey(handle.id, entry.Node.DocumentPath)
		if err := r.store.Append(ctx, key, rec); err != nil {
			r.logger.Warn("record store append failed", "key", key, "error", err)
		}
	}
}

func recordKey(handleID string, path []document.NodeID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprintf("%d", uint64(id))
	}
	return "graphene:introspect:" + handleID + ":" + strings.Join(parts, "/")
}

// Introspect returns the latest input/output record of a root-level
// document node. The node must carry an introspection tap: either its
// metadata flagged "monitor" or the runtime was built WithMonitorAll.
func (r *Runtime) Introspect(handle *CompiledHandle, nodeID document.NodeID) (value.IORecord, bool) {
	h, err := r.lookup(handle)
	if err != nil {
		return value.IORecord{}, false
	}
	hd, ok := h.executor.Handle(compiler.MonitorID(nodeID))
	if !ok {
		return value.IORecord{}, false
	}
	tap, ok := hd.Impl.(*memo.RecordNode)
	if !ok {
		return value.IORecord{}, false
	}
	return tap.Latest()
}

// History returns up to n persisted records of a root-level document
// node, newest first, from the external record store.
func (r *Runtime) History(ctx context.Context, handle *CompiledHandle, nodeID document.NodeID, n int) ([]value.IORecord, error) {
	h, err := r.lookup(handle)
	if err != nil {
		return nil, err
	}
	if r.store == nil {
		return nil, nil
	}
	for _, entry := range h.monitors {
		path := entry.Node.DocumentPath
		if len(path) == 1 && path[0] == nodeID {
			records, err := r.store.History(ctx, recordKey(h.id, path), n)
			if err != nil {
				return nil, &Error{Op: "Runtime.History", Kind: KindStore, Err: err}
			}
			return records, nil
		}
	}
	return nil, nil
}

// Release drops a compiled handle and its executor state.
func (r *Runtime) Release(handle *CompiledHandle) {
	if handle == nil {
		return
	}
	r.mu.Lock()
	delete(r.handles, handle.id)
	r.mu.Unlock()
}

// Close shuts the runtime down, releasing all handles and the record
// store connection. In-flight evaluations finish against the state they
// started with.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.handles = map[string]*CompiledHandle{}
	store := r.store
	r.mu.Unlock()

	if store != nil {
		return store.Close()
	}
	return nil
}

func (r *Runtime) lookup(handle *CompiledHandle) (*CompiledHandle, error) {
	if handle == nil {
		return nil, &Error{Op: "Runtime", Kind: KindExecute, Err: ErrHandleNotFound}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[handle.id]
	if !ok {
		return nil, &Error{Op: "Runtime", Kind: KindExecute, Err: ErrHandleNotFound}
	}
	return h, nil
}
