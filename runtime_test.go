package graphene

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphene-go/graphene/document"
	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/memo"
	"github.com/graphene-go/graphene/value"
)

const identAdd = document.ProtoIdentifier("graphene_core::ops::add")

func f64In(v float64) document.NodeInput {
	return document.ValueInput(value.NewF64(v), false)
}

func addNetwork(x, y float64) *document.NodeNetwork {
	net := document.NewNetwork(0)
	_ = net.AddNode(1, &document.DocumentNode{
		Inputs:         []document.NodeInput{f64In(x), f64In(y)},
		Implementation: document.ProtoImplementation(identAdd),
		Visible:        true,
	})
	net.Exports = []document.NodeInput{document.NodeInputOf(1, 0)}
	return net
}

func TestRuntimeEndToEnd(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)
	defer rt.Close()

	handle, err := rt.Compile(context.Background(), addNetwork(2, 3), nil)
	require.NoError(t, err)

	out, err := rt.Execute(context.Background(), handle, evalctx.Empty())
	require.NoError(t, err)
	got, ok := out.F64()
	require.True(t, ok, "got %s", out)
	assert.Equal(t, 5.0, got)

	// Determinism: identical graph and context, identical output.
	again, err := rt.Execute(context.Background(), handle, evalctx.Empty())
	require.NoError(t, err)
	assert.True(t, out.Equal(again))
}

func TestRuntimeCompileError(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)
	defer rt.Close()

	cyclic := document.NewNetwork(0)
	cyclic.Nodes = map[document.NodeID]*document.DocumentNode{
		1: {Inputs: []document.NodeInput{document.NodeInputOf(2, 0), f64In(0)},
			Implementation: document.ProtoImplementation(identAdd), Visible: true},
		2: {Inputs: []document.NodeInput{document.NodeInputOf(1, 0), f64In(0)},
			Implementation: document.ProtoImplementation(identAdd), Visible: true},
	}
	cyclic.Exports = []document.NodeInput{document.NodeInputOf(1, 0)}

	_, err = rt.Compile(context.Background(), cyclic, nil)
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindCompile, rerr.Kind)
}

func TestRuntimeRecompileReusesNodes(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)
	defer rt.Close()

	handle, err := rt.Compile(context.Background(), addNetwork(1, 2), nil)
	require.NoError(t, err)
	before, ok := handle.executor.Handle(1)
	require.True(t, ok)

	extended := addNetwork(1, 2)
	require.NoError(t, extended.AddNode(2, &document.DocumentNode{
		Inputs:         []document.NodeInput{document.NodeInputOf(1, 0), f64In(4)},
		Implementation: document.ProtoImplementation("graphene_core::ops::multiply"),
		Visible:        true,
	}))
	extended.Exports = []document.NodeInput{document.NodeInputOf(2, 0)}

	require.NoError(t, rt.Recompile(context.Background(), handle, extended, nil))
	after, ok := handle.executor.Handle(1)
	require.True(t, ok)
	assert.Same(t, before, after)

	out, err := rt.Execute(context.Background(), handle, evalctx.Empty())
	require.NoError(t, err)
	got, _ := out.F64()
	assert.Equal(t, 12.0, got)
}

func TestRuntimeScopeValues(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)
	defer rt.Close()

	net := document.NewNetwork(0)
	require.NoError(t, net.AddNode(1, &document.DocumentNode{
		Inputs:         []document.NodeInput{document.ScopeInput("editor-api"), f64In(1)},
		Implementation: document.ProtoImplementation(identAdd),
		Visible:        true,
	}))
	net.Exports = []document.NodeInput{document.NodeInputOf(1, 0)}

	handle, err := rt.Compile(context.Background(), net,
		map[string]value.TaggedValue{"editor-api": value.NewF64(100)})
	require.NoError(t, err)

	out, err := rt.Execute(context.Background(), handle, evalctx.Empty())
	require.NoError(t, err)
	got, _ := out.F64()
	assert.Equal(t, 101.0, got)
}

func TestRuntimeIntrospect(t *testing.T) {
	rt, err := New(WithMonitorAll())
	require.NoError(t, err)
	defer rt.Close()

	handle, err := rt.Compile(context.Background(), addNetwork(2, 3), nil)
	require.NoError(t, err)

	_, ok := rt.Introspect(handle, 1)
	assert.False(t, ok, "no record before the first evaluation")

	_, err = rt.Execute(context.Background(), handle, evalctx.Empty())
	require.NoError(t, err)

	rec, ok := rt.Introspect(handle, 1)
	require.True(t, ok)
	out, _ := rec.Output.F64()
	assert.Equal(t, 5.0, out)
	in, _ := rec.Input.F64()
	assert.Equal(t, 2.0, in, "the tap records the primary input")
}

func TestRuntimeRecordStoreHistory(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := memo.NewRedisRecordStore(memo.RedisOptions{
		URL: fmt.Sprintf("redis://%s", mr.Addr()),
	})
	require.NoError(t, err)

	rt, err := New(WithMonitorAll(), WithRecordStore(store))
	require.NoError(t, err)
	defer rt.Close()

	handle, err := rt.Compile(context.Background(), addNetwork(2, 3), nil)
	require.NoError(t, err)
	_, err = rt.Execute(context.Background(), handle, evalctx.Empty())
	require.NoError(t, err)

	records, err := rt.History(context.Background(), handle, 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	out, _ := records[0].Output.F64()
	assert.Equal(t, 5.0, out)
}

func TestRuntimeExpressionNode(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)
	defer rt.Close()

	net := document.NewNetwork(0)
	require.NoError(t, net.AddNode(1, &document.DocumentNode{
		Inputs: []document.NodeInput{
			f64In(3),
			document.InlineInput("a * a + 1.0"),
		},
		Implementation: document.ProtoImplementation("graphene_core::ops::expression"),
		Visible:        true,
	}))
	net.Exports = []document.NodeInput{document.NodeInputOf(1, 0)}

	handle, err := rt.Compile(context.Background(), net, nil)
	require.NoError(t, err)

	out, err := rt.Execute(context.Background(), handle, evalctx.Empty())
	require.NoError(t, err)
	got, ok := out.F64()
	require.True(t, ok, "got %s", out)
	assert.Equal(t, 10.0, got)
}

func TestRuntimeRenderSVG(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)
	defer rt.Close()

	table := &value.VectorTable{Rows: []value.VectorRow{{
		Points:    []value.DVec2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}},
		Closed:    true,
		Transform: value.IdentityTransform(),
		Fill:      value.Color{R: 1, A: 1},
		Stroke:    value.Color{A: 1},
		Weight:    1,
	}}}

	net := document.NewNetwork(0)
	require.NoError(t, net.AddNode(1, &document.DocumentNode{
		Inputs:            []document.NodeInput{document.ValueInput(value.NewVectorTable(table), false)},
		Implementation:    document.ProtoImplementation("graphene_core::render::svg"),
		ManualComposition: "context",
		Visible:           true,
	}))
	net.Exports = []document.NodeInput{document.NodeInputOf(1, 0)}

	handle, err := rt.Compile(context.Background(), net, nil)
	require.NoError(t, err)

	ec := evalctx.Empty().WithFootprint(evalctx.Footprint{
		Transform:  value.IdentityTransform(),
		Resolution: value.DVec2{X: 64, Y: 64},
	})
	out, err := rt.Execute(context.Background(), handle, ec)
	require.NoError(t, err)

	svg, ok := out.Str()
	require.True(t, ok, "got %s", out)
	assert.True(t, strings.Contains(svg, "<svg"), svg)
	assert.True(t, strings.Contains(svg, "<path"), svg)
	assert.True(t, strings.Contains(svg, `width="64"`), svg)
}

func TestRuntimeHandleLifecycle(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)
	defer rt.Close()

	handle, err := rt.Compile(context.Background(), addNetwork(1, 1), nil)
	require.NoError(t, err)

	rt.Release(handle)
	_, err = rt.Execute(context.Background(), handle, evalctx.Empty())
	require.ErrorIs(t, err, ErrHandleNotFound)

	_, err = rt.Execute(context.Background(), nil, evalctx.Empty())
	require.ErrorIs(t, err, ErrHandleNotFound)
}

func TestRuntimeConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.yaml")
	require.NoError(t, os.WriteFile(path, []byte("memo:\n  bound: 16\nintrospection:\n  monitor_all: true\nseed: 99\n"), 0o644))

	rt, err := New(WithConfigFile(path))
	require.NoError(t, err)
	defer rt.Close()

	assert.True(t, rt.monitorAll)
	assert.Equal(t, 16, memo.DefaultBound())

	_, err = New(WithConfigFile(filepath.Join(dir, "missing.yaml")))
	require.Error(t, err)
}

func TestRuntimeNodeIDs(t *testing.T) {
	rt, err := New(WithSeed(5))
	require.NoError(t, err)
	defer rt.Close()

	rt2, err := New(WithSeed(5))
	require.NoError(t, err)
	defer rt2.Close()

	assert.Equal(t, rt.NewNodeID(), rt2.NewNodeID(), "same seed, same id stream")
	assert.NotEqual(t, rt.NewNodeID(), rt.NewNodeID())
}
