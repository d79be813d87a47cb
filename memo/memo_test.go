package memo

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphene-go/graphene/evalctx"
	"github.com/graphene-go/graphene/node"
	"github.com/graphene-go/graphene/value"
)

// countingNode counts evaluations and returns a fixed value.
type countingNode struct {
	node.Base
	calls atomic.Int64
	out   value.TaggedValue
}

func (c *countingNode) Eval(context.Context, *evalctx.Context) value.TaggedValue {
	c.calls.Add(1)
	return c.out
}

func TestMemoNode(t *testing.T) {
	t.Run("caches the last output", func(t *testing.T) {
		inner := &countingNode{out: value.NewF64(5)}
		m := NewNode(inner)

		for i := 0; i < 3; i++ {
			out := m.Eval(context.Background(), evalctx.Empty())
			f, _ := out.F64()
			assert.Equal(t, 5.0, f)
		}
		assert.Equal(t, int64(1), inner.calls.Load())
	})

	t.Run("reset invalidates", func(t *testing.T) {
		inner := &countingNode{out: value.NewF64(5)}
		m := NewNode(inner)

		m.Eval(context.Background(), evalctx.Empty())
		m.Reset()
		m.Eval(context.Background(), evalctx.Empty())
		assert.Equal(t, int64(2), inner.calls.Load())
	})

	t.Run("poison is not cached", func(t *testing.T) {
		inner := &countingNode{out: value.NewError("x", "boom")}
		m := NewNode(inner)

		m.Eval(context.Background(), evalctx.Empty())
		m.Eval(context.Background(), evalctx.Empty())
		assert.Equal(t, int64(2), inner.calls.Load())
	})

	// Wrapping a pure upstream in a memo must not change what flows out.
	t.Run("transparency", func(t *testing.T) {
		inner := &countingNode{out: value.NewString("same")}
		m := NewNode(inner)
		direct := inner.out
		memoized := m.Eval(context.Background(), evalctx.Empty())
		assert.True(t, direct.Equal(memoized))
	})
}

func TestImpureMemoNode(t *testing.T) {
	ctxA := evalctx.Empty().WithAnimationTime(1)
	ctxB := evalctx.Empty().WithAnimationTime(2)

	t.Run("keys by context hash", func(t *testing.T) {
		inner := &countingNode{out: value.NewF64(7)}
		m := NewImpureNode(inner, 8)

		m.Eval(context.Background(), ctxA)
		m.Eval(context.Background(), ctxA)
		assert.Equal(t, int64(1), inner.calls.Load(), "same context hits")

		m.Eval(context.Background(), ctxB)
		assert.Equal(t, int64(2), inner.calls.Load(), "different context misses")
	})

	t.Run("evicts least recently used at the bound", func(t *testing.T) {
		inner := &countingNode{out: value.NewF64(7)}
		m := NewImpureNode(inner, 2)

		c1 := evalctx.Empty().WithAnimationTime(1)
		c2 := evalctx.Empty().WithAnimationTime(2)
		c3 := evalctx.Empty().WithAnimationTime(3)

		m.Eval(context.Background(), c1)
		m.Eval(context.Background(), c2)
		m.Eval(context.Background(), c1) // refresh c1
		m.Eval(context.Background(), c3) // evicts c2
		assert.Equal(t, int64(3), inner.calls.Load())

		m.Eval(context.Background(), c1)
		assert.Equal(t, int64(3), inner.calls.Load(), "c1 survived eviction")

		m.Eval(context.Background(), c2)
		assert.Equal(t, int64(4), inner.calls.Load(), "c2 was evicted")
	})

	t.Run("default bound applies", func(t *testing.T) {
		old := DefaultBound()
		SetDefaultBound(3)
		defer SetDefaultBound(old)
		assert.Equal(t, 3, DefaultBound())
		m := NewImpureNode(&countingNode{out: value.None}, 0)
		assert.Equal(t, 3, m.bound)
	})
}

func TestRecordNode(t *testing.T) {
	t.Run("records input and output of one evaluation", func(t *testing.T) {
		inner := &countingNode{out: value.NewF64(9)}
		primary := &node.Constant{Value: value.NewF64(4)}
		r := NewRecordNode(inner, primary)

		out := r.Eval(context.Background(), evalctx.Empty())
		f, _ := out.F64()
		assert.Equal(t, 9.0, f)

		rec, ok := r.Latest()
		require.True(t, ok)
		in, _ := rec.Input.F64()
		got, _ := rec.Output.F64()
		assert.Equal(t, 4.0, in)
		assert.Equal(t, 9.0, got)
		assert.False(t, rec.Timestamp.IsZero())
	})

	t.Run("history is capped", func(t *testing.T) {
		r := NewRecordNode(&countingNode{out: value.NewF64(1)}, nil)
		for i := 0; i < recordCap*2; i++ {
			r.Eval(context.Background(), evalctx.Empty())
		}
		assert.Len(t, r.History(), recordCap)
	})

	t.Run("no tap before the first evaluation", func(t *testing.T) {
		r := NewRecordNode(&countingNode{out: value.None}, nil)
		_, ok := r.Latest()
		assert.False(t, ok)
	})

	t.Run("reset clears history", func(t *testing.T) {
		r := NewRecordNode(&countingNode{out: value.None}, nil)
		r.Eval(context.Background(), evalctx.Empty())
		r.Reset()
		assert.Empty(t, r.History())
	})
}
