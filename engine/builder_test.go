package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishavSprinto/eigenflow/registry"
	"github.com/rishavSprinto/eigenflow/types"
)

// fnFactory builds a handler directly from config["fn"], letting tests
// declare node behavior inline.
func fnFactory(config map[string]any) (Handler, error) {
	h, ok := config["fn"].(Handler)
	if !ok {
		return nil, fmt.Errorf("fn is required")
	}
	return h, nil
}

// setFactory builds a handler that writes config["value"] into
// config["field"].
func setFactory(config map[string]any) (Handler, error) {
	field, _ := config["field"].(string)
	if field == "" {
		return nil, fmt.Errorf("field is required")
	}
	value := config["value"]
	return func(_ context.Context, _ State) (State, error) {
		return State{field: value}, nil
	}, nil
}

func testStepRegistry(t *testing.T) *registry.Registry[StepFactory] {
	t.Helper()
	reg := registry.New[StepFactory]("steps")
	require.NoError(t, reg.Register("fn", fnFactory))
	require.NoError(t, reg.Register("set", setFactory))
	return reg
}

func noop(_ context.Context, _ State) (State, error) {
	return nil, nil
}

func TestGraphBuilder_AddNode(t *testing.T) {
	b := NewGraphBuilder(Definition{ID: "wf"}, testStepRegistry(t))

	require.NoError(t, b.AddNode("a", "fn", map[string]any{"fn": Handler(noop)}))

	t.Run("duplicate id", func(t *testing.T) {
		err := b.AddNode("a", "fn", map[string]any{"fn": Handler(noop)})
		assert.True(t, types.IsCode(err, types.ErrDuplicateNode))
	})

	t.Run("unknown step type", func(t *testing.T) {
		err := b.AddNode("b", "nope", nil)
		assert.True(t, types.IsCode(err, types.ErrStepTypeNotFound))
	})

	t.Run("reserved ids", func(t *testing.T) {
		assert.True(t, types.IsCode(b.AddNode(StartNode, "fn", nil), types.ErrDuplicateNode))
		assert.True(t, types.IsCode(b.AddNode(EndNode, "fn", nil), types.ErrDuplicateNode))
		assert.Error(t, b.AddNode("", "fn", nil))
	})

	t.Run("factory rejects config", func(t *testing.T) {
		err := b.AddNode("c", "set", map[string]any{})
		require.Error(t, err)
		assert.True(t, types.IsCode(err, types.ErrStepTypeNotFound))
	})
}

func TestGraphBuilder_AddEdge_Ambiguity(t *testing.T) {
	always := Predicate(func(State) bool { return true })

	t.Run("unconditional after conditional", func(t *testing.T) {
		b := NewGraphBuilder(Definition{ID: "wf"}, testStepRegistry(t))
		require.NoError(t, b.AddNode("a", "fn", map[string]any{"fn": Handler(noop)}))
		require.NoError(t, b.AddEdge("a", b.End(), When(always)))

		err := b.AddEdge("a", b.End())
		assert.True(t, types.IsCode(err, types.ErrAmbiguousRouting))
	})

	t.Run("conditional after unconditional", func(t *testing.T) {
		b := NewGraphBuilder(Definition{ID: "wf"}, testStepRegistry(t))
		require.NoError(t, b.AddNode("a", "fn", map[string]any{"fn": Handler(noop)}))
		require.NoError(t, b.AddEdge("a", b.End()))

		err := b.AddEdge("a", b.End(), When(always))
		assert.True(t, types.IsCode(err, types.ErrAmbiguousRouting))
	})

	t.Run("second unconditional", func(t *testing.T) {
		b := NewGraphBuilder(Definition{ID: "wf"}, testStepRegistry(t))
		require.NoError(t, b.AddNode("a", "fn", map[string]any{"fn": Handler(noop)}))
		require.NoError(t, b.AddNode("x", "fn", map[string]any{"fn": Handler(noop)}))
		require.NoError(t, b.AddEdge("a", "x"))

		err := b.AddEdge("a", b.End())
		assert.True(t, types.IsCode(err, types.ErrAmbiguousRouting))
	})

	t.Run("multiple conditional edges allowed", func(t *testing.T) {
		b := NewGraphBuilder(Definition{ID: "wf"}, testStepRegistry(t))
		require.NoError(t, b.AddNode("a", "fn", map[string]any{"fn": Handler(noop)}))
		require.NoError(t, b.AddNode("x", "fn", map[string]any{"fn": Handler(noop)}))
		require.NoError(t, b.AddEdge("a", "x", When(always)))
		require.NoError(t, b.AddEdge("a", b.End(), When(always)))
	})
}

func TestGraphBuilder_SentinelEdges(t *testing.T) {
	b := NewGraphBuilder(Definition{ID: "wf"}, testStepRegistry(t))

	assert.Error(t, b.AddEdge(b.End(), "anywhere"))
	assert.Error(t, b.AddEdge("anywhere", b.Start()))
}

func TestCompile_UnknownNodeReference(t *testing.T) {
	t.Run("unconditional", func(t *testing.T) {
		b := NewGraphBuilder(Definition{ID: "wf"}, testStepRegistry(t))
		require.NoError(t, b.AddEdge(b.Start(), "ghost"))

		_, err := b.Compile()
		assert.True(t, types.IsCode(err, types.ErrUnknownNodeReference))
	})

	t.Run("conditional", func(t *testing.T) {
		b := NewGraphBuilder(Definition{ID: "wf"}, testStepRegistry(t))
		require.NoError(t, b.AddEdge(b.Start(), "ghost", When(func(State) bool { return true })))

		_, err := b.Compile()
		assert.True(t, types.IsCode(err, types.ErrUnknownNodeReference))
	})
}

func TestCompile_FreezesGraph(t *testing.T) {
	b := NewGraphBuilder(Definition{ID: "wf"}, testStepRegistry(t))
	require.NoError(t, b.AddNode("a", "set", map[string]any{"field": "a", "value": 1}))
	require.NoError(t, b.AddEdge(b.Start(), "a"))
	require.NoError(t, b.AddEdge("a", b.End()))

	wf, err := b.Compile()
	require.NoError(t, err)

	// Builder mutation after compile must not leak into the workflow.
	require.NoError(t, b.AddNode("late", "set", map[string]any{"field": "late", "value": 2}))
	require.NoError(t, b.AddEdge("late", b.End()))

	final, err := wf.Run(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, State{"a": 1}, final)
}

func TestCompiledWorkflow_ConditionalTargets(t *testing.T) {
	b := NewGraphBuilder(Definition{ID: "wf"}, testStepRegistry(t))
	require.NoError(t, b.AddNode("a", "fn", map[string]any{"fn": Handler(noop)}))
	require.NoError(t, b.AddNode("x", "fn", map[string]any{"fn": Handler(noop)}))
	require.NoError(t, b.AddNode("y", "fn", map[string]any{"fn": Handler(noop)}))
	require.NoError(t, b.AddEdge(b.Start(), "a"))
	pred := func(State) bool { return true }
	require.NoError(t, b.AddEdge("a", "x", When(pred)))
	require.NoError(t, b.AddEdge("a", "y", When(pred)))
	require.NoError(t, b.AddEdge("a", "x", When(pred)))

	wf, err := b.Compile()
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y"}, wf.ConditionalTargets("a"))
	assert.Nil(t, wf.ConditionalTargets("x"))
	assert.Equal(t, "wf", wf.ID())
}
