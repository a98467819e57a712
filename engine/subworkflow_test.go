package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishavSprinto/eigenflow/types"
)

func compileChild(t *testing.T, id string, h Handler) *CompiledWorkflow {
	t.Helper()
	b := NewGraphBuilder(Definition{ID: id}, testStepRegistry(t))
	addFnNode(t, b, "work", h)
	require.NoError(t, b.AddEdge(b.Start(), "work"))
	require.NoError(t, b.AddEdge("work", b.End()))
	wf, err := b.Compile()
	require.NoError(t, err)
	return wf
}

func compileParentWith(t *testing.T, childStep Handler) *CompiledWorkflow {
	t.Helper()
	b := NewGraphBuilder(Definition{ID: "parent"}, testStepRegistry(t))
	addFnNode(t, b, "prepare", func(_ context.Context, _ State) (State, error) {
		return State{"prepared": true}, nil
	})
	addFnNode(t, b, "child", childStep)
	require.NoError(t, b.AddEdge(b.Start(), "prepare"))
	require.NoError(t, b.AddEdge("prepare", "child"))
	require.NoError(t, b.AddEdge("child", b.End()))
	wf, err := b.Compile()
	require.NoError(t, err)
	return wf
}

func TestAsStep_DirectMerge(t *testing.T) {
	child := compileChild(t, "child", func(_ context.Context, s State) (State, error) {
		return State{"shouted": s.GetString("word") + "!"}, nil
	})
	parent := compileParentWith(t, child.AsStep())

	final, err := parent.Run(context.Background(), map[string]any{"word": "go"})
	require.NoError(t, err)

	// Child fields land directly in the parent state.
	assert.Equal(t, "go!", final.GetString("shouted"))
	assert.True(t, final.GetBool("prepared"))
}

func TestAsStep_TargetKey(t *testing.T) {
	child := compileChild(t, "child", func(_ context.Context, _ State) (State, error) {
		return State{"answer": 42}, nil
	})
	parent := compileParentWith(t, child.AsStep(WithTargetKey("sub")))

	final, err := parent.Run(context.Background(), map[string]any{"word": "go"})
	require.NoError(t, err)

	sub, ok := final.Get("sub")
	require.True(t, ok)
	nested, ok := sub.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 42, nested["answer"])
	// Nesting keeps the child's copy of parent fields out of the top level.
	assert.Equal(t, "go", final.GetString("word"))
}

func TestAsStep_InputMapper(t *testing.T) {
	var childSaw State
	child := compileChild(t, "child", func(_ context.Context, s State) (State, error) {
		childSaw = s.Clone()
		return State{"ok": true}, nil
	})
	mapper := func(parent State) State {
		return State{"word": parent.GetString("word")}
	}
	parent := compileParentWith(t, child.AsStep(WithInputMapper(mapper)))

	_, err := parent.Run(context.Background(), map[string]any{"word": "go", "secret": "hidden"})
	require.NoError(t, err)

	assert.Equal(t, "go", childSaw.GetString("word"))
	_, leaked := childSaw.Get("secret")
	assert.False(t, leaked)
}

func TestAsStep_ChildFailurePropagates(t *testing.T) {
	boom := errors.New("child broke")
	child := compileChild(t, "broken-child", func(_ context.Context, _ State) (State, error) {
		return nil, boom
	})
	parent := compileParentWith(t, child.AsStep())

	_, err := parent.Run(context.Background(), map[string]any{})
	require.Error(t, err)

	// The child's structured error surfaces through the parent with the
	// nested workflow named, keeping the failing node attribution intact.
	assert.True(t, types.IsCode(err, types.ErrHandlerExecution))
	var te *types.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "work", te.NodeID)
	assert.Equal(t, "broken-child", te.WorkflowID)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "nested workflow broken-child")
}

func TestAsStep_ChildInputValidation(t *testing.T) {
	def := Definition{
		ID: "strict-child",
		InputSchema: types.NewObjectSchema().
			AddProperty("word", types.NewStringSchema()).
			AddRequired("word"),
	}
	b := NewGraphBuilder(def, testStepRegistry(t))
	addFnNode(t, b, "work", noop)
	require.NoError(t, b.AddEdge(b.Start(), "work"))
	require.NoError(t, b.AddEdge("work", b.End()))
	child, err := b.Compile()
	require.NoError(t, err)

	parent := compileParentWith(t, child.AsStep(WithInputMapper(func(State) State {
		return State{}
	})))

	_, err = parent.Run(context.Background(), map[string]any{"word": "present"})
	require.Error(t, err)
	// The parent wraps the child's rejection as a handler failure; the
	// validation detail stays in the chain.
	assert.True(t, types.IsCode(err, types.ErrHandlerExecution))
	assert.Contains(t, err.Error(), "INPUT_VALIDATION")
}
