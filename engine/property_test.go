package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/rishavSprinto/eigenflow/types"
)

func TestProperty_LinearChainOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("linear chains execute every node exactly once in edge order", prop.ForAll(
		func(nodeCount int) bool {
			var mu sync.Mutex
			order := make([]string, 0, nodeCount)

			b := NewGraphBuilder(Definition{ID: "chain"}, testStepRegistry(t))
			ids := make([]string, nodeCount)
			for i := 0; i < nodeCount; i++ {
				id := fmt.Sprintf("n%d", i)
				ids[i] = id
				handler := func(_ context.Context, _ State) (State, error) {
					mu.Lock()
					order = append(order, id)
					mu.Unlock()
					return nil, nil
				}
				if err := b.AddNode(id, "fn", map[string]any{"fn": Handler(handler)}); err != nil {
					t.Logf("AddNode failed: %v", err)
					return false
				}
			}
			if err := b.AddEdge(b.Start(), ids[0]); err != nil {
				t.Logf("AddEdge failed: %v", err)
				return false
			}
			for i := 0; i < nodeCount-1; i++ {
				if err := b.AddEdge(ids[i], ids[i+1]); err != nil {
					t.Logf("AddEdge failed: %v", err)
					return false
				}
			}
			if err := b.AddEdge(ids[nodeCount-1], b.End()); err != nil {
				t.Logf("AddEdge failed: %v", err)
				return false
			}

			wf, err := b.Compile()
			if err != nil {
				t.Logf("Compile failed: %v", err)
				return false
			}

			if _, err := wf.Run(context.Background(), map[string]any{}); err != nil {
				t.Logf("Run failed: %v", err)
				return false
			}

			if len(order) != nodeCount {
				t.Logf("expected %d executions, got %d", nodeCount, len(order))
				return false
			}
			for i, id := range ids {
				if order[i] != id {
					t.Logf("expected %s at position %d, got %s", id, i, order[i])
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}

func TestProperty_ConditionalRoutingExclusivity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("exactly one of two complementary branches executes", prop.ForAll(
		func(flag bool) bool {
			var mu sync.Mutex
			executed := map[string]bool{}
			mark := func(id string) Handler {
				return func(_ context.Context, _ State) (State, error) {
					mu.Lock()
					executed[id] = true
					mu.Unlock()
					return nil, nil
				}
			}

			b := NewGraphBuilder(Definition{ID: "xor"}, testStepRegistry(t))
			if err := b.AddNode("check", "fn", map[string]any{"fn": noopHandler()}); err != nil {
				return false
			}
			if err := b.AddNode("yes", "fn", map[string]any{"fn": mark("yes")}); err != nil {
				return false
			}
			if err := b.AddNode("no", "fn", map[string]any{"fn": mark("no")}); err != nil {
				return false
			}
			if err := b.AddEdge(b.Start(), "check"); err != nil {
				return false
			}
			if err := b.AddEdge("check", "yes", When(func(s State) bool { return s.GetBool("flag") })); err != nil {
				return false
			}
			if err := b.AddEdge("check", "no", When(func(s State) bool { return !s.GetBool("flag") })); err != nil {
				return false
			}
			if err := b.AddEdge("yes", b.End()); err != nil {
				return false
			}
			if err := b.AddEdge("no", b.End()); err != nil {
				return false
			}

			wf, err := b.Compile()
			if err != nil {
				t.Logf("Compile failed: %v", err)
				return false
			}

			if _, err := wf.Run(context.Background(), map[string]any{"flag": flag}); err != nil {
				t.Logf("Run failed: %v", err)
				return false
			}

			return executed["yes"] == flag && executed["no"] == !flag
		},
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestProperty_MergeLastWriterWins(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("merge replaces fields from the update and keeps the rest", prop.ForAll(
		func(base map[string]int, update map[string]int) bool {
			s := State{}
			for k, v := range base {
				s[k] = v
			}
			u := State{}
			for k, v := range update {
				u[k] = v
			}

			merged := s.Merge(u)

			for k, v := range update {
				got, ok := merged.Get(k)
				if !ok || got != v {
					return false
				}
			}
			for k, v := range base {
				if _, overridden := update[k]; overridden {
					continue
				}
				got, ok := merged.Get(k)
				if !ok || got != v {
					return false
				}
			}
			// The receiver is never mutated.
			for k, v := range base {
				if s[k] != v {
					return false
				}
			}
			return len(merged) == len(mergedKeys(base, update))
		},
		gen.MapOf(gen.Identifier(), gen.Int()),
		gen.MapOf(gen.Identifier(), gen.Int()),
	))

	properties.TestingRun(t)
}

func mergedKeys(base, update map[string]int) map[string]bool {
	keys := make(map[string]bool, len(base)+len(update))
	for k := range base {
		keys[k] = true
	}
	for k := range update {
		keys[k] = true
	}
	return keys
}

func TestProperty_StepLimitAlwaysTerminatesCycles(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("an unbounded feedback loop fails at the configured limit", prop.ForAll(
		func(limit int) bool {
			iterations := 0
			b := NewGraphBuilder(Definition{ID: "spin"}, testStepRegistry(t))
			spin := func(_ context.Context, _ State) (State, error) {
				iterations++
				return nil, nil
			}
			if err := b.AddNode("spin", "fn", map[string]any{"fn": Handler(spin)}); err != nil {
				return false
			}
			if err := b.AddEdge(b.Start(), "spin"); err != nil {
				return false
			}
			if err := b.AddEdge("spin", "spin", When(func(State) bool { return true })); err != nil {
				return false
			}

			wf, err := b.Compile(WithStepLimit(limit))
			if err != nil {
				t.Logf("Compile failed: %v", err)
				return false
			}

			_, err = wf.Run(context.Background(), map[string]any{})
			if !types.IsCode(err, types.ErrStepLimitExceeded) {
				t.Logf("expected step limit error, got %v", err)
				return false
			}
			// The sentinel step plus node steps never exceed the limit.
			return iterations < limit
		},
		gen.IntRange(2, 30),
	))

	properties.TestingRun(t)
}

func noopHandler() Handler {
	return func(_ context.Context, _ State) (State, error) {
		return nil, nil
	}
}
