package engine

import (
	"context"

	"github.com/rishavSprinto/eigenflow/types"
)

// Reserved sentinel node ids. Every graph has both; they carry no
// handler. START marks where execution enters, END where a branch
// terminates.
const (
	StartNode = "__start__"
	EndNode   = "__end__"
)

// Handler is the runnable unit attached to a node. It receives the
// full current state and returns a partial state to merge back, or an
// error which fails the run wrapped with the node id.
type Handler func(ctx context.Context, state State) (State, error)

// Predicate guards a conditional edge. Predicates must be pure
// functions of the state snapshot: no mutation, no side effects.
type Predicate func(state State) bool

// StepFactory constructs a Handler for one node from its opaque
// configuration payload. Factories are registered per step type and
// consulted by the builder at AddNode time, so an unknown or malformed
// config fails fast during graph assembly rather than mid-run.
type StepFactory func(config map[string]any) (Handler, error)

// Node is a named step in a workflow graph.
type Node struct {
	// ID is the unique identifier for this node within one graph.
	ID string
	// StepType is the registered step-type tag the node was built from.
	StepType string
	// Config is the opaque configuration payload passed to the factory.
	Config map[string]any

	handler Handler
}

// sentinel reports whether the node is one of the reserved sentinels.
func (n *Node) sentinel() bool {
	return n.ID == StartNode || n.ID == EndNode
}

// Definition identifies a workflow and declares its input and state
// shapes. The id must be globally unique within the workflow registry.
type Definition struct {
	ID          string
	InputSchema *types.JSONSchema
	StateSchema *types.JSONSchema
	Metadata    map[string]any
}
