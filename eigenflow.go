// Package eigenflow provides a top-level convenience entry point for
// building and running workflows with minimal boilerplate.
//
// Usage:
//
//	import "github.com/rishavSprinto/eigenflow"
//
//	stepReg := eigenflow.NewStepRegistry()
//	wfReg := eigenflow.NewWorkflowRegistry()
//	b := eigenflow.NewBuilder(eigenflow.Definition{ID: "demo"}, stepReg)
//
// This is a thin wrapper over the engine and registry packages; use the
// shorter import path when you do not need their full surface.
package eigenflow

import (
	"github.com/rishavSprinto/eigenflow/engine"
	"github.com/rishavSprinto/eigenflow/registry"
)

// State is the shared field map driven through a workflow graph.
type State = engine.State

// Handler is a node's runnable unit.
type Handler = engine.Handler

// Predicate guards a conditional edge.
type Predicate = engine.Predicate

// Definition identifies a workflow and its input/state schemas.
type Definition = engine.Definition

// NewStepRegistry creates a fresh step-type registry.
func NewStepRegistry() *registry.Registry[engine.StepFactory] {
	return registry.New[engine.StepFactory]("steps")
}

// NewWorkflowRegistry creates a fresh compiled-workflow registry.
func NewWorkflowRegistry() *registry.Registry[*engine.CompiledWorkflow] {
	return registry.New[*engine.CompiledWorkflow]("workflows")
}

// NewBuilder creates a graph builder for the given definition.
func NewBuilder(def Definition, steps *registry.Registry[engine.StepFactory], opts ...engine.BuilderOption) *engine.GraphBuilder {
	return engine.NewGraphBuilder(def, steps, opts...)
}

// When guards an edge with a predicate, making it conditional.
var When = engine.When
