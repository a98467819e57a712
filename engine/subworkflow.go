package engine

import (
	"context"
	"fmt"
)

// SubWorkflowOption configures a compiled workflow used as a step.
type SubWorkflowOption func(*subWorkflowStep)

// WithTargetKey nests the child's final state under a single parent
// field instead of merging its fields directly into the parent state.
func WithTargetKey(key string) SubWorkflowOption {
	return func(s *subWorkflowStep) {
		s.targetKey = key
	}
}

// WithInputMapper narrows or reshapes the parent state before it is
// handed to the child run. Without a mapper the child receives the full
// parent state.
func WithInputMapper(mapper func(State) State) SubWorkflowOption {
	return func(s *subWorkflowStep) {
		s.inputMapper = mapper
	}
}

type subWorkflowStep struct {
	workflow    *CompiledWorkflow
	targetKey   string
	inputMapper func(State) State
}

// AsStep adapts the compiled workflow into a step handler so one
// workflow can run as a node inside another. The child runs to
// completion on its own sub-graph and checkpoint thread; its final
// state merges back into the parent either under the configured target
// key or by direct field-level merge. A child failure propagates as
// the parent node's failure.
func (w *CompiledWorkflow) AsStep(opts ...SubWorkflowOption) Handler {
	s := &subWorkflowStep{workflow: w}
	for _, opt := range opts {
		opt(s)
	}

	return func(ctx context.Context, state State) (State, error) {
		input := state
		if s.inputMapper != nil {
			input = s.inputMapper(state)
		}

		final, err := s.workflow.Run(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("nested workflow %s: %w", s.workflow.ID(), err)
		}

		if s.targetKey != "" {
			return State{s.targetKey: map[string]any(final)}, nil
		}
		return final, nil
	}
}
