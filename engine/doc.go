// Copyright (c) Eigenflow Authors.
// Licensed under the MIT License.

/*
Package engine implements the declarative workflow graph engine: a
builder DSL that assembles nodes and edges over a shared schema-typed
state, a compiler that finalizes conditional edges into routing
functions, and an execution runtime that drives state through the
compiled graph until it reaches the end sentinel.

# Core types

  - State: shared field map with shallow-merge semantics
  - Handler: a node's runnable unit, (ctx, State) -> partial State
  - Predicate: pure routing condition over a state snapshot
  - GraphBuilder: assembles nodes (via the step registry) and edges
  - CompiledWorkflow: immutable executable graph with Run/Resume
  - BranchRouter: per-source conditional dispatch built at compile time

# Execution model

A run maintains an active branch set, initially the start sentinel. Each
superstep executes every active node concurrently against the same state
snapshot, merges the collected partial updates in branch declaration
order (last writer wins), then resolves outbound edges to obtain the
next active set. Conditional edges with zero matches halt that branch;
multiple matches fan out into parallel branches. A step limit guards
feedback edges against unbounded loops, and an optional run timeout
aborts in-flight branches.

A compiled workflow can itself serve as a step inside another workflow
via AsStep, with optional input mapping and a target key for nesting the
child's final state.
*/
package engine
