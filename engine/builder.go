package engine

import (
	"go.uber.org/zap"

	"github.com/rishavSprinto/eigenflow/registry"
	"github.com/rishavSprinto/eigenflow/types"
)

// GraphBuilder assembles a workflow graph: nodes resolved through the
// step registry, unconditional edges wired immediately, and conditional
// edges accumulated for resolution at compile time. The builder
// performs no execution; it only produces a description that Compile
// turns into an immutable CompiledWorkflow.
type GraphBuilder struct {
	def   Definition
	steps *registry.Registry[StepFactory]

	nodes     map[string]*Node
	nodeOrder []string
	direct    map[string]string
	pending   []conditionalEdge

	logger *zap.Logger
}

// BuilderOption configures a GraphBuilder.
type BuilderOption func(*GraphBuilder)

// WithBuilderLogger sets the logger used during graph assembly.
func WithBuilderLogger(logger *zap.Logger) BuilderOption {
	return func(b *GraphBuilder) {
		b.logger = logger
	}
}

// NewGraphBuilder creates a builder for the given workflow definition.
// The step registry supplies the handler factory for each step type.
func NewGraphBuilder(def Definition, steps *registry.Registry[StepFactory], opts ...BuilderOption) *GraphBuilder {
	b := &GraphBuilder{
		def:    def,
		steps:  steps,
		nodes:  make(map[string]*Node),
		direct: make(map[string]string),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(
		zap.String("component", "graph_builder"),
		zap.String("workflow_id", def.ID),
	)

	// Sentinels exist in every graph and carry no handler.
	b.nodes[StartNode] = &Node{ID: StartNode}
	b.nodes[EndNode] = &Node{ID: EndNode}

	return b
}

// Start returns the start sentinel id for use in AddEdge.
func (b *GraphBuilder) Start() string { return StartNode }

// End returns the end sentinel id for use in AddEdge.
func (b *GraphBuilder) End() string { return EndNode }

// AddNode declares a node with the given id and step type. The step
// registry's factory for that type constructs the handler from config.
// Fails with STEP_TYPE_NOT_FOUND for an unregistered type and
// DUPLICATE_NODE when the id is already taken within this graph.
func (b *GraphBuilder) AddNode(id, stepType string, config map[string]any) error {
	if id == "" {
		return types.NewError(types.ErrDuplicateNode, "node id must not be empty")
	}
	if id == StartNode || id == EndNode {
		return types.NewErrorf(types.ErrDuplicateNode, "node id %q is reserved", id)
	}
	if _, exists := b.nodes[id]; exists {
		return types.NewErrorf(types.ErrDuplicateNode, "node %q already declared", id).
			WithWorkflow(b.def.ID)
	}

	factory, ok := b.steps.Get(stepType)
	if !ok {
		return types.NewErrorf(types.ErrStepTypeNotFound,
			"step type %q is not registered (known: %v)", stepType, b.steps.Keys()).
			WithWorkflow(b.def.ID).WithNode(id)
	}

	handler, err := factory(config)
	if err != nil {
		return types.NewErrorf(types.ErrStepTypeNotFound,
			"step type %q rejected config for node %q", stepType, id).
			WithWorkflow(b.def.ID).WithNode(id).WithCause(err)
	}

	b.nodes[id] = &Node{
		ID:       id,
		StepType: stepType,
		Config:   config,
		handler:  handler,
	}
	b.nodeOrder = append(b.nodeOrder, id)

	b.logger.Debug("node added", zap.String("node_id", id), zap.String("step_type", stepType))
	return nil
}

// EdgeOption configures a single AddEdge call.
type EdgeOption func(*edgeConfig)

type edgeConfig struct {
	when Predicate
}

// When guards the edge with a predicate, making it conditional. The
// edge is deferred to compile time and grouped with sibling conditional
// edges sharing the same source.
func When(pred Predicate) EdgeOption {
	return func(c *edgeConfig) {
		c.when = pred
	}
}

// AddEdge declares a directed edge. Without a When option the edge is
// unconditional and wired immediately; with one it joins the pending
// conditional set owned by this build session.
//
// A source may have at most one unconditional edge or any number of
// conditional edges. Mixing the two kinds from the same source makes
// routing ambiguous and fails with AMBIGUOUS_ROUTING at declaration
// time.
func (b *GraphBuilder) AddEdge(from, to string, opts ...EdgeOption) error {
	var cfg edgeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if from == EndNode {
		return types.NewError(types.ErrUnknownNodeReference, "edges cannot originate from the end sentinel").
			WithWorkflow(b.def.ID)
	}
	if to == StartNode {
		return types.NewError(types.ErrUnknownNodeReference, "edges cannot target the start sentinel").
			WithWorkflow(b.def.ID)
	}

	hasConditional := b.hasConditionalFrom(from)

	if cfg.when == nil {
		if hasConditional {
			return types.NewErrorf(types.ErrAmbiguousRouting,
				"node %q already has conditional edges; adding an unconditional edge is ambiguous", from).
				WithWorkflow(b.def.ID)
		}
		if prev, exists := b.direct[from]; exists {
			return types.NewErrorf(types.ErrAmbiguousRouting,
				"node %q already has an unconditional edge to %q", from, prev).
				WithWorkflow(b.def.ID)
		}
		b.direct[from] = to
		return nil
	}

	if _, exists := b.direct[from]; exists {
		return types.NewErrorf(types.ErrAmbiguousRouting,
			"node %q already has an unconditional edge; adding conditional edges is ambiguous", from).
			WithWorkflow(b.def.ID)
	}
	b.pending = append(b.pending, conditionalEdge{from: from, to: to, when: cfg.when})
	return nil
}

func (b *GraphBuilder) hasConditionalFrom(from string) bool {
	for _, e := range b.pending {
		if e.from == from {
			return true
		}
	}
	return false
}
