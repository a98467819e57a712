package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/rishavSprinto/eigenflow/checkpoint"
	"github.com/rishavSprinto/eigenflow/types"
)

// DefaultStepLimit bounds the number of supersteps a run may take when
// no explicit limit is configured. Feedback edges are legal, so the
// limit is the only thing standing between a cyclic graph and an
// unbounded loop.
const DefaultStepLimit = 100

// CompileOption configures the compiled workflow.
type CompileOption func(*CompiledWorkflow)

// WithStepLimit sets the maximum number of supersteps per run.
func WithStepLimit(limit int) CompileOption {
	return func(w *CompiledWorkflow) {
		w.stepLimit = limit
	}
}

// WithRunTimeout sets an overall deadline per run. Zero disables it.
func WithRunTimeout(d time.Duration) CompileOption {
	return func(w *CompiledWorkflow) {
		w.runTimeout = d
	}
}

// WithCheckpointStore attaches the store that receives a checkpoint
// after every superstep, keyed by thread id.
func WithCheckpointStore(store checkpoint.Store) CompileOption {
	return func(w *CompiledWorkflow) {
		w.checkpoints = store
	}
}

// WithListeners registers run lifecycle listeners (tracing, metrics).
// Listener failures never fail the run.
func WithListeners(listeners ...RunListener) CompileOption {
	return func(w *CompiledWorkflow) {
		w.listeners = append(w.listeners, listeners...)
	}
}

// WithLogger sets the executor logger.
func WithLogger(logger *zap.Logger) CompileOption {
	return func(w *CompiledWorkflow) {
		w.logger = logger
	}
}

// CompiledWorkflow is the immutable, executable form of a workflow
// definition: the finalized graph with all conditional edges resolved
// into per-source routers, a checkpoint store, and a Run entry point.
// It is created once and reused across many runs.
type CompiledWorkflow struct {
	def    Definition
	nodes  map[string]*Node
	direct map[string]string
	routes map[string]*BranchRouter

	checkpoints checkpoint.Store
	stepLimit   int
	runTimeout  time.Duration
	listeners   []RunListener
	logger      *zap.Logger
}

// Compile finalizes the graph: pending conditional edges are resolved
// into routing functions, every edge endpoint is checked against the
// declared nodes (UNKNOWN_NODE_REFERENCE on a miss), a checkpoint store
// is attached, and the result is frozen. No further nodes or edges may
// be added afterwards.
func (b *GraphBuilder) Compile(opts ...CompileOption) (*CompiledWorkflow, error) {
	for from, to := range b.direct {
		if _, ok := b.nodes[from]; !ok {
			return nil, unknownNode(b.def.ID, from)
		}
		if _, ok := b.nodes[to]; !ok {
			return nil, unknownNode(b.def.ID, to)
		}
	}
	for _, e := range b.pending {
		if _, ok := b.nodes[e.from]; !ok {
			return nil, unknownNode(b.def.ID, e.from)
		}
		if _, ok := b.nodes[e.to]; !ok {
			return nil, unknownNode(b.def.ID, e.to)
		}
	}

	// Freeze: compiled state is copied out of the builder so later
	// builder mutation cannot leak into the workflow.
	nodes := make(map[string]*Node, len(b.nodes))
	for id, n := range b.nodes {
		nodes[id] = n
	}
	direct := make(map[string]string, len(b.direct))
	for from, to := range b.direct {
		direct[from] = to
	}

	w := &CompiledWorkflow{
		def:       b.def,
		nodes:     nodes,
		direct:    direct,
		routes:    resolveConditionalEdges(b.pending),
		stepLimit: DefaultStepLimit,
		logger:    b.logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.checkpoints == nil {
		w.checkpoints = checkpoint.NewMemoryStore()
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	w.logger = w.logger.With(
		zap.String("component", "executor"),
		zap.String("workflow_id", b.def.ID),
	)

	w.logger.Info("workflow compiled",
		zap.Int("nodes", len(b.nodeOrder)),
		zap.Int("unconditional_edges", len(direct)),
		zap.Int("conditional_sources", len(w.routes)),
		zap.Int("step_limit", w.stepLimit),
	)
	return w, nil
}

func unknownNode(workflowID, nodeID string) error {
	return types.NewErrorf(types.ErrUnknownNodeReference,
		"edge references undeclared node %q", nodeID).
		WithWorkflow(workflowID)
}

// ID returns the workflow id.
func (w *CompiledWorkflow) ID() string { return w.def.ID }

// Definition returns the workflow definition this graph was built from.
func (w *CompiledWorkflow) Definition() Definition { return w.def }

// ConditionalTargets returns the distinct conditional targets declared
// from nodeID, in declaration order. For introspection only.
func (w *CompiledWorkflow) ConditionalTargets(nodeID string) []string {
	r, ok := w.routes[nodeID]
	if !ok {
		return nil
	}
	return r.Targets()
}
