package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rishavSprinto/eigenflow/checkpoint"
	"github.com/rishavSprinto/eigenflow/types"
)

// RunInfo identifies one run for lifecycle listeners.
type RunInfo struct {
	WorkflowID string
	RunID      string
	ThreadID   string
	Tags       map[string]string
}

// RunListener observes run lifecycle events. Implementations include
// the tracing and metrics collaborators. A listener is called at most
// once per Run invocation on each side; panics and errors inside a
// listener are swallowed, never failing the run.
type RunListener interface {
	// OnRunStart is called before the first superstep. The returned
	// context replaces the run context, letting listeners attach spans.
	OnRunStart(ctx context.Context, info RunInfo) context.Context
	// OnRunEnd is called after the run completes or fails.
	OnRunEnd(ctx context.Context, info RunInfo, err error)
}

// RunOption configures a single Run invocation.
type RunOption func(*runConfig)

type runConfig struct {
	threadID string
	tags     map[string]string
}

// WithThreadID keys this run's checkpoints to the given thread id so a
// later Resume can pick it up. Defaults to the run id.
func WithThreadID(threadID string) RunOption {
	return func(c *runConfig) {
		c.threadID = threadID
	}
}

// WithRunTags attaches string tags passed to run lifecycle listeners.
func WithRunTags(tags map[string]string) RunOption {
	return func(c *runConfig) {
		c.tags = tags
	}
}

// Run validates input against the workflow's input schema and drives
// the compiled graph from the start sentinel until the active branch
// set empties or reaches only the end sentinel, returning the final
// merged state. No node executes when validation fails.
func (w *CompiledWorkflow) Run(ctx context.Context, input map[string]any, opts ...RunOption) (State, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := w.def.InputSchema.Validate(input); err != nil {
		var te *types.Error
		if errors.As(err, &te) {
			te.WithWorkflow(w.def.ID)
		}
		return nil, err
	}

	runID := uuid.NewString()
	if cfg.threadID == "" {
		cfg.threadID = runID
	}

	return w.execute(ctx, State(input).Clone(), []string{StartNode}, 0, RunInfo{
		WorkflowID: w.def.ID,
		RunID:      runID,
		ThreadID:   cfg.threadID,
		Tags:       cfg.tags,
	})
}

// Resume continues a run from the latest checkpoint stored under
// threadID, using the checkpointed state and active branch set.
func (w *CompiledWorkflow) Resume(ctx context.Context, threadID string, opts ...RunOption) (State, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	cp, err := w.checkpoints.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}

	return w.execute(ctx, State(cp.State).Clone(), cp.ActiveNodes, cp.Step, RunInfo{
		WorkflowID: w.def.ID,
		RunID:      cp.RunID,
		ThreadID:   threadID,
		Tags:       cfg.tags,
	})
}

// execute runs the superstep loop. Within one superstep every active
// branch evaluates concurrently over its own clone of the same state
// snapshot; updates from the same step are invisible to sibling
// branches and are merged afterwards in branch declaration order, so
// the last-declared writer wins on a field conflict.
func (w *CompiledWorkflow) execute(ctx context.Context, state State, active []string, step int, info RunInfo) (final State, err error) {
	if w.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.runTimeout)
		defer cancel()
	}

	start := time.Now()
	ctx = w.notifyStart(ctx, info)
	defer func() {
		w.notifyEnd(ctx, info, err)
	}()

	w.logger.Info("run started",
		zap.String("run_id", info.RunID),
		zap.String("thread_id", info.ThreadID),
		zap.Int("step", step),
	)

	for {
		exec := executable(active)
		if len(exec) == 0 {
			break
		}
		if step >= w.stepLimit {
			return nil, types.NewErrorf(types.ErrStepLimitExceeded,
				"step limit %d exceeded with %d branches still active", w.stepLimit, len(exec)).
				WithWorkflow(w.def.ID)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, w.runAborted(ctxErr, info)
		}

		updates := make([]State, len(exec))
		snapshot := state.Clone()

		g, gctx := errgroup.WithContext(ctx)
		for i, id := range exec {
			node := w.nodes[id]
			if node.sentinel() {
				continue
			}
			g.Go(func() (nodeErr error) {
				defer func() {
					if r := recover(); r != nil {
						nodeErr = types.NewErrorf(types.ErrHandlerExecution,
							"handler panicked: %v", r).
							WithWorkflow(w.def.ID).WithNode(node.ID)
					}
				}()
				update, herr := node.handler(gctx, snapshot.Clone())
				if herr != nil {
					var te *types.Error
					if errors.As(herr, &te) && te.Code == types.ErrHandlerExecution {
						return herr
					}
					return types.NewErrorf(types.ErrHandlerExecution,
						"step type %q failed", node.StepType).
						WithWorkflow(w.def.ID).WithNode(node.ID).WithCause(herr)
				}
				updates[i] = update
				return nil
			})
		}
		if gerr := g.Wait(); gerr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, w.runAborted(ctxErr, info)
			}
			return nil, gerr
		}

		// Merge partial updates in branch declaration order.
		for _, update := range updates {
			if len(update) > 0 {
				state = state.Merge(update)
			}
		}

		// Resolve outbound edges against the post-merge state to obtain
		// the next active set; duplicates collapse at join points.
		next := make([]string, 0, len(exec))
		seen := make(map[string]bool, len(exec))
		for _, id := range exec {
			for _, target := range w.nextTargets(id, state) {
				if !seen[target] {
					seen[target] = true
					next = append(next, target)
				}
			}
		}

		step++
		active = next

		if ctx.Err() == nil {
			w.saveCheckpoint(ctx, info, step, state, active)
		}

		w.logger.Debug("superstep completed",
			zap.String("run_id", info.RunID),
			zap.Int("step", step),
			zap.Strings("active", active),
		)
	}

	w.logger.Info("run completed",
		zap.String("run_id", info.RunID),
		zap.Int("steps", step),
		zap.Duration("duration", time.Since(start)),
	)
	return state, nil
}

// executable filters out the end sentinel: a branch that reached END is
// finished, and the run terminates when nothing else remains.
func executable(active []string) []string {
	out := make([]string, 0, len(active))
	for _, id := range active {
		if id != EndNode {
			out = append(out, id)
		}
	}
	return out
}

// nextTargets resolves a node's outbound edges. An unconditional edge
// yields its single target; conditional edges route through the
// compiled BranchRouter; no edges means the branch halts.
func (w *CompiledWorkflow) nextTargets(id string, state State) []string {
	if to, ok := w.direct[id]; ok {
		return []string{to}
	}
	if r, ok := w.routes[id]; ok {
		return r.Route(state)
	}
	return nil
}

func (w *CompiledWorkflow) runAborted(ctxErr error, info RunInfo) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return types.NewErrorf(types.ErrRunTimeout,
			"run exceeded %s deadline", w.runTimeout).
			WithWorkflow(w.def.ID).WithCause(ctxErr)
	}
	return ctxErr
}

// saveCheckpoint persists progress after a superstep. Store failures
// are logged, not fatal: resumability degrades, the run does not.
func (w *CompiledWorkflow) saveCheckpoint(ctx context.Context, info RunInfo, step int, state State, active []string) {
	cp := &checkpoint.Checkpoint{
		ID:          uuid.NewString(),
		WorkflowID:  w.def.ID,
		ThreadID:    info.ThreadID,
		RunID:       info.RunID,
		Step:        step,
		State:       state.Clone(),
		ActiveNodes: append([]string(nil), active...),
		CreatedAt:   time.Now(),
	}
	if err := w.checkpoints.Save(ctx, cp); err != nil {
		w.logger.Warn("checkpoint save failed",
			zap.String("thread_id", info.ThreadID),
			zap.Int("step", step),
			zap.Error(err),
		)
	}
}

func (w *CompiledWorkflow) notifyStart(ctx context.Context, info RunInfo) context.Context {
	for _, l := range w.listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Warn("run listener panicked on start", zap.Any("panic", r))
				}
			}()
			if next := l.OnRunStart(ctx, info); next != nil {
				ctx = next
			}
		}()
	}
	return ctx
}

func (w *CompiledWorkflow) notifyEnd(ctx context.Context, info RunInfo, err error) {
	for _, l := range w.listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Warn("run listener panicked on end", zap.Any("panic", r))
				}
			}()
			l.OnRunEnd(ctx, info, err)
		}()
	}
}
