package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rishavSprinto/eigenflow/engine"
	"github.com/rishavSprinto/eigenflow/registry"
	"github.com/rishavSprinto/eigenflow/types"
)

// WorkflowHandler serves workflow invocation: listing registered
// workflows and running one by id.
type WorkflowHandler struct {
	workflows *registry.Registry[*engine.CompiledWorkflow]
	logger    *zap.Logger
}

// NewWorkflowHandler creates the handler over the workflow registry.
func NewWorkflowHandler(workflows *registry.Registry[*engine.CompiledWorkflow], logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		workflows: workflows,
		logger:    logger.With(zap.String("component", "workflow_handler")),
	}
}

// List handles GET /v1/workflows.
func (h *WorkflowHandler) List(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, map[string]any{
		"workflows": h.workflows.Keys(),
	})
}

// Run handles POST /v1/workflows/{id}/run. The JSON body is the run
// input; an optional thread_id query parameter keys the checkpoint
// thread. Unknown workflow ids return 404 with the list of known ids.
func (h *WorkflowHandler) Run(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	wf, ok := h.workflows.Get(id)
	if !ok {
		WriteJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error: &ErrorInfo{
				Code:     string(types.ErrWorkflowNotFound),
				Message:  "workflow not found: " + id,
				KnownIDs: h.workflows.Keys(),
			},
			Timestamp: time.Now(),
		})
		return
	}

	var input map[string]any
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "request body must be a JSON object").
			WithCause(err), h.logger)
		return
	}

	var opts []engine.RunOption
	if threadID := r.URL.Query().Get("thread_id"); threadID != "" {
		opts = append(opts, engine.WithThreadID(threadID))
	}

	final, err := wf.Run(r.Context(), input, opts...)
	if err != nil {
		var te *types.Error
		if errors.As(err, &te) {
			WriteError(w, te, h.logger)
			return
		}
		WriteError(w, types.NewError(types.ErrInternalError, "workflow execution failed").
			WithWorkflow(id).WithCause(err), h.logger)
		return
	}

	WriteSuccess(w, map[string]any{
		"workflow_id": id,
		"state":       map[string]any(final),
	})
}
