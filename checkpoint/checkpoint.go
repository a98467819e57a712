package checkpoint

import (
	"context"
	"time"
)

// Checkpoint is a snapshot of execution progress for one run thread.
// The executor writes one after every superstep; loading the latest
// checkpoint for a thread id is enough to resume the run.
type Checkpoint struct {
	ID          string         `json:"id"`
	WorkflowID  string         `json:"workflow_id"`
	ThreadID    string         `json:"thread_id"`
	RunID       string         `json:"run_id"`
	Step        int            `json:"step"`
	State       map[string]any `json:"state"`
	ActiveNodes []string       `json:"active_nodes"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Store persists checkpoints keyed by thread id. Concurrent runs under
// different thread ids must not interfere; concurrent runs under the
// same thread id are the caller's responsibility to serialize.
type Store interface {
	// Save stores cp as the latest checkpoint for its thread id.
	Save(ctx context.Context, cp *Checkpoint) error
	// Load returns the latest checkpoint for threadID, or ErrNotFound.
	Load(ctx context.Context, threadID string) (*Checkpoint, error)
	// Delete removes the checkpoint for threadID. Deleting a missing
	// thread is not an error.
	Delete(ctx context.Context, threadID string) error
}
