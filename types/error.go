package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Assembly-time error codes. These indicate an authoring bug and abort
// graph construction or compilation immediately.
const (
	ErrDuplicateRegistration ErrorCode = "DUPLICATE_REGISTRATION"
	ErrStepTypeNotFound      ErrorCode = "STEP_TYPE_NOT_FOUND"
	ErrDuplicateNode         ErrorCode = "DUPLICATE_NODE"
	ErrUnknownNodeReference  ErrorCode = "UNKNOWN_NODE_REFERENCE"
	ErrAmbiguousRouting      ErrorCode = "AMBIGUOUS_ROUTING"
)

// Run-time error codes. These are caught at the top of Run, wrapped with
// the workflow id and, where applicable, the failing node id.
const (
	ErrInputValidation   ErrorCode = "INPUT_VALIDATION"
	ErrStepLimitExceeded ErrorCode = "STEP_LIMIT_EXCEEDED"
	ErrRunTimeout        ErrorCode = "RUN_TIMEOUT"
	ErrHandlerExecution  ErrorCode = "HANDLER_EXECUTION"
)

// HTTP surface error codes.
const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrWorkflowNotFound ErrorCode = "WORKFLOW_NOT_FOUND"
	ErrInternalError    ErrorCode = "INTERNAL_ERROR"
)

// FieldViolation describes a single schema violation at a field path.
type FieldViolation struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode        `json:"code"`
	Message    string           `json:"message"`
	WorkflowID string           `json:"workflow_id,omitempty"`
	NodeID     string           `json:"node_id,omitempty"`
	Violations []FieldViolation `json:"violations,omitempty"`
	HTTPStatus int              `json:"http_status,omitempty"`
	Cause      error            `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.NodeID != "" {
		msg = fmt.Sprintf("%s (node %s)", msg, e.NodeID)
	}
	if e.WorkflowID != "" {
		msg = fmt.Sprintf("%s (workflow %s)", msg, e.WorkflowID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithWorkflow tags the error with the workflow id it occurred in.
func (e *Error) WithWorkflow(id string) *Error {
	e.WorkflowID = id
	return e
}

// WithNode tags the error with the failing node id.
func (e *Error) WithNode(id string) *Error {
	e.NodeID = id
	return e
}

// WithViolations attaches schema violations to the error.
func (e *Error) WithViolations(violations []FieldViolation) *Error {
	e.Violations = violations
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// GetErrorCode extracts the error code from an error, unwrapping as
// needed, or "" if no *Error is in the chain.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err is a *Error carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}
