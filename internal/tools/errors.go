// Package tools errors: the per-call failure taxonomy. Failures are carried
// inside ToolResult values and never cross the registry boundary as faults.
package tools

import (
	"errors"
	"fmt"
)

// ErrorKind tags a tool-call failure so the calling model can self-correct.
type ErrorKind string

const (
	// KindValidation means the parameters were bad; retry with corrected
	// arguments.
	KindValidation ErrorKind = "validation"
	// KindPermissionDenied means policy refused the call.
	KindPermissionDenied ErrorKind = "permission_denied"
	// KindPermissionPending means an ask decision was not resolved.
	KindPermissionPending ErrorKind = "permission_pending"
	// KindExecution means the tool's underlying action failed.
	KindExecution ErrorKind = "execution"
	// KindTimeout means the per-call deadline elapsed; retryable.
	KindTimeout ErrorKind = "timeout"
)

// ToolError is the structured failure attached to a ToolResult.
type ToolError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	// Field names the offending parameter for validation errors.
	Field string `json:"field,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s error (%s): %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// ValidationError indicates invalid input that won't succeed on retry with
// the same arguments. Handlers return it from Handle; the registry maps it
// to KindValidation.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NewValidationErrorf creates a validation error with formatting.
func NewValidationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
