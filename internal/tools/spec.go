// Package tools provides the tool registry: definition, parameter
// validation, permission gating, dispatch, and concurrent batch execution.
package tools

import (
	"time"

	"github.com/driftlock/agent-harness/internal/permission"
)

// Default per-call deadlines. Timeouts are per-call configuration supplied
// through the ExecutionContext; these apply only when a tool spec declares
// one and the caller does not.
const (
	DefaultShellTimeout    = 10 * time.Second
	DefaultReadFileTimeout = 30 * time.Second
)

// ToolSpec defines a tool: name, parameters, and the capability its
// execution requires. Specs are immutable once registered; the registry owns
// every definition for its process lifetime.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`

	// Capability classifies the tool's effect for permission evaluation.
	Capability permission.Capability `json:"-"`

	// DefaultTimeout bounds a call when the caller supplies no deadline.
	// Zero means no default deadline.
	DefaultTimeout time.Duration `json:"-"`
}

// ToolParameter defines a parameter for a tool. Type is a JSON-schema
// primitive name: string, integer, number, boolean, array, or object.
type ToolParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}
