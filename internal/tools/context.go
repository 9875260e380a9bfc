package tools

import (
	"context"
	"time"

	"github.com/driftlock/agent-harness/internal/permission"
	"github.com/driftlock/agent-harness/internal/truncate"
)

// ExecutionContext carries per-call state supplied by the agent loop. It is
// immutable for the duration of a call and never persisted by the registry.
type ExecutionContext struct {
	SessionID     string
	WorkspaceRoot string
	CallerAgent   string

	// PermissionOverrides take highest source precedence; they still lose
	// to more specific rules from other sources.
	PermissionOverrides map[permission.Capability]permission.Decision

	// AskResolver resolves ask decisions interactively. When nil, an
	// unresolved ask fails the call as permission_pending.
	AskResolver AskResolver

	// Timeout bounds a single call. Zero falls back to the tool spec's
	// default, if any.
	Timeout time.Duration
}

// AskRequest describes a pending interactive permission request.
type AskRequest struct {
	ToolName   string
	Capability permission.Capability
	Target     string
	SessionID  string
}

// AskResolver resolves an ask decision to allow or deny. Implementations
// typically prompt a user; returning an error or any non-allow decision
// fails the call closed.
type AskResolver func(ctx context.Context, req AskRequest) (permission.Decision, error)

// Invocation is the validated input passed to a tool handler.
type Invocation struct {
	CallID        string
	ToolName      string
	Arguments     map[string]interface{}
	WorkspaceRoot string
	SessionID     string
}

// Output is what a handler produces before truncation. Content may be
// partial when the handler was cancelled mid-run.
type Output struct {
	// Title is a short label describing the invocation (e.g. the command
	// run or the file read). The registry falls back to the tool name.
	Title    string
	Content  string
	Metadata map[string]string
	Success  *bool
}

// Handler is the interface for tool implementations: one executor per tool,
// registered by name.
type Handler interface {
	// Spec returns the tool's immutable definition.
	Spec() ToolSpec

	// Truncation selects which end of the output the preview keeps.
	Truncation() truncate.Direction

	// Handle executes the tool. Returning a *ValidationError marks the
	// call recoverable with corrected arguments; any other error is an
	// execution failure. A non-nil Output alongside an error carries
	// partial content, which the registry still truncates and returns.
	Handle(ctx context.Context, inv *Invocation) (*Output, error)
}

// Call names one member of a batch.
type Call struct {
	Name   string
	Params map[string]interface{}
}

// ToolResult is the structured outcome of one invocation. It is immutable
// once returned; ownership passes to the agent loop.
type ToolResult struct {
	Title     string            `json:"title"`
	Output    string            `json:"output"`
	Truncated bool              `json:"truncated"`
	SpillPath string            `json:"spill_path,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Error     *ToolError        `json:"error,omitempty"`
}

// Failed reports whether the invocation produced an error of any kind.
func (r *ToolResult) Failed() bool {
	return r.Error != nil
}
