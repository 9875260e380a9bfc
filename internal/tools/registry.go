package tools

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"

	"github.com/driftlock/agent-harness/internal/permission"
	"github.com/driftlock/agent-harness/internal/truncate"
)

// registered pairs a handler with its compiled parameter schema.
type registered struct {
	handler Handler
	schema  *jsonschema.Schema
}

// Registry dispatches tool calls: it validates parameters, gates on
// permissions, runs the executor, and bounds its output. After construction
// and registration the registry holds no mutable state, so concurrent
// Execute calls from any number of sessions need no locking.
type Registry struct {
	handlers  map[string]registered
	ruleset   *permission.Ruleset
	truncator *truncate.Manager
	logger    *zap.Logger
}

// Config supplies the registry's collaborators.
type Config struct {
	// Ruleset is the merged permission ruleset (defaults, agent, config).
	// Per-call overrides are layered on top during evaluation.
	Ruleset *permission.Ruleset
	// Truncator bounds executor output. Required.
	Truncator *truncate.Manager
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Truncator == nil {
		return nil, errors.New("tools: registry requires a truncation manager")
	}
	if cfg.Ruleset == nil {
		cfg.Ruleset = permission.NewRuleset(permission.DefaultRules(),
			permission.WithSpillDir(cfg.Truncator.Dir()))
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Registry{
		handlers:  make(map[string]registered),
		ruleset:   cfg.Ruleset,
		truncator: cfg.Truncator,
		logger:    cfg.Logger,
	}, nil
}

// Register adds a tool handler. Registration happens at initialization time,
// before any Execute call; it fails on duplicate names or invalid parameter
// descriptors.
func (r *Registry) Register(handler Handler) error {
	spec := handler.Spec()
	if spec.Name == "" {
		return errors.New("tools: spec name must not be empty")
	}
	if _, exists := r.handlers[spec.Name]; exists {
		return fmt.Errorf("tools: tool already registered: %s", spec.Name)
	}
	schema, err := compileSchema(spec)
	if err != nil {
		return err
	}
	r.handlers[spec.Name] = registered{handler: handler, schema: schema}
	return nil
}

// HasTool checks if a tool is registered.
func (r *Registry) HasTool(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// ToolCount returns the number of registered tools.
func (r *Registry) ToolCount() int {
	return len(r.handlers)
}

// Specs returns the registered tool specifications, for prompt construction.
func (r *Registry) Specs() []ToolSpec {
	specs := make([]ToolSpec, 0, len(r.handlers))
	for _, reg := range r.handlers {
		specs = append(specs, reg.handler.Spec())
	}
	return specs
}

// Execute runs one tool call end to end. It never returns a Go error: every
// failure is captured in ToolResult.Error so a bad call can never abort a
// sibling or crash the host.
func (r *Registry) Execute(ctx context.Context, name string, rawParams map[string]interface{}, execCtx ExecutionContext) *ToolResult {
	reg, ok := r.handlers[name]
	if !ok {
		return errorResult(name, &ToolError{
			Kind:    KindValidation,
			Message: fmt.Sprintf("unknown tool: %s", name),
		})
	}
	spec := reg.handler.Spec()

	if terr := validateArgs(spec, reg.schema, rawParams); terr != nil {
		r.logger.Debug("tool call rejected by validation",
			zap.String("tool", name),
			zap.String("field", terr.Field))
		return errorResult(name, terr)
	}

	capability, target := r.deriveTarget(spec, rawParams, execCtx)
	if terr := r.checkPermission(ctx, name, capability, target, execCtx); terr != nil {
		r.logger.Info("tool call blocked by policy",
			zap.String("tool", name),
			zap.String("capability", capability.String()),
			zap.String("target", target),
			zap.String("kind", string(terr.Kind)))
		return errorResult(name, terr)
	}

	inv := &Invocation{
		CallID:        uuid.NewString(),
		ToolName:      name,
		Arguments:     rawParams,
		WorkspaceRoot: execCtx.WorkspaceRoot,
		SessionID:     execCtx.SessionID,
	}

	timeout := execCtx.Timeout
	if timeout == 0 {
		timeout = spec.DefaultTimeout
	}
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	output, err := reg.handler.Handle(runCtx, inv)
	elapsed := time.Since(started)

	result := r.buildResult(spec, inv, output, err, runCtx)
	r.logger.Debug("tool call finished",
		zap.String("tool", name),
		zap.Duration("elapsed", elapsed),
		zap.Bool("truncated", result.Truncated),
		zap.Bool("failed", result.Failed()))
	return result
}

// checkPermission evaluates the capability against the ruleset plus per-call
// overrides, resolving ask decisions through the caller's resolver. It fails
// closed: deny and unresolved ask both abort before the executor runs.
func (r *Registry) checkPermission(ctx context.Context, toolName string, capability permission.Capability, target string, execCtx ExecutionContext) *ToolError {
	if capability == permission.CapabilityNone {
		return nil
	}

	ruleset := r.ruleset
	if len(execCtx.PermissionOverrides) > 0 {
		overrides := make([]permission.Rule, 0, len(execCtx.PermissionOverrides))
		for overrideCap, decision := range execCtx.PermissionOverrides {
			rule, err := permission.NewRule(overrideCap, "**", decision, permission.SourceOverride)
			if err != nil {
				continue
			}
			overrides = append(overrides, rule)
		}
		ruleset = ruleset.Merge(overrides...)
	}

	eval := ruleset.Evaluate(capability, target)
	switch eval.Decision {
	case permission.DecisionAllow:
		return nil
	case permission.DecisionDeny:
		return &ToolError{
			Kind:    KindPermissionDenied,
			Message: fmt.Sprintf("%s access to %q is denied by policy", capability, target),
		}
	default: // ask
		if execCtx.AskResolver == nil {
			return &ToolError{
				Kind:    KindPermissionPending,
				Message: fmt.Sprintf("%s access to %q requires approval and no resolver is available", capability, target),
			}
		}
		decision, err := execCtx.AskResolver(ctx, AskRequest{
			ToolName:   toolName,
			Capability: capability,
			Target:     target,
			SessionID:  execCtx.SessionID,
		})
		if err != nil {
			return &ToolError{
				Kind:    KindPermissionPending,
				Message: fmt.Sprintf("approval for %s access to %q was not resolved: %v", capability, target, err),
			}
		}
		if decision != permission.DecisionAllow {
			return &ToolError{
				Kind:    KindPermissionDenied,
				Message: fmt.Sprintf("%s access to %q was refused", capability, target),
			}
		}
		return nil
	}
}

// deriveTarget resolves the permission target from the call's arguments:
// bash tools are evaluated on their command string, path tools on the
// workspace-resolved path. A path escaping the workspace root escalates to
// the external_directory capability.
func (r *Registry) deriveTarget(spec ToolSpec, args map[string]interface{}, execCtx ExecutionContext) (permission.Capability, string) {
	capability := spec.Capability

	if capability == permission.CapabilityBash {
		if cmd, ok := args["command"].(string); ok {
			return capability, cmd
		}
		return capability, spec.Name
	}

	path := ""
	for _, key := range []string{"path", "file_path", "file"} {
		if v, ok := args[key].(string); ok && v != "" {
			path = v
			break
		}
	}
	if path == "" {
		return capability, execCtx.WorkspaceRoot
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(execCtx.WorkspaceRoot, path)
	}
	path = filepath.Clean(path)

	if execCtx.WorkspaceRoot != "" && !underRoot(path, execCtx.WorkspaceRoot) && !underRoot(path, r.truncator.Dir()) {
		if capability == permission.CapabilityRead || capability == permission.CapabilityWrite {
			capability = permission.CapabilityExternalDirectory
		}
	}
	return capability, path
}

// buildResult pipes executor output through truncation and maps errors to
// the failure taxonomy.
func (r *Registry) buildResult(spec ToolSpec, inv *Invocation, output *Output, err error, runCtx context.Context) *ToolResult {
	content := ""
	title := spec.Name
	metadata := map[string]string{}
	if output != nil {
		content = output.Content
		if output.Title != "" {
			title = output.Title
		}
		for k, v := range output.Metadata {
			metadata[k] = v
		}
	}

	var terr *ToolError
	switch {
	case err == nil && runCtx.Err() == context.DeadlineExceeded:
		terr = &ToolError{Kind: KindTimeout, Message: "tool call deadline exceeded"}
	case err != nil:
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			terr = &ToolError{Kind: KindValidation, Message: verr.Message, Field: verr.Field}
		case errors.Is(err, context.DeadlineExceeded) || runCtx.Err() == context.DeadlineExceeded:
			terr = &ToolError{Kind: KindTimeout, Message: "tool call deadline exceeded"}
		default:
			terr = &ToolError{Kind: KindExecution, Message: err.Error()}
		}
	case output != nil && output.Success != nil && !*output.Success:
		terr = &ToolError{Kind: KindExecution, Message: "tool reported failure"}
	}

	// Partial or failed output is still bounded and returned; it is often
	// exactly what the model needs to recover.
	trunc := r.truncator.Truncate(content, handlerDirection(r.handlers[spec.Name].handler), inv.SessionID)
	if trunc.Truncated {
		if trunc.Hint != "" {
			metadata["truncation_hint"] = trunc.Hint
		}
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	return &ToolResult{
		Title:     title,
		Output:    trunc.Content,
		Truncated: trunc.Truncated,
		SpillPath: trunc.SpillPath,
		Metadata:  metadata,
		Error:     terr,
	}
}

func handlerDirection(h Handler) truncate.Direction {
	if h == nil {
		return truncate.Head
	}
	return h.Truncation()
}

func errorResult(name string, terr *ToolError) *ToolResult {
	return &ToolResult{Title: name, Error: terr}
}

// underRoot reports whether path is root or inside it.
func underRoot(path, root string) bool {
	root = filepath.Clean(root)
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}
