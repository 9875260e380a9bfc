package mcp

import (
	"context"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/driftlock/agent-harness/internal/permission"
	"github.com/driftlock/agent-harness/internal/tools"
	"github.com/driftlock/agent-harness/internal/truncate"
)

// remoteTool adapts one MCP server tool to the local tool handler interface,
// so remote calls go through the same validation, permission, and truncation
// pipeline as built-ins.
type remoteTool struct {
	manager       *Manager
	qualifiedName string
	info          ToolInfo
	config        ServerConfig
}

// Spec derives a local tool spec from the remote definition. Tools the
// server annotates as read-only need only the read capability; everything
// else is gated as network access.
func (r *remoteTool) Spec() tools.ToolSpec {
	capability := permission.CapabilityNetwork
	description := ""
	var params []tools.ToolParameter

	if r.info.Tool != nil {
		description = r.info.Tool.Description
		if r.info.Tool.Annotations != nil && r.info.Tool.Annotations.ReadOnlyHint {
			capability = permission.CapabilityRead
		}
		params = schemaToParameters(r.info.Tool.InputSchema)
	}

	return tools.ToolSpec{
		Name:           r.qualifiedName,
		Description:    description,
		Parameters:     params,
		Capability:     capability,
		DefaultTimeout: r.config.ToolTimeout(),
	}
}

func (r *remoteTool) Truncation() truncate.Direction {
	return truncate.Head
}

// Handle forwards the call to the owning server and flattens the text
// content of the response.
func (r *remoteTool) Handle(ctx context.Context, inv *tools.Invocation) (*tools.Output, error) {
	result, err := r.manager.CallTool(ctx, r.info.ServerName, r.info.ToolName, inv.Arguments)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	for _, content := range result.Content {
		if tc, ok := content.(*gomcp.TextContent); ok {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(tc.Text)
		}
	}

	success := !result.IsError
	return &tools.Output{
		Title:   fmt.Sprintf("%s/%s", r.info.ServerName, r.info.ToolName),
		Content: sb.String(),
		Metadata: map[string]string{
			"mcp_server": r.info.ServerName,
			"mcp_tool":   r.info.ToolName,
		},
		Success: &success,
	}, nil
}

// RegisterTools registers every discovered remote tool with the registry
// under its qualified name. Call after Initialize.
func (m *Manager) RegisterTools(reg *tools.Registry, servers map[string]ServerConfig) error {
	for qualifiedName, info := range m.Tools() {
		cfg := servers[info.ServerName]
		handler := &remoteTool{
			manager:       m,
			qualifiedName: qualifiedName,
			info:          info,
			config:        cfg,
		}
		if err := reg.Register(handler); err != nil {
			return fmt.Errorf("register MCP tool %s: %w", qualifiedName, err)
		}
	}
	return nil
}

// schemaToParameters extracts flat parameter descriptors from a JSON schema
// of the usual {"type":"object","properties":{...},"required":[...]} shape.
// Anything deeper is passed through untyped; the remote server revalidates.
func schemaToParameters(schema any) []tools.ToolParameter {
	doc, ok := schema.(map[string]any)
	if !ok {
		return nil
	}

	properties, _ := doc["properties"].(map[string]any)
	if properties == nil {
		return nil
	}

	required := map[string]bool{}
	if reqList, ok := doc["required"].([]any); ok {
		for _, r := range reqList {
			if name, ok := r.(string); ok {
				required[name] = true
			}
		}
	}

	params := make([]tools.ToolParameter, 0, len(properties))
	for name, raw := range properties {
		p := tools.ToolParameter{Name: name, Type: "string", Required: required[name]}
		if prop, ok := raw.(map[string]any); ok {
			if typ, ok := prop["type"].(string); ok {
				p.Type = typ
			}
			if desc, ok := prop["description"].(string); ok {
				p.Description = desc
			}
		}
		params = append(params, p)
	}
	return params
}
