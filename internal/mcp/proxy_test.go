package mcp

import (
	"context"
	"testing"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlock/agent-harness/internal/permission"
	"github.com/driftlock/agent-harness/internal/tools"
	"github.com/driftlock/agent-harness/internal/truncate"
)

func newProxyRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	mgr, err := truncate.NewManager(t.TempDir())
	require.NoError(t, err)
	reg, err := tools.NewRegistry(tools.Config{Truncator: mgr})
	require.NoError(t, err)
	return reg
}

func TestRegisterTools_RemoteCallThroughRegistry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := gomcp.NewServer(&gomcp.Implementation{
		Name:    "test-server",
		Version: "1.0.0",
	}, nil)
	server.AddTool(&gomcp.Tool{
		Name:        "lookup",
		Description: "Look something up",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "what to look up"},
			},
			"required": []any{"query"},
		},
	}, func(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		return &gomcp.CallToolResult{
			Content: []gomcp.Content{&gomcp.TextContent{Text: "found it"}},
		}, nil
	})

	serverTransport, clientTransport := gomcp.NewInMemoryTransports()
	go func() {
		_ = server.Run(ctx, serverTransport)
	}()

	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	mgr := NewManager(nil)
	mgr.InjectSession("docs", session, ServerConfig{})

	toolsResult, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var infos []ToolInfo
	for _, tl := range toolsResult.Tools {
		infos = append(infos, ToolInfo{ServerName: "docs", ToolName: tl.Name, Tool: tl})
	}
	for name, info := range QualifyTools(infos, nil) {
		mgr.SetToolInfo(name, info)
	}

	reg := newProxyRegistry(t)
	require.NoError(t, mgr.RegisterTools(reg, map[string]ServerConfig{"docs": {}}))
	require.True(t, reg.HasTool("mcp__docs__lookup"))

	// Missing required argument is caught locally, before the wire.
	result := reg.Execute(ctx, "mcp__docs__lookup", map[string]interface{}{}, tools.ExecutionContext{})
	require.True(t, result.Failed())
	assert.Equal(t, tools.KindValidation, result.Error.Kind)
	assert.Equal(t, "query", result.Error.Field)

	result = reg.Execute(ctx, "mcp__docs__lookup",
		map[string]interface{}{"query": "weather"}, tools.ExecutionContext{SessionID: "s1"})
	require.False(t, result.Failed())
	assert.Equal(t, "found it", result.Output)
	assert.Equal(t, "docs", result.Metadata["mcp_server"])
	assert.Equal(t, "lookup", result.Metadata["mcp_tool"])
}

func TestRemoteTool_SpecCapability(t *testing.T) {
	mgr := NewManager(nil)

	network := &remoteTool{
		manager:       mgr,
		qualifiedName: "mcp__svc__mutate",
		info: ToolInfo{
			ServerName: "svc",
			ToolName:   "mutate",
			Tool:       &gomcp.Tool{Name: "mutate"},
		},
	}
	assert.Equal(t, permission.CapabilityNetwork, network.Spec().Capability)

	readOnly := &remoteTool{
		manager:       mgr,
		qualifiedName: "mcp__svc__peek",
		info: ToolInfo{
			ServerName: "svc",
			ToolName:   "peek",
			Tool: &gomcp.Tool{
				Name:        "peek",
				Annotations: &gomcp.ToolAnnotations{ReadOnlyHint: true},
			},
		},
	}
	assert.Equal(t, permission.CapabilityRead, readOnly.Spec().Capability)
}

func TestRemoteTool_SpecDefaultTimeout(t *testing.T) {
	sec := 5
	rt := &remoteTool{
		qualifiedName: "mcp__svc__slow",
		info:          ToolInfo{ServerName: "svc", ToolName: "slow"},
		config:        ServerConfig{ToolTimeoutSec: &sec},
	}
	assert.Equal(t, rt.config.ToolTimeout(), rt.Spec().DefaultTimeout)
}

func TestSchemaToParameters(t *testing.T) {
	params := schemaToParameters(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "search text"},
			"count": map[string]any{"type": "integer"},
		},
		"required": []any{"query"},
	})
	require.Len(t, params, 2)

	byName := map[string]tools.ToolParameter{}
	for _, p := range params {
		byName[p.Name] = p
	}
	assert.True(t, byName["query"].Required)
	assert.Equal(t, "string", byName["query"].Type)
	assert.Equal(t, "search text", byName["query"].Description)
	assert.False(t, byName["count"].Required)
	assert.Equal(t, "integer", byName["count"].Type)
}

func TestSchemaToParameters_NonObjectSchema(t *testing.T) {
	assert.Nil(t, schemaToParameters(nil))
	assert.Nil(t, schemaToParameters("not a schema"))
	assert.Nil(t, schemaToParameters(map[string]any{"type": "object"}))
}
