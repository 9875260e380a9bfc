package mcp

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// managedClient wraps a single MCP client session with its config.
type managedClient struct {
	session *gomcp.ClientSession
	config  ServerConfig
}

// InitResult is the outcome of initializing the configured MCP servers.
type InitResult struct {
	// Tools maps qualified name to ToolInfo for every discovered tool.
	Tools map[string]ToolInfo
	// Failures records optional servers that failed to initialize.
	Failures map[string]string
}

// Manager holds the MCP client connections for one session and dispatches
// remote tool calls to them.
type Manager struct {
	mu      sync.Mutex
	clients map[string]*managedClient
	tools   map[string]ToolInfo
	logger  *zap.Logger
}

// NewManager creates an empty manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		clients: make(map[string]*managedClient),
		tools:   make(map[string]ToolInfo),
		logger:  logger,
	}
}

// Initialize starts all enabled servers in parallel, discovers their tools,
// applies filtering and name qualification, and returns the merged result.
// A failing required server aborts initialization; a failing optional server
// is recorded and skipped.
func (m *Manager) Initialize(ctx context.Context, servers map[string]ServerConfig) (*InitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type serverResult struct {
		name    string
		tools   []ToolInfo
		err     error
		session *gomcp.ClientSession
		config  ServerConfig
	}

	type enabledServer struct {
		name   string
		config ServerConfig
	}
	var enabled []enabledServer
	for name, cfg := range servers {
		if cfg.IsEnabled() {
			enabled = append(enabled, enabledServer{name, cfg})
		}
	}

	if len(enabled) == 0 {
		return &InitResult{Tools: m.tools, Failures: map[string]string{}}, nil
	}

	results := make([]serverResult, len(enabled))
	var wg sync.WaitGroup
	for i, srv := range enabled {
		wg.Add(1)
		go func(idx int, serverName string, cfg ServerConfig) {
			defer wg.Done()
			result := serverResult{name: serverName, config: cfg}

			session, err := m.connect(ctx, serverName, cfg)
			if err != nil {
				result.err = err
				results[idx] = result
				return
			}
			result.session = session

			listCtx, cancel := context.WithTimeout(ctx, cfg.StartupTimeout())
			defer cancel()

			toolsResult, err := session.ListTools(listCtx, nil)
			if err != nil {
				result.err = fmt.Errorf("failed to list tools for %s: %w", serverName, err)
				_ = session.Close()
				results[idx] = result
				return
			}

			filter := NewToolFilter(cfg.EnabledTools, cfg.DisabledTools)
			var toolInfos []ToolInfo
			for _, t := range toolsResult.Tools {
				if filter.Allows(t.Name) {
					toolInfos = append(toolInfos, ToolInfo{
						ServerName: serverName,
						ToolName:   t.Name,
						Tool:       t,
					})
				}
			}

			result.tools = toolInfos
			results[idx] = result
		}(i, srv.name, srv.config)
	}
	wg.Wait()

	failures := make(map[string]string)
	var allTools []ToolInfo
	for _, r := range results {
		if r.err != nil {
			failures[r.name] = r.err.Error()
			m.logger.Warn("MCP server failed to initialize",
				zap.String("server", r.name),
				zap.Error(r.err))
			continue
		}
		m.clients[r.name] = &managedClient{session: r.session, config: r.config}
		allTools = append(allTools, r.tools...)
	}

	for name, cfg := range servers {
		if cfg.Required {
			if errMsg, failed := failures[name]; failed {
				return nil, fmt.Errorf("required MCP server %s failed to initialize: %s", name, errMsg)
			}
		}
	}

	m.tools = QualifyTools(allTools, m.logger)

	return &InitResult{Tools: m.tools, Failures: failures}, nil
}

// connect creates and connects an MCP client to one server.
func (m *Manager) connect(ctx context.Context, serverName string, cfg ServerConfig) (*gomcp.ClientSession, error) {
	transport := cfg.Transport

	client := gomcp.NewClient(&gomcp.Implementation{
		Name:    "agent-harness",
		Version: "1.0.0",
	}, nil)

	connectCtx, cancel := context.WithTimeout(ctx, cfg.StartupTimeout())
	defer cancel()

	if transport.IsStdio() {
		cmd := exec.CommandContext(connectCtx, transport.Command, transport.Args...)
		if transport.Cwd != "" {
			cmd.Dir = transport.Cwd
		}
		for k, v := range transport.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}

		session, err := client.Connect(connectCtx, &gomcp.CommandTransport{Command: cmd}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MCP server %s (stdio): %w", serverName, err)
		}
		return session, nil
	}

	if transport.IsHTTP() {
		session, err := client.Connect(connectCtx, &gomcp.StreamableClientTransport{Endpoint: transport.URL}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MCP server %s (HTTP): %w", serverName, err)
		}
		return session, nil
	}

	return nil, fmt.Errorf("MCP server %s has neither command nor URL configured", serverName)
}

// CallTool dispatches a tool call to the owning server, bounded by the
// server's per-call timeout.
func (m *Manager) CallTool(ctx context.Context, serverName, toolName string, args map[string]interface{}) (*gomcp.CallToolResult, error) {
	m.mu.Lock()
	mc, ok := m.clients[serverName]
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("MCP server %q not connected", serverName)
	}

	callCtx, cancel := context.WithTimeout(ctx, mc.config.ToolTimeout())
	defer cancel()

	result, err := mc.session.CallTool(callCtx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("MCP tool call %s/%s failed: %w", serverName, toolName, err)
	}

	return result, nil
}

// Tools returns the qualified tool map.
func (m *Manager) Tools() map[string]ToolInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]ToolInfo, len(m.tools))
	for k, v := range m.tools {
		out[k] = v
	}
	return out
}

// GetToolInfo returns the ToolInfo for a qualified tool name.
func (m *Manager) GetToolInfo(qualifiedName string) (ToolInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.tools[qualifiedName]
	return info, ok
}

// InjectSession adds a pre-connected client session to the manager. Tests
// use it with in-memory transports.
func (m *Manager) InjectSession(serverName string, session *gomcp.ClientSession, config ServerConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[serverName] = &managedClient{session: session, config: config}
}

// SetToolInfo adds or updates a tool entry.
func (m *Manager) SetToolInfo(qualifiedName string, info ToolInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools[qualifiedName] = info
}

// Close shuts down every connected client session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, mc := range m.clients {
		if err := mc.session.Close(); err != nil {
			m.logger.Warn("error closing MCP session",
				zap.String("server", name),
				zap.Error(err))
		}
	}
	m.clients = make(map[string]*managedClient)
	m.tools = make(map[string]ToolInfo)
}
