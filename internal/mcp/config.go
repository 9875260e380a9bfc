// Package mcp proxies tools from Model Context Protocol servers into the
// local tool registry. Remote tools go through the same validation,
// permission, and truncation pipeline as built-ins.
package mcp

import "time"

// DefaultStartupTimeout bounds server initialization and the first tool
// listing.
const DefaultStartupTimeout = 10 * time.Second

// DefaultToolTimeout bounds individual remote tool calls.
const DefaultToolTimeout = 60 * time.Second

// ServerConfig configures one MCP server connection.
type ServerConfig struct {
	// Transport selects stdio or streamable HTTP.
	Transport TransportConfig `json:"transport"`

	// Enabled defaults to true when nil.
	Enabled *bool `json:"enabled,omitempty"`

	// Required makes initialization failure fatal for the whole setup.
	Required bool `json:"required,omitempty"`

	StartupTimeoutSec *int `json:"startup_timeout_sec,omitempty"`
	ToolTimeoutSec    *int `json:"tool_timeout_sec,omitempty"`

	// EnabledTools is an allow-list of tool names; nil exposes all.
	EnabledTools []string `json:"enabled_tools,omitempty"`
	// DisabledTools are never exposed.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// IsEnabled reports whether the server should be started.
func (c *ServerConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// StartupTimeout returns the configured startup timeout or the default.
func (c *ServerConfig) StartupTimeout() time.Duration {
	if c.StartupTimeoutSec != nil {
		return time.Duration(*c.StartupTimeoutSec) * time.Second
	}
	return DefaultStartupTimeout
}

// ToolTimeout returns the configured per-call timeout or the default.
func (c *ServerConfig) ToolTimeout() time.Duration {
	if c.ToolTimeoutSec != nil {
		return time.Duration(*c.ToolTimeoutSec) * time.Second
	}
	return DefaultToolTimeout
}

// TransportConfig specifies how to reach the server. Command and URL are
// mutually exclusive.
type TransportConfig struct {
	// Stdio transport: spawn a subprocess.
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Cwd     string            `json:"cwd,omitempty"`

	// Streamable HTTP transport.
	URL string `json:"url,omitempty"`
}

// IsStdio reports whether this config spawns a subprocess.
func (t *TransportConfig) IsStdio() bool {
	return t.Command != ""
}

// IsHTTP reports whether this config connects over HTTP.
func (t *TransportConfig) IsHTTP() bool {
	return t.URL != ""
}

// ToolFilter controls which of a server's tools are exposed. A tool passes
// when it is on the allow-list (or the allow-list is nil) and not on the
// deny-list.
type ToolFilter struct {
	Enabled  map[string]bool // nil allows all
	Disabled map[string]bool
}

// NewToolFilter builds a ToolFilter from the config's name lists.
func NewToolFilter(enabledTools, disabledTools []string) ToolFilter {
	var enabled map[string]bool
	if len(enabledTools) > 0 {
		enabled = make(map[string]bool, len(enabledTools))
		for _, t := range enabledTools {
			enabled[t] = true
		}
	}

	disabled := make(map[string]bool, len(disabledTools))
	for _, t := range disabledTools {
		disabled[t] = true
	}

	return ToolFilter{Enabled: enabled, Disabled: disabled}
}

// Allows reports whether the named tool passes the filter.
func (f *ToolFilter) Allows(toolName string) bool {
	if f.Enabled != nil && !f.Enabled[toolName] {
		return false
	}
	return !f.Disabled[toolName]
}
