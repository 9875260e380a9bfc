package mcp

import (
	"crypto/sha1"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Tool naming: remote tools are exposed under mcp__<server>__<tool> so they
// can never shadow a built-in, and the qualified name stays within common
// model-API constraints ([a-zA-Z0-9_-], 64 chars).
const (
	ToolNameDelimiter = "__"
	ToolNamePrefix    = "mcp"
	MaxToolNameLength = 64
)

// ToolInfo holds metadata about a single remote tool, including the original
// server and tool names needed for dispatch.
type ToolInfo struct {
	ServerName string
	ToolName   string
	// Tool is the raw MCP tool definition (schema, description, annotations).
	Tool *gomcp.Tool
}

// SanitizeName replaces characters outside [a-zA-Z0-9_-] with underscores.
// Returns "_" for an empty input.
func SanitizeName(name string) string {
	sanitized := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-' {
			sanitized = append(sanitized, c)
		} else {
			sanitized = append(sanitized, '_')
		}
	}
	if len(sanitized) == 0 {
		return "_"
	}
	return string(sanitized)
}

func sha1Hex(s string) string {
	h := sha1.New()
	h.Write([]byte(s))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// QualifyToolName builds the qualified name mcp__<server>__<tool>, sanitized
// and truncated with a SHA1 suffix when it exceeds MaxToolNameLength.
func QualifyToolName(serverName, toolName string) string {
	raw := ToolNamePrefix + ToolNameDelimiter + serverName + ToolNameDelimiter + toolName
	qualified := SanitizeName(raw)

	if len(qualified) > MaxToolNameLength {
		hash := sha1Hex(raw)
		prefixLen := MaxToolNameLength - len(hash)
		qualified = qualified[:prefixLen] + hash
	}

	return qualified
}

// QualifyTools qualifies and deduplicates a tool list, returning a map from
// qualified name to ToolInfo. Duplicates by raw name and collisions after
// sanitization are skipped with a warning.
func QualifyTools(tools []ToolInfo, logger *zap.Logger) map[string]ToolInfo {
	if logger == nil {
		logger = zap.NewNop()
	}

	usedNames := make(map[string]bool)
	seenRawNames := make(map[string]bool)
	qualifiedTools := make(map[string]ToolInfo)

	for _, tool := range tools {
		rawName := ToolNamePrefix + ToolNameDelimiter + tool.ServerName + ToolNameDelimiter + tool.ToolName

		if seenRawNames[rawName] {
			logger.Warn("skipping duplicated tool", zap.String("tool", rawName))
			continue
		}
		seenRawNames[rawName] = true

		qualifiedName := SanitizeName(rawName)
		if len(qualifiedName) > MaxToolNameLength {
			hash := sha1Hex(rawName)
			prefixLen := MaxToolNameLength - len(hash)
			qualifiedName = qualifiedName[:prefixLen] + hash
		}

		if usedNames[qualifiedName] {
			logger.Warn("skipping tool colliding after sanitization", zap.String("tool", qualifiedName))
			continue
		}

		usedNames[qualifiedName] = true
		qualifiedTools[qualifiedName] = tool
	}

	return qualifiedTools
}

// FilterTools applies a ToolFilter to a tool list.
func FilterTools(tools []ToolInfo, filter ToolFilter) []ToolInfo {
	filtered := make([]ToolInfo, 0, len(tools))
	for _, tool := range tools {
		if filter.Allows(tool.ToolName) {
			filtered = append(filtered, tool)
		}
	}
	return filtered
}
