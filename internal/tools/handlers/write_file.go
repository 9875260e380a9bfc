package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/driftlock/agent-harness/internal/permission"
	"github.com/driftlock/agent-harness/internal/tools"
	"github.com/driftlock/agent-harness/internal/truncate"
)

// WriteFileTool writes content to a file, creating parent directories as
// needed. Existing files are replaced whole.
type WriteFileTool struct{}

// NewWriteFileTool creates a new write_file tool handler.
func NewWriteFileTool() *WriteFileTool {
	return &WriteFileTool{}
}

// Spec returns the tool's definition.
func (t *WriteFileTool) Spec() tools.ToolSpec {
	return tools.ToolSpec{
		Name:        "write_file",
		Description: "Write content to a file, creating it and any parent directories if they do not exist. Overwrites existing content.",
		Parameters: []tools.ToolParameter{
			{Name: "path", Type: "string", Description: "Destination file, absolute or relative to the workspace root", Required: true},
			{Name: "content", Type: "string", Description: "Full file content to write", Required: true},
		},
		Capability: permission.CapabilityWrite,
	}
}

// Truncation keeps the head; the output is a short confirmation anyway.
func (t *WriteFileTool) Truncation() truncate.Direction {
	return truncate.Head
}

// Handle writes the file.
func (t *WriteFileTool) Handle(_ context.Context, inv *tools.Invocation) (*tools.Output, error) {
	pathArg, ok := inv.Arguments["path"]
	if !ok {
		return nil, tools.NewValidationError("missing required argument: path")
	}
	path, ok := pathArg.(string)
	if !ok || path == "" {
		return nil, tools.NewValidationError("path must be a non-empty string")
	}

	contentArg, ok := inv.Arguments["content"]
	if !ok {
		return nil, tools.NewValidationError("missing required argument: content")
	}
	content, ok := contentArg.(string)
	if !ok {
		return nil, tools.NewValidationError("content must be a string")
	}

	filePath := resolvePath(path, inv.WorkspaceRoot)

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		success := false
		return &tools.Output{
			Title:   filePath,
			Content: fmt.Sprintf("failed to create parent directory: %v", err),
			Success: &success,
		}, nil
	}

	if err := os.WriteFile(filePath, []byte(content), 0o644); err != nil {
		success := false
		return &tools.Output{
			Title:   filePath,
			Content: fmt.Sprintf("failed to write file: %v", err),
			Success: &success,
		}, nil
	}

	success := true
	return &tools.Output{
		Title:   filePath,
		Content: fmt.Sprintf("Wrote %d bytes to %s", len(content), filePath),
		Metadata: map[string]string{
			"bytes": fmt.Sprintf("%d", len(content)),
		},
		Success: &success,
	}, nil
}
