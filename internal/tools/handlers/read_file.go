package handlers

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/driftlock/agent-harness/internal/permission"
	"github.com/driftlock/agent-harness/internal/tools"
	"github.com/driftlock/agent-harness/internal/truncate"
)

// ReadFileTool reads file contents with optional offset/limit.
type ReadFileTool struct{}

// NewReadFileTool creates a new read file tool handler.
func NewReadFileTool() *ReadFileTool {
	return &ReadFileTool{}
}

// Spec returns the read_file tool definition.
func (t *ReadFileTool) Spec() tools.ToolSpec {
	return tools.ToolSpec{
		Name:        "read_file",
		Description: "Read the contents of a file. Returns the file content with line numbers.",
		Parameters: []tools.ToolParameter{
			{
				Name:        "path",
				Type:        "string",
				Description: "The path to the file to read",
				Required:    true,
			},
			{
				Name:        "offset",
				Type:        "integer",
				Description: "Starting line number (0-indexed, optional)",
				Required:    false,
			},
			{
				Name:        "limit",
				Type:        "integer",
				Description: "Maximum number of lines to read (optional)",
				Required:    false,
			},
		},
		Capability:     permission.CapabilityRead,
		DefaultTimeout: tools.DefaultReadFileTimeout,
	}
}

// Truncation keeps the head: the beginning of a file orients the reader.
func (t *ReadFileTool) Truncation() truncate.Direction {
	return truncate.Head
}

// Handle reads a file and returns its contents with line numbers.
func (t *ReadFileTool) Handle(_ context.Context, inv *tools.Invocation) (*tools.Output, error) {
	path, ok := inv.Arguments["path"].(string)
	if !ok || path == "" {
		return nil, tools.NewValidationError("path must be a non-empty string")
	}
	path = resolvePath(path, inv.WorkspaceRoot)

	offset, err := intArg(inv.Arguments, "offset", 0)
	if err != nil {
		return nil, err
	}
	limit, err := intArg(inv.Arguments, "limit", -1)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		success := false
		return &tools.Output{
			Title:   path,
			Content: fmt.Sprintf("Failed to open file: %v", err),
			Success: &success,
		}, nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var result strings.Builder
	lineNum := 0
	linesRead := 0

	for lineNum < offset && scanner.Scan() {
		lineNum++
	}

	for scanner.Scan() {
		if limit > 0 && linesRead >= limit {
			break
		}

		line := scanner.Text()
		if len(line) > 2000 {
			line = line[:2000] + "... (truncated)"
		}

		result.WriteString(fmt.Sprintf("%6d\t%s\n", lineNum+1, line))
		lineNum++
		linesRead++
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	content := result.String()
	if content == "" {
		if offset > 0 {
			content = fmt.Sprintf("(file has fewer than %d lines)", offset)
		} else {
			content = "(empty file)"
		}
	}

	// File path header so the model knows which file this content belongs to.
	content = fmt.Sprintf("File: %s\n%s", path, content)

	success := true
	return &tools.Output{
		Title:   path,
		Content: content,
		Success: &success,
	}, nil
}
