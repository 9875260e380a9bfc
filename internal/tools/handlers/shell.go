// Package handlers contains built-in tool handler implementations.
package handlers

import (
	"bytes"
	"context"
	"io"
	"os/exec"

	"github.com/creack/pty"

	"github.com/driftlock/agent-harness/internal/permission"
	"github.com/driftlock/agent-harness/internal/tools"
	"github.com/driftlock/agent-harness/internal/truncate"
)

// ShellTool executes shell commands.
type ShellTool struct{}

// NewShellTool creates a new shell tool handler.
func NewShellTool() *ShellTool {
	return &ShellTool{}
}

// Spec returns the shell tool definition.
func (t *ShellTool) Spec() tools.ToolSpec {
	return tools.ToolSpec{
		Name:        "shell",
		Description: "Execute a shell command and return the output. Use this to run bash commands, list files, read command output, etc.",
		Parameters: []tools.ToolParameter{
			{
				Name:        "command",
				Type:        "string",
				Description: "The shell command to execute (will be run with bash -c)",
				Required:    true,
			},
			{
				Name:        "tty",
				Type:        "boolean",
				Description: "Run the command under a pseudo-terminal for programs that require one",
				Required:    false,
			},
		},
		Capability:     permission.CapabilityBash,
		DefaultTimeout: tools.DefaultShellTimeout,
	}
}

// Truncation keeps the tail: the end of a command's output (test failures,
// final build errors) matters more than the start.
func (t *ShellTool) Truncation() truncate.Direction {
	return truncate.Tail
}

// Handle executes a shell command. The deadline comes from the registry's
// per-call context; on cancellation the output captured so far is returned.
func (t *ShellTool) Handle(ctx context.Context, inv *tools.Invocation) (*tools.Output, error) {
	command, ok := inv.Arguments["command"].(string)
	if !ok || command == "" {
		return nil, tools.NewValidationError("command must be a non-empty string")
	}

	useTTY := false
	if v, ok := inv.Arguments["tty"].(bool); ok {
		useTTY = v
	}

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	if inv.WorkspaceRoot != "" {
		cmd.Dir = inv.WorkspaceRoot
	}

	var output []byte
	var runErr error
	if useTTY {
		output, runErr = runWithPTY(cmd)
	} else {
		output, runErr = cmd.CombinedOutput()
	}

	if runErr != nil {
		if ctx.Err() != nil {
			// Deadline or cancellation: hand back the partial output and
			// let the registry classify the failure.
			return &tools.Output{Title: command, Content: string(output)}, ctx.Err()
		}
		success := false
		return &tools.Output{
			Title:    command,
			Content:  string(output),
			Metadata: map[string]string{"error": runErr.Error()},
			Success:  &success,
		}, nil
	}

	success := true
	return &tools.Output{
		Title:   command,
		Content: string(output),
		Success: &success,
	}, nil
}

// runWithPTY runs the command attached to a pseudo-terminal and collects its
// combined output from the PTY master. The read loop ends when the child
// closes the slave side; the EIO that Linux reports then is expected.
func runWithPTY(cmd *exec.Cmd) ([]byte, error) {
	master, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}
	defer master.Close()

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, master)

	if err := cmd.Wait(); err != nil {
		return buf.Bytes(), err
	}
	return buf.Bytes(), nil
}
