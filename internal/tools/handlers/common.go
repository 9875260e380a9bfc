package handlers

import (
	"path/filepath"

	"github.com/driftlock/agent-harness/internal/tools"
)

// resolvePath resolves a possibly-relative path against the workspace root.
func resolvePath(path, workspaceRoot string) string {
	if filepath.IsAbs(path) || workspaceRoot == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(workspaceRoot, path)
}

// intArg reads an optional integer argument, accepting both Go ints and the
// float64 values JSON decoding produces.
func intArg(args map[string]interface{}, name string, fallback int) (int, error) {
	v, ok := args[name]
	if !ok {
		return fallback, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, tools.NewValidationErrorf("%s must be an integer", name)
	}
}
