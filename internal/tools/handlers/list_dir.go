package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/driftlock/agent-harness/internal/permission"
	"github.com/driftlock/agent-harness/internal/tools"
	"github.com/driftlock/agent-harness/internal/truncate"
)

const (
	listDirDefaultOffset = 1
	listDirDefaultLimit  = 25
	listDirDefaultDepth  = 2
	maxEntryLength       = 500
	indentSpaces         = 2
)

// ListDirTool lists directory entries with depth traversal and pagination.
type ListDirTool struct{}

// NewListDirTool creates a new list_dir tool handler.
func NewListDirTool() *ListDirTool {
	return &ListDirTool{}
}

// Spec returns the tool's definition.
func (t *ListDirTool) Spec() tools.ToolSpec {
	return tools.ToolSpec{
		Name:        "list_dir",
		Description: "List directory entries with optional depth, offset, and limit. Directories are suffixed with /, symlinks with @.",
		Parameters: []tools.ToolParameter{
			{Name: "path", Type: "string", Description: "Directory to list, absolute or relative to the workspace root", Required: true},
			{Name: "offset", Type: "integer", Description: "1-indexed entry number to start from (default 1)"},
			{Name: "limit", Type: "integer", Description: "Maximum number of entries to return (default 25)"},
			{Name: "depth", Type: "integer", Description: "Maximum traversal depth (default 2)"},
		},
		Capability: permission.CapabilityRead,
	}
}

// Truncation keeps the head: the listing's leading entries matter most.
func (t *ListDirTool) Truncation() truncate.Direction {
	return truncate.Head
}

// dirEntryKind classifies directory entry types.
type dirEntryKind int

const (
	dirEntryFile dirEntryKind = iota
	dirEntryDirectory
	dirEntrySymlink
	dirEntryOther
)

// dirEntry is a collected directory entry, carrying both the full relative
// path for global sorting and the display name for rendering.
type dirEntry struct {
	sortKey     string
	displayName string
	depth       int
	kind        dirEntryKind
}

// Handle lists directory entries with optional depth, offset, and limit.
func (t *ListDirTool) Handle(_ context.Context, inv *tools.Invocation) (*tools.Output, error) {
	pathArg, ok := inv.Arguments["path"]
	if !ok {
		return nil, tools.NewValidationError("missing required argument: path")
	}
	path, ok := pathArg.(string)
	if !ok || path == "" {
		return nil, tools.NewValidationError("path must be a non-empty string")
	}
	dirPath := resolvePath(path, inv.WorkspaceRoot)

	offset, err := intArg(inv.Arguments, "offset", listDirDefaultOffset)
	if err != nil {
		return nil, err
	}
	if offset < 1 {
		return nil, tools.NewValidationError("offset must be a 1-indexed entry number")
	}

	limit, err := intArg(inv.Arguments, "limit", listDirDefaultLimit)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, tools.NewValidationError("limit must be greater than zero")
	}

	depth, err := intArg(inv.Arguments, "depth", listDirDefaultDepth)
	if err != nil {
		return nil, err
	}
	if depth < 1 {
		return nil, tools.NewValidationError("depth must be greater than zero")
	}

	lines, listErr := listDirSlice(dirPath, offset, limit, depth)
	if listErr != nil {
		success := false
		return &tools.Output{
			Title:   dirPath,
			Content: listErr.Error(),
			Success: &success,
		}, nil
	}

	output := make([]string, 0, len(lines)+1)
	output = append(output, fmt.Sprintf("Directory: %s", dirPath))
	output = append(output, lines...)

	success := true
	return &tools.Output{
		Title:   dirPath,
		Content: strings.Join(output, "\n"),
		Success: &success,
	}, nil
}

// listDirSlice collects, sorts, and paginates directory entries.
func listDirSlice(dirPath string, offset, limit, depth int) ([]string, error) {
	var entries []dirEntry
	if err := collectEntries(dirPath, "", depth, &entries); err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, nil
	}

	// Global sort by full relative path.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].sortKey < entries[j].sortKey
	})

	startIndex := offset - 1
	if startIndex >= len(entries) {
		return nil, fmt.Errorf("offset exceeds directory entry count")
	}

	remaining := len(entries) - startIndex
	cappedLimit := limit
	if cappedLimit > remaining {
		cappedLimit = remaining
	}
	endIndex := startIndex + cappedLimit

	selected := entries[startIndex:endIndex]
	formatted := make([]string, 0, len(selected)+1)
	for _, e := range selected {
		formatted = append(formatted, formatEntryLine(&e))
	}

	if endIndex < len(entries) {
		formatted = append(formatted, fmt.Sprintf("More than %d entries found", cappedLimit))
	}

	return formatted, nil
}

// collectEntries performs BFS traversal collecting entries up to the given
// depth, sorting per-directory for stable ordering.
func collectEntries(dirPath, relativePrefix string, depth int, entries *[]dirEntry) error {
	type queueItem struct {
		absPath   string
		prefix    string
		remaining int
	}

	queue := []queueItem{{dirPath, relativePrefix, depth}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		dirEntries, err := os.ReadDir(item.absPath)
		if err != nil {
			return fmt.Errorf("failed to read directory: %v", err)
		}

		type collected struct {
			absPath      string
			relativePath string
			kind         dirEntryKind
			entry        dirEntry
		}
		var batch []collected

		for _, de := range dirEntries {
			fileName := de.Name()
			relativePath := fileName
			if item.prefix != "" {
				relativePath = item.prefix + "/" + fileName
			}

			displayDepth := 0
			if item.prefix != "" {
				displayDepth = strings.Count(item.prefix, "/") + 1
			}

			kind := classifyEntry(de)
			batch = append(batch, collected{
				absPath:      filepath.Join(item.absPath, fileName),
				relativePath: relativePath,
				kind:         kind,
				entry: dirEntry{
					sortKey:     truncateEntry(relativePath),
					displayName: truncateEntry(fileName),
					depth:       displayDepth,
					kind:        kind,
				},
			})
		}

		sort.Slice(batch, func(i, j int) bool {
			return batch[i].entry.sortKey < batch[j].entry.sortKey
		})

		for _, c := range batch {
			if c.kind == dirEntryDirectory && item.remaining > 1 {
				queue = append(queue, queueItem{c.absPath, c.relativePath, item.remaining - 1})
			}
			*entries = append(*entries, c.entry)
		}
	}

	return nil
}

// classifyEntry determines the dirEntryKind from an os.DirEntry.
func classifyEntry(de os.DirEntry) dirEntryKind {
	if de.Type()&os.ModeSymlink != 0 {
		return dirEntrySymlink
	}
	if de.IsDir() {
		return dirEntryDirectory
	}
	if de.Type().IsRegular() {
		return dirEntryFile
	}
	return dirEntryOther
}

// formatEntryLine formats a directory entry with indentation and type suffix.
func formatEntryLine(e *dirEntry) string {
	indent := strings.Repeat(" ", e.depth*indentSpaces)
	name := e.displayName
	switch e.kind {
	case dirEntryDirectory:
		name += "/"
	case dirEntrySymlink:
		name += "@"
	case dirEntryOther:
		name += "?"
	}
	return indent + name
}

// truncateEntry truncates an entry name to maxEntryLength.
func truncateEntry(s string) string {
	if len(s) > maxEntryLength {
		return s[:maxEntryLength]
	}
	return s
}
