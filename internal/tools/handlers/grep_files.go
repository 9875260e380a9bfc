package handlers

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/driftlock/agent-harness/internal/permission"
	"github.com/driftlock/agent-harness/internal/tools"
	"github.com/driftlock/agent-harness/internal/truncate"
)

const (
	grepDefaultLimit = 100
	grepMaxLimit     = 2000
	// Lines longer than this are skipped rather than streamed into the
	// result; minified assets are never useful match context.
	grepMaxLineLength = 2000
)

// GrepFilesTool searches file contents with a regular expression and returns
// matching lines as path:line:text.
type GrepFilesTool struct{}

// NewGrepFilesTool creates a new grep_files tool handler.
func NewGrepFilesTool() *GrepFilesTool {
	return &GrepFilesTool{}
}

// Spec returns the tool's definition.
func (t *GrepFilesTool) Spec() tools.ToolSpec {
	return tools.ToolSpec{
		Name:        "grep_files",
		Description: "Search file contents recursively with a Go regular expression. Returns matching lines as path:line:text, newest files first.",
		Parameters: []tools.ToolParameter{
			{Name: "pattern", Type: "string", Description: "Regular expression to search for", Required: true},
			{Name: "path", Type: "string", Description: "Directory to search, absolute or relative to the workspace root (default: workspace root)"},
			{Name: "include", Type: "string", Description: "Glob restricting which files are searched, e.g. **/*.go"},
			{Name: "limit", Type: "integer", Description: "Maximum number of matching lines to return (default 100, max 2000)"},
		},
		Capability: permission.CapabilityRead,
	}
}

// Truncation keeps the head: earlier matches come from newer files.
func (t *GrepFilesTool) Truncation() truncate.Direction {
	return truncate.Head
}

// Handle walks the search path and collects matching lines.
func (t *GrepFilesTool) Handle(ctx context.Context, inv *tools.Invocation) (*tools.Output, error) {
	patternArg, ok := inv.Arguments["pattern"]
	if !ok {
		return nil, tools.NewValidationError("missing required argument: pattern")
	}
	pattern, ok := patternArg.(string)
	if !ok {
		return nil, tools.NewValidationError("pattern must be a string")
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, tools.NewValidationError("pattern must not be empty")
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, tools.NewValidationErrorf("invalid pattern: %v", err)
	}

	limit, err := intArg(inv.Arguments, "limit", grepDefaultLimit)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, tools.NewValidationError("limit must be greater than zero")
	}
	if limit > grepMaxLimit {
		limit = grepMaxLimit
	}

	searchPath := inv.WorkspaceRoot
	if pathArg, ok := inv.Arguments["path"]; ok {
		if p, ok := pathArg.(string); ok && strings.TrimSpace(p) != "" {
			searchPath = resolvePath(strings.TrimSpace(p), inv.WorkspaceRoot)
		}
	}
	if searchPath == "" {
		cwd, wdErr := os.Getwd()
		if wdErr != nil {
			success := false
			return &tools.Output{
				Content: fmt.Sprintf("failed to determine working directory: %v", wdErr),
				Success: &success,
			}, nil
		}
		searchPath = cwd
	}

	if _, statErr := os.Stat(searchPath); statErr != nil {
		success := false
		return &tools.Output{
			Title:   searchPath,
			Content: fmt.Sprintf("unable to access `%s`: %v", searchPath, statErr),
			Success: &success,
		}, nil
	}

	var include string
	if includeArg, ok := inv.Arguments["include"]; ok {
		if s, ok := includeArg.(string); ok {
			include = strings.TrimSpace(s)
		}
	}
	if include != "" {
		if !doublestar.ValidatePattern(include) {
			return nil, tools.NewValidationErrorf("invalid include glob: %s", include)
		}
	}

	matches, walkErr := searchTree(ctx, re, include, searchPath, limit)
	if walkErr != nil {
		success := false
		return &tools.Output{
			Title:   searchPath,
			Content: walkErr.Error(),
			Success: &success,
		}, nil
	}

	if len(matches) == 0 {
		success := false
		return &tools.Output{
			Title:   searchPath,
			Content: "No matches found.",
			Success: &success,
		}, nil
	}

	success := true
	return &tools.Output{
		Title:   fmt.Sprintf("%s in %s", pattern, searchPath),
		Content: strings.Join(matches, "\n"),
		Metadata: map[string]string{
			"matches": fmt.Sprintf("%d", len(matches)),
		},
		Success: &success,
	}, nil
}

// searchTree walks searchPath depth-first, scanning regular files that pass
// the include glob. It stops at limit matches or context cancellation.
func searchTree(ctx context.Context, re *regexp.Regexp, include, searchPath string, limit int) ([]string, error) {
	var matches []string

	err := filepath.WalkDir(searchPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if name := d.Name(); name == ".git" || name == "node_modules" {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(searchPath, path)
		if relErr != nil {
			rel = path
		}
		if include != "" {
			ok, matchErr := doublestar.Match(include, filepath.ToSlash(rel))
			if matchErr != nil || !ok {
				return nil
			}
		}

		fileMatches, scanErr := scanFile(path, re, limit-len(matches))
		if scanErr != nil {
			return nil
		}
		matches = append(matches, fileMatches...)
		if len(matches) >= limit {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// scanFile returns up to remaining matching lines from one file, formatted
// as path:line:text. Binary files bail out on the first NUL byte.
func scanFile(path string, re *regexp.Regexp, remaining int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var matches []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.ContainsRune(line, '\x00') {
			return matches, nil
		}
		if len(line) > grepMaxLineLength {
			continue
		}
		if re.MatchString(line) {
			matches = append(matches, fmt.Sprintf("%s:%d:%s", path, lineNo, line))
			if len(matches) >= remaining {
				return matches, nil
			}
		}
	}
	return matches, scanner.Err()
}
