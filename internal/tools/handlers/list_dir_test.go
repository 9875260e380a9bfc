package handlers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlock/agent-harness/internal/tools"
)

func TestListDir_SortedEntriesWithTypeSuffixes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beta.txt"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.txt"), []byte("a"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	tool := NewListDirTool()
	out, err := tool.Handle(context.Background(), newInvocation("list_dir", map[string]interface{}{
		"path": dir,
	}))
	require.NoError(t, err)
	require.NotNil(t, out.Success)
	assert.True(t, *out.Success)

	assert.Contains(t, out.Content, "Directory: "+dir)
	assert.Contains(t, out.Content, "alpha.txt")
	assert.Contains(t, out.Content, "beta.txt")
	assert.Contains(t, out.Content, "sub/")
	// alphabetical entry order
	assert.Less(t, strings.Index(out.Content, "alpha.txt"), strings.Index(out.Content, "beta.txt"))
}

func TestListDir_DepthTraversalIndentsChildren(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "child.txt"), []byte("c"), 0644))

	tool := NewListDirTool()
	out, err := tool.Handle(context.Background(), newInvocation("list_dir", map[string]interface{}{
		"path":  dir,
		"depth": 2,
	}))
	require.NoError(t, err)
	assert.Contains(t, out.Content, "sub/")
	assert.Contains(t, out.Content, "  child.txt")
}

func TestListDir_DepthOneSkipsChildren(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "child.txt"), []byte("c"), 0644))

	tool := NewListDirTool()
	out, err := tool.Handle(context.Background(), newInvocation("list_dir", map[string]interface{}{
		"path":  dir,
		"depth": 1,
	}))
	require.NoError(t, err)
	assert.Contains(t, out.Content, "sub/")
	assert.NotContains(t, out.Content, "child.txt")
}

func TestListDir_PaginationReportsMoreEntries(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a.txt", "b.txt", "c.txt", "d.txt"}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0644))
	}

	tool := NewListDirTool()
	out, err := tool.Handle(context.Background(), newInvocation("list_dir", map[string]interface{}{
		"path":  dir,
		"limit": 2,
	}))
	require.NoError(t, err)
	assert.Contains(t, out.Content, "a.txt")
	assert.Contains(t, out.Content, "b.txt")
	assert.NotContains(t, out.Content, "c.txt")
	assert.Contains(t, out.Content, "More than 2 entries found")
}

func TestListDir_OffsetSkipsEntries(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.txt", "b.txt", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0644))
	}

	tool := NewListDirTool()
	out, err := tool.Handle(context.Background(), newInvocation("list_dir", map[string]interface{}{
		"path":   dir,
		"offset": 2,
	}))
	require.NoError(t, err)
	assert.NotContains(t, out.Content, "a.txt")
	assert.Contains(t, out.Content, "b.txt")
	assert.Contains(t, out.Content, "c.txt")
}

func TestListDir_OffsetBeyondEntriesReportsFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0644))

	tool := NewListDirTool()
	out, err := tool.Handle(context.Background(), newInvocation("list_dir", map[string]interface{}{
		"path":   dir,
		"offset": 10,
	}))
	require.NoError(t, err)
	require.NotNil(t, out.Success)
	assert.False(t, *out.Success)
	assert.Contains(t, out.Content, "offset exceeds directory entry count")
}

func TestListDir_MissingDirectoryReportsFailure(t *testing.T) {
	tool := NewListDirTool()
	out, err := tool.Handle(context.Background(), newInvocation("list_dir", map[string]interface{}{
		"path": filepath.Join(t.TempDir(), "missing"),
	}))
	require.NoError(t, err)
	require.NotNil(t, out.Success)
	assert.False(t, *out.Success)
}

func TestListDir_InvalidArguments(t *testing.T) {
	tool := NewListDirTool()
	cases := []map[string]interface{}{
		{},
		{"path": ""},
		{"path": "/tmp", "offset": 0},
		{"path": "/tmp", "limit": 0},
		{"path": "/tmp", "depth": 0},
		{"path": "/tmp", "limit": "ten"},
	}
	for _, args := range cases {
		_, err := tool.Handle(context.Background(), newInvocation("list_dir", args))
		require.Error(t, err)
		assert.True(t, tools.IsValidationError(err))
	}
}
