package permission

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewEdit(t *testing.T) {
	p := Preview("Edit", map[string]any{
		"file_path":  "/tmp/f.go",
		"old_string": "hello\n",
		"new_string": "goodbye\n",
	})
	assert.Contains(t, p, "--- /tmp/f.go")
	assert.Contains(t, p, "+++ /tmp/f.go")
	assert.Contains(t, p, "hello")
	assert.Contains(t, p, "goodbye")
}

func TestPreviewEditNoChange(t *testing.T) {
	p := Preview("Edit", map[string]any{
		"file_path":  "/tmp/f.go",
		"old_string": "same",
		"new_string": "same",
	})
	assert.Empty(t, p)
}

func TestPreviewWriteExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("old content\n"), 0o644))

	p := Preview("Write", map[string]any{
		"file_path": path,
		"content":   "new content\n",
	})
	assert.Contains(t, p, "old")
	assert.Contains(t, p, "new")
}

func TestPreviewWriteNewFile(t *testing.T) {
	p := Preview("Write", map[string]any{
		"file_path": filepath.Join(t.TempDir(), "missing.txt"),
		"content":   "fresh\n",
	})
	assert.Contains(t, p, "fresh")
}

func TestPreviewBash(t *testing.T) {
	assert.Equal(t, "rm -rf build", Preview("Bash", map[string]any{"command": "rm -rf build"}))
}

func TestPreviewUnknownTool(t *testing.T) {
	assert.Empty(t, Preview("Glob", map[string]any{"pattern": "**/*.go"}))
}

func TestPreviewTruncates(t *testing.T) {
	p := Preview("Bash", map[string]any{"command": strings.Repeat("x", maxPreviewBytes+100)})
	assert.LessOrEqual(t, len(p), maxPreviewBytes+32)
	assert.True(t, strings.HasSuffix(p, "(truncated)"))
}
