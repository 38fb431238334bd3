package helpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path := WriteFile(t, dir, filepath.Join(".claude", "hooks.yaml"), "pre_tool_use:\n  action: log\n")
	assert.Equal(t, filepath.Join(dir, ".claude", "hooks.yaml"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pre_tool_use:\n  action: log\n", string(content))
}

func TestCleanupDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "to-remove")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))

	CleanupDir(t, dir)

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
