package helpers

import (
	"os"
	"path/filepath"
	"testing"
)

// CleanupDir safely removes a directory
func CleanupDir(t *testing.T, dir string) {
	t.Helper()

	if err := os.RemoveAll(dir); err != nil {
		t.Errorf("failed to cleanup directory %s: %v", dir, err)
	}
}

// CleanupOnFailure runs cleanup only if the test failed.
func CleanupOnFailure(t *testing.T, cleanup func()) {
	t.Helper()

	t.Cleanup(func() {
		if t.Failed() {
			cleanup()
		}
	})
}

// WriteFile writes content under dir, creating parent directories, and
// returns the file's path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
