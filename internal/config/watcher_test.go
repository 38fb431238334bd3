package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michael-freling/agent-hooks/internal/hooks"
)

type reloadRecorder struct {
	mu         sync.Mutex
	registries []*hooks.Registry
}

func (r *reloadRecorder) record(registry *hooks.Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registries = append(r.registries, registry)
}

func (r *reloadRecorder) last() *hooks.Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.registries) == 0 {
		return nil
	}
	return r.registries[len(r.registries)-1]
}

func (r *reloadRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registries)
}

func TestWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hooks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pre_tool_use:\n  action: log\n"), 0o644))

	recorder := &reloadRecorder{}
	w, err := NewWatcher(NewRegistryLoader(path), recorder.record)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Reload())
	require.Equal(t, 1, recorder.count())
	assert.Equal(t, 1, recorder.last().Len())

	require.NoError(t, os.WriteFile(path, []byte("pre_tool_use:\n  action: nope\n"), 0o644))
	assert.Error(t, w.Reload())
	assert.Equal(t, 1, recorder.count(), "failed reload must not replace the registry")
}

func TestWatcher_Start(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hooks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pre_tool_use:\n  action: log\n"), 0o644))

	recorder := &reloadRecorder{}
	w, err := NewWatcher(NewRegistryLoader(path), recorder.record, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	content := "pre_tool_use:\n  - action: log\n  - tool: Bash\n    action: block\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	require.Eventually(t, func() bool {
		registry := recorder.last()
		return registry != nil && registry.Len() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_Close(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hooks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pre_tool_use:\n  action: log\n"), 0o644))

	w, err := NewWatcher(NewRegistryLoader(path), nil)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.ErrorIs(t, w.Start(context.Background()), ErrWatcherClosed)
}
