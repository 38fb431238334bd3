package generator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michael-freling/agent-hooks/internal/config"
	"github.com/michael-freling/agent-hooks/internal/hooks"
)

func TestGenerator_Definitions(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	t.Run("every embedded template compiles", func(t *testing.T) {
		for _, name := range g.List() {
			defs, err := g.Definitions([]string{name}, DefaultTemplateData())
			require.NoError(t, err, name)
			assert.NotEmpty(t, defs, name)
		}
	})

	t.Run("turn limit only when max turns is set", func(t *testing.T) {
		defs, err := g.Definitions([]string{"budget"}, DefaultTemplateData())
		require.NoError(t, err)
		for _, def := range defs {
			assert.NotEqual(t, "on_max_turns", def.Event)
		}

		data := DefaultTemplateData()
		data.MaxTurns = 40
		defs, err = g.Definitions([]string{"budget"}, data)
		require.NoError(t, err)
		last := defs[len(defs)-1]
		assert.Equal(t, "on_max_turns", last.Event)
		require.NotNil(t, last.Threshold)
		assert.Equal(t, 40.0, *last.Threshold)
	})

	t.Run("safety template blocks destructive commands", func(t *testing.T) {
		defs, err := g.Definitions([]string{"safety"}, DefaultTemplateData())
		require.NoError(t, err)
		registry, err := hooks.Load(defs)
		require.NoError(t, err)

		tests := []struct {
			command string
			want    hooks.Outcome
		}{
			{command: "git push origin main --force", want: hooks.OutcomeBlocked},
			{command: "rm -rf /", want: hooks.OutcomeBlocked},
			{command: "dd if=/dev/zero of=/dev/sda", want: hooks.OutcomeBlocked},
			{command: "git add .", want: hooks.OutcomeProceed},
			{command: "yarn add react", want: hooks.OutcomeProceed},
			{command: "ls && rm -rf build", want: hooks.OutcomeBlocked},
			{command: "sudo mkfs.ext4 /dev/sdb1", want: hooks.OutcomeBlocked},
			{command: "npm run format", want: hooks.OutcomeProceed},
			{command: "git rm --cached file", want: hooks.OutcomeProceed},
			{command: "go test ./...", want: hooks.OutcomeProceed},
		}
		for _, tt := range tests {
			d := hooks.NewDispatcher(registry, nil)
			decision := d.Dispatch(hooks.LifecycleEvent{
				Kind:     hooks.EventPreToolUse,
				ToolName: "Bash",
				Payload:  map[string]interface{}{"command": tt.command},
			})
			assert.Equal(t, tt.want, decision.Outcome, tt.command)
		}
	})

	t.Run("audit template flags failed commands from hook input", func(t *testing.T) {
		defs, err := g.Definitions([]string{"audit"}, DefaultTemplateData())
		require.NoError(t, err)
		registry, err := hooks.Load(defs)
		require.NoError(t, err)

		input, err := hooks.ParseToolInput(strings.NewReader(`{
			"hook_event_name": "PostToolUse",
			"session_id": "abc",
			"tool_name": "Bash",
			"tool_input": {"command": "deploy.sh", "description": "Deploy"},
			"tool_response": {"stdout": "", "stderr": "bash: deploy.sh: command not found", "interrupted": false}
		}`))
		require.NoError(t, err)

		d := hooks.NewDispatcher(registry, nil)
		decision := d.Dispatch(input.Event(hooks.EventPostToolUse))
		assert.Equal(t, hooks.OutcomeWarn, decision.Outcome)
		require.Len(t, decision.Warnings, 1)
		assert.Contains(t, decision.Warnings[0], "deploy.sh failed: ")
		assert.Contains(t, decision.Warnings[0], "command not found")
	})

	t.Run("invalid template hooks are rejected", func(t *testing.T) {
		bad, err := NewGeneratorWithFS(fstest.MapFS{
			"hooks/bad.yaml.tmpl": {Data: []byte("on_budget_threshold:\n  threshold: [[.WarnAt]]\n  action: warn\n")},
		})
		require.NoError(t, err)

		_, err = bad.Definitions([]string{"bad"}, TemplateData{WarnAt: 2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "threshold")
	})
}

func TestGenerator_InitHooksFile(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	for _, ext := range []string{"yaml", "json", "toml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".claude", "hooks."+ext)

			n, err := g.InitHooksFile(path, []string{"safety", "audit", "budget"}, DefaultTemplateData(), false)
			require.NoError(t, err)

			defs, err := config.LoadHookFiles(path)
			require.NoError(t, err)
			assert.Len(t, defs, n)

			_, err = g.InitHooksFile(path, []string{"safety"}, DefaultTemplateData(), false)
			assert.ErrorIs(t, err, ErrFileExists)

			n, err = g.InitHooksFile(path, []string{"safety"}, DefaultTemplateData(), true)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
		})
	}

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := g.InitHooksFile(filepath.Join(t.TempDir(), "hooks.ini"), []string{"safety"}, DefaultTemplateData(), false)
		assert.Error(t, err)
	})

	t.Run("unknown template writes nothing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hooks.yaml")
		_, err := g.InitHooksFile(path, []string{"missing"}, DefaultTemplateData(), false)
		require.Error(t, err)
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	})
}
