//go:build e2e

package e2e

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michael-freling/agent-hooks/internal/hooks"
	"github.com/michael-freling/agent-hooks/test/e2e/helpers"
)

const e2eHooks = `
pre_tool_use:
  - name: no-destroy
    tool: Bash
    pattern: "(rm|dd|mkfs|format)"
    action: block
    message: "Dangerous bash command blocked for safety"
on_budget_threshold:
  threshold: 0.8
  action: warn
  message: "{{threshold}} of {{budget_limit}} used"
on_budget_exceeded:
  action: stop
  message: "out of budget"
`

func setup(t *testing.T) (string, []string) {
	t.Helper()
	helpers.RequireBinary(t)

	dir := t.TempDir()
	hookFile := helpers.WriteFile(t, dir, filepath.Join(".claude", "hooks.yaml"), e2eHooks)
	args := []string{"--hooks", hookFile, "--state-dir", filepath.Join(dir, "state"), "--budget-limit", "10"}
	return dir, args
}

// TestPreToolUse tests the 'agent-hooks pre-tool-use' command with Claude Code hook input
func TestPreToolUse(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantExitCode int
		wantStderr   string
	}{
		{
			name:         "allows safe command",
			input:        `{"session_id": "e2e", "hook_event_name": "PreToolUse", "tool_name": "Bash", "tool_input": {"command": "ls -la"}}`,
			wantExitCode: 0,
		},
		{
			name:         "blocks destructive command",
			input:        `{"session_id": "e2e", "hook_event_name": "PreToolUse", "tool_name": "Bash", "tool_input": {"command": "rm -rf build"}}`,
			wantExitCode: 2,
			wantStderr:   "Blocked by hook no-destroy: Dangerous bash command blocked for safety",
		},
		{
			name:         "other tools are not matched",
			input:        `{"session_id": "e2e", "hook_event_name": "PreToolUse", "tool_name": "Read", "tool_input": {"file_path": "rm.go"}}`,
			wantExitCode: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, args := setup(t)
			result := helpers.Run(t, dir, tt.input, append([]string{"pre-tool-use"}, args...)...)
			assert.Equal(t, tt.wantExitCode, result.ExitCode, result.Stderr)
			if tt.wantStderr != "" {
				assert.Contains(t, result.Stderr, tt.wantStderr)
			}
		})
	}
}

// TestDispatch_Budget tests budget thresholds across separate invocations of one session
func TestDispatch_Budget(t *testing.T) {
	dir, args := setup(t)
	dispatch := func(event string) (hooks.Decision, int) {
		result := helpers.Run(t, dir, event, append([]string{"dispatch", "--session", "budget"}, args...)...)
		var decision hooks.Decision
		require.NoError(t, json.Unmarshal([]byte(result.Stdout), &decision), result.Stderr)
		return decision, result.ExitCode
	}

	decision, code := dispatch(`{"kind": "on_turn_end", "cost": 4}`)
	assert.Equal(t, 0, code)
	assert.Equal(t, hooks.OutcomeProceed, decision.Outcome)

	decision, code = dispatch(`{"kind": "on_turn_end", "cost": 4.5}`)
	assert.Equal(t, 0, code)
	assert.Equal(t, hooks.OutcomeWarn, decision.Outcome)
	assert.Equal(t, []string{"80% of 10.00 used"}, decision.Warnings)

	decision, code = dispatch(`{"kind": "on_turn_end", "cost": 0.1}`)
	assert.Equal(t, 0, code)
	assert.Equal(t, hooks.OutcomeProceed, decision.Outcome, "thresholds fire once per session")

	decision, code = dispatch(`{"kind": "on_turn_end", "cost": 2}`)
	assert.Equal(t, 2, code)
	assert.Equal(t, hooks.OutcomeStopped, decision.Outcome)

	result := helpers.Run(t, dir, "", append([]string{"session", "show", "budget"}, args...)...)
	require.Equal(t, 0, result.ExitCode, result.Stderr)
	assert.Contains(t, result.Stdout, `"turns_elapsed": 4`)
}

// TestStream tests the 'agent-hooks stream' command
func TestStream(t *testing.T) {
	dir, args := setup(t)
	input := strings.Join([]string{
		`{"kind": "on_session_start"}`,
		`{"kind": "pre_tool_use", "tool_name": "Bash", "payload": {"command": "mkfs.ext4 /dev/sdb"}}`,
		`{"kind": "on_turn_end", "cost": 11}`,
		`{"kind": "pre_tool_use", "tool_name": "Bash", "payload": {"command": "ls"}}`,
	}, "\n")

	result := helpers.Run(t, dir, input, append([]string{"stream"}, args...)...)
	require.Equal(t, 0, result.ExitCode, result.Stderr)

	lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")
	require.Len(t, lines, 4)

	outcomes := make([]hooks.Outcome, 0, len(lines))
	for _, line := range lines {
		var decision hooks.Decision
		require.NoError(t, json.Unmarshal([]byte(line), &decision))
		outcomes = append(outcomes, decision.Outcome)
	}
	assert.Equal(t, []hooks.Outcome{hooks.OutcomeProceed, hooks.OutcomeBlocked, hooks.OutcomeStopped, hooks.OutcomeStopped}, outcomes)
}

// TestInitAndValidate tests writing starter hooks and validating them
func TestInitAndValidate(t *testing.T) {
	dir, args := setup(t)
	output := filepath.Join(dir, "starter.json")

	result := helpers.Run(t, dir, "", append([]string{"init", "--output", output}, args...)...)
	require.Equal(t, 0, result.ExitCode, result.Stderr)

	result = helpers.Run(t, dir, "", append([]string{"validate", output}, args...)...)
	assert.Equal(t, 0, result.ExitCode, result.Stderr)
	assert.Contains(t, result.Stdout, "ok")

	bad := helpers.WriteFile(t, dir, "bad.yaml", "pre_tool_use:\n  action: explode\n")
	result = helpers.Run(t, dir, "", append([]string{"validate", bad}, args...)...)
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "action")
}
