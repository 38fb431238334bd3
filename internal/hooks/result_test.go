package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProceedDecision(t *testing.T) {
	tests := []struct {
		name     string
		warnings []string
		logs     []string
		want     *Decision
	}{
		{
			name: "creates proceed decision",
			want: &Decision{Outcome: OutcomeProceed},
		},
		{
			name: "logs keep proceed outcome",
			logs: []string{"Tool used: Bash"},
			want: &Decision{Outcome: OutcomeProceed, Logs: []string{"Tool used: Bash"}},
		},
		{
			name:     "warnings produce warn outcome",
			warnings: []string{"careful"},
			logs:     []string{"logged"},
			want:     &Decision{Outcome: OutcomeWarn, Warnings: []string{"careful"}, Logs: []string{"logged"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewProceedDecision(tt.warnings, tt.logs)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Proceeds())
			assert.Equal(t, 0, got.ExitCode())
		})
	}
}

func TestNewBlockedDecision(t *testing.T) {
	got := NewBlockedDecision("test-hook", "test blocked message")

	assert.Equal(t, &Decision{
		Outcome: OutcomeBlocked,
		Message: "test blocked message",
		Hook:    "test-hook",
	}, got)
	assert.False(t, got.Proceeds())
	assert.Equal(t, 2, got.ExitCode())
}

func TestNewStoppedDecision(t *testing.T) {
	got := NewStoppedDecision("", "budget exhausted")

	assert.Equal(t, &Decision{
		Outcome: OutcomeStopped,
		Message: "budget exhausted",
	}, got)
	assert.False(t, got.Proceeds())
	assert.Equal(t, 2, got.ExitCode())
}

func TestDecision_Clone(t *testing.T) {
	original := &Decision{Outcome: OutcomeStopped, Message: "stop", Logs: []string{"a"}}

	cloned := original.clone()
	cloned.Logs[0] = "changed"

	assert.Equal(t, "a", original.Logs[0])
	assert.Nil(t, (*Decision)(nil).clone())
}
