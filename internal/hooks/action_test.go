package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		input   string
		want    Action
		wantErr bool
	}{
		{input: "allow", want: ActionAllow},
		{input: "log", want: ActionLog},
		{input: "warn", want: ActionWarn},
		{input: "block", want: ActionBlock},
		{input: "stop", want: ActionStop},
		{input: "Block", wantErr: true},
		{input: "deny", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAction(tt.input)

			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownAction)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestAction_Severity(t *testing.T) {
	ordered := []Action{ActionAllow, ActionLog, ActionWarn, ActionBlock, ActionStop}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Severity(), ordered[i-1].Severity(), "%s should outrank %s", ordered[i], ordered[i-1])
	}
}

func TestAction_Text(t *testing.T) {
	text, err := ActionBlock.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "block", string(text))

	var action Action
	require.NoError(t, action.UnmarshalText([]byte("stop")))
	assert.Equal(t, ActionStop, action)

	assert.Error(t, action.UnmarshalText([]byte("explode")))

	_, err = Action(0).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "Action(0)", Action(0).String())
}
