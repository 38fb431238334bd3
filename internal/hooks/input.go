package hooks

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// ToolInput represents the hook input Claude Code writes to a hook command's stdin.
type ToolInput struct {
	HookEventName string          `json:"hook_event_name,omitempty"`
	SessionID     string          `json:"session_id,omitempty"`
	ToolName      string          `json:"tool_name"`
	ToolInput     json.RawMessage `json:"tool_input"`
	ToolResponse  json.RawMessage `json:"tool_response,omitempty"`
	parsed        map[string]interface{}
	response      interface{}
}

var claudeEventKinds = map[string]EventKind{
	"PreToolUse":   EventPreToolUse,
	"PostToolUse":  EventPostToolUse,
	"SessionStart": EventSessionStart,
}

// ParseToolInput reads and parses tool input JSON from a reader.
func ParseToolInput(reader io.Reader) (*ToolInput, error) {
	var input ToolInput
	if err := json.NewDecoder(reader).Decode(&input); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	if input.ToolName == "" && input.needsTool() {
		return nil, fmt.Errorf("tool_name is required")
	}

	if len(input.ToolInput) > 0 {
		var parsed map[string]interface{}
		if err := json.Unmarshal(input.ToolInput, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse tool_input: %w", err)
		}
		input.parsed = parsed
	}

	if len(input.ToolResponse) > 0 {
		var response interface{}
		if err := json.Unmarshal(input.ToolResponse, &response); err != nil {
			return nil, fmt.Errorf("failed to parse tool_response: %w", err)
		}
		input.response = response
	}

	return &input, nil
}

// needsTool reports whether the input's event is about a tool call. Input
// without a known hook_event_name is treated as a tool event.
func (t *ToolInput) needsTool() bool {
	kind, ok := claudeEventKinds[t.HookEventName]
	return !ok || kind == EventPreToolUse || kind == EventPostToolUse
}

// Event converts the tool input into a lifecycle event. The hook_event_name
// takes precedence over fallback when it names a known Claude Code event.
// The tool response is stored as the result field; when it is an object, its
// string members (stdout, stderr, ...) are also copied into the payload
// unless the tool input already has a field of that name.
func (t *ToolInput) Event(fallback EventKind) LifecycleEvent {
	kind := fallback
	if mapped, ok := claudeEventKinds[t.HookEventName]; ok {
		kind = mapped
	}

	payload := make(map[string]interface{}, len(t.parsed)+1)
	for key, value := range t.parsed {
		payload[key] = value
	}
	if t.response != nil {
		payload[FieldResult] = t.response
	}
	if response, ok := t.response.(map[string]interface{}); ok {
		for key, value := range response {
			if _, exists := payload[key]; exists {
				continue
			}
			if s, ok := value.(string); ok {
				payload[key] = s
			}
		}
	}

	return LifecycleEvent{
		Kind:     kind,
		ToolName: t.ToolName,
		Payload:  payload,
	}
}
