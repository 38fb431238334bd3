package hooks

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// EventKind identifies a point in the agent lifecycle at which hooks may fire.
type EventKind string

const (
	EventPreToolUse      EventKind = "pre_tool_use"
	EventPostToolUse     EventKind = "post_tool_use"
	EventTurnStart       EventKind = "on_turn_start"
	EventTurnEnd         EventKind = "on_turn_end"
	EventBudgetThreshold EventKind = "on_budget_threshold"
	EventBudgetExceeded  EventKind = "on_budget_exceeded"
	EventMaxTurns        EventKind = "on_max_turns"
	EventSessionStart    EventKind = "on_session_start"
)

var eventKinds = map[EventKind]bool{
	EventPreToolUse:      true,
	EventPostToolUse:     true,
	EventTurnStart:       true,
	EventTurnEnd:         true,
	EventBudgetThreshold: true,
	EventBudgetExceeded:  true,
	EventMaxTurns:        true,
	EventSessionStart:    true,
}

// Valid reports whether k is one of the known event kinds.
func (k EventKind) Valid() bool {
	return eventKinds[k]
}

// IsThreshold reports whether hooks of this kind are driven by budget tracker
// crossings rather than by tool filters and patterns.
func (k EventKind) IsThreshold() bool {
	switch k {
	case EventBudgetThreshold, EventBudgetExceeded, EventMaxTurns:
		return true
	}
	return false
}

// LifecycleEvent is one event emitted by the agent runtime.
type LifecycleEvent struct {
	Kind     EventKind              `json:"kind"`
	ToolName string                 `json:"tool_name,omitempty"`
	Payload  map[string]interface{} `json:"payload,omitempty"`

	// Cost is the cost of the turn that just ended. Only read for on_turn_end.
	Cost float64 `json:"cost,omitempty"`

	// Value is the current cumulative value carried by budget and turn events:
	// accumulated cost for on_budget_threshold and on_budget_exceeded, turns
	// elapsed for on_max_turns.
	Value float64 `json:"value,omitempty"`
}

// ParseEvent reads and parses a lifecycle event JSON document from a reader.
func ParseEvent(reader io.Reader) (*LifecycleEvent, error) {
	var event LifecycleEvent
	if err := json.NewDecoder(reader).Decode(&event); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	if event.Kind == "" {
		return nil, fmt.Errorf("kind is required")
	}

	return &event, nil
}

// GetStringArg retrieves a string field from the event payload.
// Returns the value and true if found, empty string and false if not found.
func (e *LifecycleEvent) GetStringArg(name string) (string, bool) {
	if e.Payload == nil {
		return "", false
	}

	value, ok := e.Payload[name]
	if !ok {
		return "", false
	}

	strValue, ok := value.(string)
	if !ok {
		return "", false
	}

	return strValue, true
}

// GetBoolArg retrieves a boolean field from the event payload.
// Returns the value and true if found, false and false if not found.
func (e *LifecycleEvent) GetBoolArg(name string) (bool, bool) {
	if e.Payload == nil {
		return false, false
	}

	value, ok := e.Payload[name]
	if !ok {
		return false, false
	}

	boolValue, ok := value.(bool)
	if !ok {
		return false, false
	}

	return boolValue, true
}
