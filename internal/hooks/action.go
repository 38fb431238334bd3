package hooks

import "fmt"

// Action is the effect a matching hook has on the event it matched.
// Values are ordered by increasing severity.
type Action uint8

const (
	ActionAllow Action = iota + 1
	ActionLog
	ActionWarn
	ActionBlock
	ActionStop
)

var actionNames = map[Action]string{
	ActionAllow: "allow",
	ActionLog:   "log",
	ActionWarn:  "warn",
	ActionBlock: "block",
	ActionStop:  "stop",
}

// ParseAction converts an authored action string into an Action.
func ParseAction(s string) (Action, error) {
	for action, name := range actionNames {
		if name == s {
			return action, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// String returns the authored name of the action.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

// Severity orders actions for decision resolution: stop > block > warn > log > allow.
func (a Action) Severity() int {
	return int(a)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	name, ok := actionNames[a]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, uint8(a))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
