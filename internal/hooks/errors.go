package hooks

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrFieldMissing  = errors.New("payload field missing")
)

// ValidationError reports a hook definition rejected at load time.
type ValidationError struct {
	// Event is the event tag the definition was registered under.
	Event string
	// Index is the position of the definition within its event's list.
	Index int
	// Field names the offending definition field.
	Field string
	// Reason describes why the value was rejected.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid hook %s[%d]: %s: %s", e.Event, e.Index, e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
