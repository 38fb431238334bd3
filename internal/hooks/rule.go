package hooks

import (
	"fmt"
	"math"
	"regexp"
)

// Hook is a validated hook definition with its matchers compiled.
type Hook struct {
	def    Definition
	kind   EventKind
	index  int
	action Action

	// toolName is set when the tool filter is a plain name; toolRegex otherwise.
	toolName  string
	toolRegex *regexp.Regexp
	pattern   *regexp.Regexp

	fraction  float64
	turnLimit int
}

// Name returns the authored name, or the event and position of the hook.
func (h *Hook) Name() string {
	if h.def.Name != "" {
		return h.def.Name
	}
	return fmt.Sprintf("%s[%d]", h.kind, h.index)
}

// Description returns a human-readable summary of what the hook does.
func (h *Hook) Description() string {
	if h.def.Message != "" {
		return h.def.Message
	}
	return fmt.Sprintf("%s on %s", h.action, h.kind)
}

// Kind returns the event kind the hook is registered for.
func (h *Hook) Kind() EventKind {
	return h.kind
}

// Action returns the hook's action.
func (h *Hook) Action() Action {
	return h.action
}

// Definition returns the source definition of the hook.
func (h *Hook) Definition() Definition {
	def := h.def
	if h.def.Threshold != nil {
		def.Threshold = Float64(*h.def.Threshold)
	}
	return def
}

// Fraction returns the budget fraction of an on_budget_threshold hook.
func (h *Hook) Fraction() float64 {
	return h.fraction
}

// TurnLimit returns the turn limit of an on_max_turns hook, or 0 when the
// hook defers to the session's configured maximum.
func (h *Hook) TurnLimit() int {
	return h.turnLimit
}

// compileHook validates def and compiles its matchers.
func compileHook(def Definition, index int) (*Hook, error) {
	invalid := func(field, reason string, err error) error {
		return &ValidationError{Event: def.Event, Index: index, Field: field, Reason: reason, Err: err}
	}

	kind := EventKind(def.Event)
	if !kind.Valid() {
		return nil, invalid("event", fmt.Sprintf("unknown event %q", def.Event), nil)
	}

	if def.Action == "" {
		return nil, invalid("action", "action is required", nil)
	}
	action, err := ParseAction(def.Action)
	if err != nil {
		return nil, invalid("action", "must be one of allow, warn, log, block, stop", err)
	}

	h := &Hook{
		def:    def,
		kind:   kind,
		index:  index,
		action: action,
	}

	if kind.IsThreshold() {
		if def.Tool != "" {
			return nil, invalid("tool", "not supported for threshold events", nil)
		}
		if def.Pattern != "" {
			return nil, invalid("pattern", "not supported for threshold events", nil)
		}
		if def.Field != "" {
			return nil, invalid("field", "not supported for threshold events", nil)
		}
	}

	switch kind {
	case EventBudgetThreshold:
		if def.Threshold == nil {
			return nil, invalid("threshold", "threshold is required", nil)
		}
		t := *def.Threshold
		if math.IsNaN(t) || t <= 0 || t > 1 {
			return nil, invalid("threshold", fmt.Sprintf("%v must be a fraction in (0,1]", t), nil)
		}
		h.fraction = t
	case EventMaxTurns:
		if def.Threshold != nil {
			t := *def.Threshold
			if math.IsNaN(t) || t < 1 || t != math.Trunc(t) || t > math.MaxInt32 {
				return nil, invalid("threshold", fmt.Sprintf("%v must be a positive integer", t), nil)
			}
			h.turnLimit = int(t)
		}
	default:
		if def.Threshold != nil {
			return nil, invalid("threshold", fmt.Sprintf("not supported for %s", kind), nil)
		}
	}

	if def.Tool != "" {
		if isPlainName(def.Tool) {
			h.toolName = def.Tool
		} else {
			re, err := compileBounded("^(?:" + def.Tool + ")$")
			if err != nil {
				return nil, invalid("tool", "invalid tool filter", err)
			}
			h.toolRegex = re
		}
	}

	if def.Pattern != "" {
		re, err := compileBounded(def.Pattern)
		if err != nil {
			return nil, invalid("pattern", "invalid pattern", err)
		}
		h.pattern = re
	} else if def.Field != "" {
		return nil, invalid("field", "field requires a pattern", nil)
	}

	return h, nil
}
