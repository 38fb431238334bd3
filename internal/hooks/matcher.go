package hooks

import (
	"errors"
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"
)

const (
	// MaxPatternLength bounds the source length of an authored regular expression.
	MaxPatternLength = 1024

	// MaxProgramSize bounds the number of instructions of a compiled pattern.
	// Large counted repetitions such as (a{100}){100} are rejected by it.
	MaxProgramSize = 20000

	// FieldPlanApproved is the payload field require_plan hooks consult.
	FieldPlanApproved = "plan_approved"
)

var (
	errPatternTooLong  = errors.New("pattern too long")
	errPatternTooLarge = errors.New("pattern compiles to too large a program")
)

// defaultPatternFields are tried in order when a hook sets no explicit field.
var defaultPatternFields = []string{"command", "url", "text", "file_path", "content", "query"}

// compileBounded compiles a user-authored regular expression after checking
// its size limits. Go's RE2 engine guarantees linear-time matching, so the
// remaining risk is memory, which the limits cap.
func compileBounded(pattern string) (*regexp.Regexp, error) {
	if len(pattern) > MaxPatternLength {
		return nil, fmt.Errorf("%w: %d > %d bytes", errPatternTooLong, len(pattern), MaxPatternLength)
	}

	parsed, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, err
	}
	prog, err := syntax.Compile(parsed.Simplify())
	if err != nil {
		return nil, err
	}
	if len(prog.Inst) > MaxProgramSize {
		return nil, fmt.Errorf("%w: %d instructions", errPatternTooLarge, len(prog.Inst))
	}

	return regexp.Compile(pattern)
}

// isPlainName reports whether a tool filter is a literal tool name rather
// than a regular expression.
func isPlainName(filter string) bool {
	return regexp.QuoteMeta(filter) == filter
}

// Matches reports whether the hook applies to the event. Threshold hooks never
// match here; they fire through budget tracker crossings. A non-nil error
// means the event lacked data the hook needs, and the hook did not match.
func (h *Hook) Matches(event *LifecycleEvent) (bool, error) {
	if event == nil || h.kind.IsThreshold() {
		return false, nil
	}

	if h.def.RequirePlan {
		if approved, _ := event.GetBoolArg(FieldPlanApproved); approved {
			return false, nil
		}
	}

	if h.toolName != "" || h.toolRegex != nil {
		if event.ToolName == "" {
			return false, nil
		}
		if !h.matchTool(event.ToolName) {
			return false, nil
		}
	}

	if h.pattern == nil {
		return true, nil
	}

	subject, err := h.subject(event)
	if err != nil {
		return false, err
	}
	return h.pattern.MatchString(subject), nil
}

func (h *Hook) matchTool(toolName string) bool {
	if h.toolRegex != nil {
		return h.toolRegex.MatchString(toolName)
	}
	return h.toolName == toolName
}

// subject returns the payload value the hook's pattern is matched against.
func (h *Hook) subject(event *LifecycleEvent) (string, error) {
	if h.def.Field != "" {
		value, ok := event.GetStringArg(h.def.Field)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrFieldMissing, h.def.Field)
		}
		return value, nil
	}

	for _, field := range defaultPatternFields {
		if value, ok := event.GetStringArg(field); ok {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: none of %s", ErrFieldMissing, strings.Join(defaultPatternFields, ", "))
}
