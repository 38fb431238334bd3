package hooks

// Outcome is the control-flow effect of a decision on the runtime.
type Outcome string

const (
	// OutcomeProceed lets the runtime continue. Log messages may be attached.
	OutcomeProceed Outcome = "proceed"
	// OutcomeWarn lets the runtime continue and surfaces warnings to the operator.
	OutcomeWarn Outcome = "warn"
	// OutcomeBlocked aborts the tool call the event precedes.
	OutcomeBlocked Outcome = "blocked"
	// OutcomeStopped terminates the session.
	OutcomeStopped Outcome = "stopped"
)

// Decision is the aggregated result of evaluating all hooks for one event.
type Decision struct {
	Outcome Outcome `json:"outcome"`

	// Message is the rendered message of the hook that blocked or stopped.
	Message string `json:"message,omitempty"`

	// Hook identifies which hook produced a blocked or stopped outcome.
	Hook string `json:"hook,omitempty"`

	// Warnings are surfaced to the operator, in declared order.
	Warnings []string `json:"warnings,omitempty"`

	// Logs are informational only, in declared order.
	Logs []string `json:"logs,omitempty"`
}

// NewProceedDecision creates a decision that lets the runtime continue.
// The outcome is OutcomeWarn when any warnings are attached.
func NewProceedDecision(warnings, logs []string) *Decision {
	outcome := OutcomeProceed
	if len(warnings) > 0 {
		outcome = OutcomeWarn
	}
	return &Decision{
		Outcome:  outcome,
		Warnings: warnings,
		Logs:     logs,
	}
}

// NewBlockedDecision creates a decision that aborts the pending tool call.
func NewBlockedDecision(hookName, message string) *Decision {
	return &Decision{
		Outcome: OutcomeBlocked,
		Message: message,
		Hook:    hookName,
	}
}

// NewStoppedDecision creates a decision that terminates the session.
func NewStoppedDecision(hookName, message string) *Decision {
	return &Decision{
		Outcome: OutcomeStopped,
		Message: message,
		Hook:    hookName,
	}
}

// Proceeds reports whether the runtime may continue past the event.
func (d *Decision) Proceeds() bool {
	return d.Outcome == OutcomeProceed || d.Outcome == OutcomeWarn
}

// ExitCode maps the decision onto the Claude Code hook protocol:
// 0 lets the tool run, 2 blocks it.
func (d *Decision) ExitCode() int {
	if d.Proceeds() {
		return 0
	}
	return 2
}

// clone returns a deep copy so callers cannot mutate a stored decision.
func (d *Decision) clone() *Decision {
	if d == nil {
		return nil
	}
	c := *d
	c.Warnings = append([]string(nil), d.Warnings...)
	c.Logs = append([]string(nil), d.Logs...)
	return &c
}
