package hooks

import (
	"sync"

	"github.com/rs/zerolog"
)

// Dispatcher evaluates lifecycle events of one session against a Registry.
// Each Dispatcher owns its BudgetTracker; sessions share no mutable state.
type Dispatcher struct {
	mu       sync.Mutex
	registry *Registry
	tracker  *BudgetTracker
	stopped  *Decision
	logger   zerolog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger used for evaluation errors and hook log messages.
func WithLogger(logger zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithStoppedDecision restores a session that was already stopped.
func WithStoppedDecision(decision *Decision) DispatcherOption {
	return func(d *Dispatcher) {
		if decision != nil && decision.Outcome == OutcomeStopped {
			d.stopped = decision.clone()
		}
	}
}

// NewDispatcher creates a dispatcher for one session.
func NewDispatcher(registry *Registry, tracker *BudgetTracker, opts ...DispatcherOption) *Dispatcher {
	if tracker == nil {
		tracker = NewBudgetTracker(Limits{}, BudgetState{})
	}
	d := &Dispatcher{
		registry: registry,
		tracker:  tracker,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.watch()
	return d
}

func (d *Dispatcher) watch() {
	d.tracker.WatchFractions(d.registry.Fractions()...)
	d.tracker.WatchTurnLimits(d.registry.TurnLimits()...)
}

// SetRegistry replaces the registry, for configuration reloads. Counters and
// fired thresholds carry over.
func (d *Dispatcher) SetRegistry(registry *Registry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registry = registry
	d.watch()
}

// Reset starts a new session: counters, fired thresholds and a stopped
// state are cleared.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

func (d *Dispatcher) reset() {
	d.tracker.Reset()
	d.stopped = nil
}

// State returns a snapshot of the session's budget counters.
func (d *Dispatcher) State() BudgetState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tracker.State()
}

// StoppedDecision returns the decision that stopped the session, or nil.
func (d *Dispatcher) StoppedDecision() *Decision {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped.clone()
}

// match is a hook that matched, with its message rendered.
type match struct {
	hook    *Hook
	message string
}

// Dispatch evaluates event and returns the aggregated decision. Events are
// evaluated to completion one at a time. Once a session is stopped every
// further event returns the stopping decision until Reset.
func (d *Dispatcher) Dispatch(event LifecycleEvent) *Decision {
	d.mu.Lock()
	defer d.mu.Unlock()

	if event.Kind == EventSessionStart {
		d.reset()
	}

	if d.stopped != nil {
		return d.stopped.clone()
	}

	var matched []match
	switch event.Kind {
	case EventTurnEnd:
		crossings := d.tracker.Update(event.Cost, 1)
		matched = d.collect(&event)
		matched = append(matched, d.collectCrossings(&event, crossings)...)
	case EventBudgetThreshold, EventBudgetExceeded:
		state := d.tracker.State()
		crossings := d.tracker.Observe(event.Value, state.TurnsElapsed)
		matched = d.collectCrossings(&event, crossings)
	case EventMaxTurns:
		state := d.tracker.State()
		crossings := d.tracker.Observe(state.AccumulatedCost, int(event.Value))
		matched = d.collectCrossings(&event, crossings)
	default:
		matched = d.collect(&event)
	}

	decision := resolve(matched)
	for _, msg := range decision.Logs {
		d.logger.Info().Str("event", string(event.Kind)).Str("tool", event.ToolName).Msg(msg)
	}
	if decision.Outcome == OutcomeStopped {
		d.stopped = decision.clone()
	}
	return decision
}

// collect evaluates the hooks registered for the event's kind.
func (d *Dispatcher) collect(event *LifecycleEvent) []match {
	var matched []match
	for _, hook := range d.registry.Lookup(event.Kind) {
		ok, err := hook.Matches(event)
		if err != nil {
			d.logger.Debug().Err(err).Str("hook", hook.Name()).Str("tool", event.ToolName).Msg("hook skipped")
			continue
		}
		if !ok {
			continue
		}
		matched = append(matched, match{
			hook:    hook,
			message: Render(hook.def.Message, d.fields(event, 0)),
		})
	}
	return matched
}

// collectCrossings selects the threshold hooks fired by crossings, in
// crossing order: budget fractions ascending, then budget exceeded, then turn limits.
func (d *Dispatcher) collectCrossings(event *LifecycleEvent, crossings Crossings) []match {
	if crossings.Empty() {
		return nil
	}

	var matched []match
	for _, hook := range d.registry.Lookup(EventBudgetThreshold) {
		if crossings.hasFraction(hook.fraction) {
			matched = append(matched, match{hook: hook, message: Render(hook.def.Message, d.fields(event, hook.fraction))})
		}
	}
	if crossings.Exceeded {
		for _, hook := range d.registry.Lookup(EventBudgetExceeded) {
			matched = append(matched, match{hook: hook, message: Render(hook.def.Message, d.fields(event, 1))})
		}
	}
	maxTurns := d.tracker.Limits().MaxTurns
	for _, hook := range d.registry.Lookup(EventMaxTurns) {
		limit := hook.turnLimit
		if limit == 0 {
			limit = maxTurns
		}
		if limit > 0 && crossings.hasTurnLimit(limit) {
			fields := d.fields(event, 0)
			fields.MaxTurns = limit
			matched = append(matched, match{hook: hook, message: Render(hook.def.Message, fields)})
		}
	}
	return matched
}

func (d *Dispatcher) fields(event *LifecycleEvent, threshold float64) TemplateFields {
	state := d.tracker.State()
	limits := d.tracker.Limits()

	turnNumber := state.TurnsElapsed + 1
	switch event.Kind {
	case EventTurnEnd, EventBudgetThreshold, EventBudgetExceeded, EventMaxTurns:
		turnNumber = state.TurnsElapsed
	}

	fields := TemplateFields{
		Tool:            event.ToolName,
		Params:          event.Payload,
		TurnNumber:      turnNumber,
		TurnCost:        state.LastTurnCost,
		AccumulatedCost: state.AccumulatedCost,
		Threshold:       threshold,
		BudgetLimit:     limits.BudgetLimit,
		MaxTurns:        limits.MaxTurns,
	}
	fields.Command, _ = event.GetStringArg(FieldCommand)
	fields.URL, _ = event.GetStringArg(FieldURL)
	if event.Payload != nil {
		fields.Result = event.Payload[FieldResult]
	}
	return fields
}

// resolve aggregates matched hooks by severity: the first stop wins, else the
// first block, else every warn and log message in declared order.
func resolve(matched []match) *Decision {
	var (
		stop, block    *match
		warnings, logs []string
	)
	for i := range matched {
		m := &matched[i]
		switch m.hook.action {
		case ActionStop:
			if stop == nil {
				stop = m
			}
		case ActionBlock:
			if block == nil {
				block = m
			}
		case ActionWarn:
			warnings = append(warnings, m.message)
		case ActionLog:
			logs = append(logs, m.message)
		}
	}

	var decision *Decision
	switch {
	case stop != nil:
		decision = NewStoppedDecision(stop.hook.Name(), stop.message)
	case block != nil:
		decision = NewBlockedDecision(block.hook.Name(), block.message)
	default:
		return NewProceedDecision(warnings, logs)
	}
	decision.Warnings = warnings
	decision.Logs = logs
	return decision
}
