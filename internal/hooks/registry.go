package hooks

// Registry maps event kinds to their hooks in declared order.
// It is immutable once loaded; a configuration change builds a new Registry.
type Registry struct {
	hooks       map[EventKind][]*Hook
	definitions []Definition
}

// Load validates and compiles definitions into a Registry. The first invalid
// definition aborts the load with a *ValidationError and no Registry is returned.
// Declared order is the order of definitions within each event.
func Load(definitions []Definition) (*Registry, error) {
	registry := &Registry{
		hooks:       make(map[EventKind][]*Hook),
		definitions: make([]Definition, 0, len(definitions)),
	}

	indexes := make(map[string]int)
	for _, def := range definitions {
		index := indexes[def.Event]
		indexes[def.Event]++

		hook, err := compileHook(def, index)
		if err != nil {
			return nil, err
		}

		registry.hooks[hook.kind] = append(registry.hooks[hook.kind], hook)
		registry.definitions = append(registry.definitions, hook.Definition())
	}

	return registry, nil
}

// Lookup returns the hooks registered for kind in declared order.
// It returns an empty slice when none are registered.
func (r *Registry) Lookup(kind EventKind) []*Hook {
	if r == nil {
		return []*Hook{}
	}
	hooks := r.hooks[kind]
	out := make([]*Hook, len(hooks))
	copy(out, hooks)
	return out
}

// Definitions returns the source definitions in load order.
func (r *Registry) Definitions() []Definition {
	if r == nil {
		return nil
	}
	out := make([]Definition, len(r.definitions))
	for i, def := range r.definitions {
		if def.Threshold != nil {
			def.Threshold = Float64(*def.Threshold)
		}
		out[i] = def
	}
	return out
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.definitions)
}

// Fractions returns the budget fractions of all on_budget_threshold hooks.
func (r *Registry) Fractions() []float64 {
	var out []float64
	for _, hook := range r.Lookup(EventBudgetThreshold) {
		out = append(out, hook.fraction)
	}
	return out
}

// TurnLimits returns the explicit turn limits of all on_max_turns hooks.
func (r *Registry) TurnLimits() []int {
	var out []int
	for _, hook := range r.Lookup(EventMaxTurns) {
		if hook.turnLimit > 0 {
			out = append(out, hook.turnLimit)
		}
	}
	return out
}
