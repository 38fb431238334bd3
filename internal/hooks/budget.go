package hooks

import "sort"

// crossingEpsilon absorbs float rounding when accumulated costs are built from
// many small increments.
const crossingEpsilon = 1e-9

// Limits configures the budget and turn ceilings of a session.
// A zero value disables the corresponding checks.
type Limits struct {
	BudgetLimit float64 `json:"budget_limit"`
	MaxTurns    int     `json:"max_turns"`
}

// BudgetState holds the cumulative counters of one session.
type BudgetState struct {
	AccumulatedCost float64   `json:"accumulated_cost"`
	LastTurnCost    float64   `json:"last_turn_cost"`
	TurnsElapsed    int       `json:"turns_elapsed"`
	FiredFractions  []float64 `json:"fired_fractions,omitempty"`
	FiredTurnLimits []int     `json:"fired_turn_limits,omitempty"`
	Exceeded        bool      `json:"exceeded,omitempty"`
}

// Crossings are the thresholds newly crossed by one tracker update.
type Crossings struct {
	Fractions  []float64
	TurnLimits []int
	Exceeded   bool
}

// Empty reports whether nothing was crossed.
func (c Crossings) Empty() bool {
	return len(c.Fractions) == 0 && len(c.TurnLimits) == 0 && !c.Exceeded
}

func (c Crossings) hasFraction(f float64) bool {
	for _, crossed := range c.Fractions {
		if crossed == f {
			return true
		}
	}
	return false
}

func (c Crossings) hasTurnLimit(n int) bool {
	for _, crossed := range c.TurnLimits {
		if crossed == n {
			return true
		}
	}
	return false
}

// BudgetTracker maintains the counters of one session and reports each
// watched threshold at most once. It is not safe for concurrent use; the
// Dispatcher that owns it serializes access.
type BudgetTracker struct {
	limits Limits
	state  BudgetState

	fractions  map[float64]bool
	turnLimits map[int]bool

	firedFractions  map[float64]bool
	firedTurnLimits map[int]bool
}

// NewBudgetTracker creates a tracker with the given limits, starting from
// initial. Thresholds recorded as fired in initial stay fired.
func NewBudgetTracker(limits Limits, initial BudgetState) *BudgetTracker {
	t := &BudgetTracker{
		limits:          limits,
		state:           initial,
		fractions:       make(map[float64]bool),
		turnLimits:      make(map[int]bool),
		firedFractions:  make(map[float64]bool),
		firedTurnLimits: make(map[int]bool),
	}
	for _, f := range initial.FiredFractions {
		t.firedFractions[f] = true
	}
	for _, n := range initial.FiredTurnLimits {
		t.firedTurnLimits[n] = true
	}
	if limits.MaxTurns > 0 {
		t.turnLimits[limits.MaxTurns] = true
	}
	return t
}

// Limits returns the tracker's limits.
func (t *BudgetTracker) Limits() Limits {
	return t.limits
}

// WatchFractions registers budget fractions to report crossings for.
func (t *BudgetTracker) WatchFractions(fractions ...float64) {
	for _, f := range fractions {
		t.fractions[f] = true
	}
}

// WatchTurnLimits registers turn limits to report crossings for.
func (t *BudgetTracker) WatchTurnLimits(limits ...int) {
	for _, n := range limits {
		if n > 0 {
			t.turnLimits[n] = true
		}
	}
}

// Update adds the deltas of a finished turn and returns the thresholds
// crossed for the first time. Negative deltas are ignored so the counters
// never decrease.
func (t *BudgetTracker) Update(costDelta float64, turnDelta int) Crossings {
	if costDelta < 0 {
		costDelta = 0
	}
	if turnDelta < 0 {
		turnDelta = 0
	}

	t.state.AccumulatedCost += costDelta
	t.state.TurnsElapsed += turnDelta
	if turnDelta > 0 {
		t.state.LastTurnCost = costDelta
	}

	return t.check()
}

// Observe records cumulative values reported by the runtime. Values below the
// current counters are ignored.
func (t *BudgetTracker) Observe(accumulatedCost float64, turnsElapsed int) Crossings {
	if accumulatedCost > t.state.AccumulatedCost {
		t.state.AccumulatedCost = accumulatedCost
	}
	if turnsElapsed > t.state.TurnsElapsed {
		t.state.TurnsElapsed = turnsElapsed
	}
	return t.check()
}

func (t *BudgetTracker) check() Crossings {
	var c Crossings

	if t.limits.BudgetLimit > 0 {
		ratio := t.state.AccumulatedCost / t.limits.BudgetLimit
		for _, f := range sortedFloats(t.fractions) {
			if t.firedFractions[f] || ratio+crossingEpsilon < f {
				continue
			}
			t.firedFractions[f] = true
			c.Fractions = append(c.Fractions, f)
		}

		if !t.state.Exceeded && t.state.AccumulatedCost+crossingEpsilon >= t.limits.BudgetLimit {
			t.state.Exceeded = true
			c.Exceeded = true
		}
	}

	for _, n := range sortedInts(t.turnLimits) {
		if t.firedTurnLimits[n] || t.state.TurnsElapsed < n {
			continue
		}
		t.firedTurnLimits[n] = true
		c.TurnLimits = append(c.TurnLimits, n)
	}

	return c
}

// State returns a snapshot of the counters.
func (t *BudgetTracker) State() BudgetState {
	s := t.state
	s.FiredFractions = sortedFloats(t.firedFractions)
	s.FiredTurnLimits = sortedInts(t.firedTurnLimits)
	return s
}

// Reset clears counters and fired thresholds for a new session. Watched
// thresholds are kept.
func (t *BudgetTracker) Reset() {
	t.state = BudgetState{}
	t.firedFractions = make(map[float64]bool)
	t.firedTurnLimits = make(map[int]bool)
}

func sortedFloats(set map[float64]bool) []float64 {
	if len(set) == 0 {
		return nil
	}
	out := make([]float64, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

func sortedInts(set map[int]bool) []int {
	if len(set) == 0 {
		return nil
	}
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
