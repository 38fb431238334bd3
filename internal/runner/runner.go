// Package runner connects hook registries, persisted session state and the
// dispatcher for the CLI.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/michael-freling/agent-hooks/internal/hooks"
	"github.com/michael-freling/agent-hooks/internal/state"
)

// RegistryLoader builds the hook registry for an invocation.
type RegistryLoader interface {
	LoadRegistry() (*hooks.Registry, error)
}

// Runner evaluates events for persisted sessions. Each Dispatch restores the
// session's counters from the store, evaluates one event and saves the result
// under the session lock, so separate hook processes share one session.
type Runner struct {
	loader RegistryLoader
	store  state.Store
	limits hooks.Limits
	logger zerolog.Logger

	mu     sync.Mutex
	active []*hooks.Dispatcher
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger passed to dispatchers.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// New creates a runner.
func New(loader RegistryLoader, store state.Store, limits hooks.Limits, opts ...Option) *Runner {
	r := &Runner{
		loader: loader,
		store:  store,
		limits: limits,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dispatch evaluates event for the session and persists the updated state.
// An invalid hook configuration is returned as an error and nothing is evaluated.
func (r *Runner) Dispatch(ctx context.Context, sessionID string, event hooks.LifecycleEvent) (*hooks.Decision, error) {
	registry, err := r.loader.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load hooks: %w", err)
	}

	var decision *hooks.Decision
	_, err = r.store.Update(ctx, sessionID, func(st *state.SessionState) error {
		dispatcher := r.restore(registry, st)
		decision = dispatcher.Dispatch(event)
		r.capture(dispatcher, st)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update session %s: %w", sessionID, err)
	}

	r.logger.Debug().
		Str("session", sessionID).
		Str("event", string(event.Kind)).
		Str("outcome", string(decision.Outcome)).
		Msg("event dispatched")
	return decision, nil
}

func (r *Runner) restore(registry *hooks.Registry, st *state.SessionState) *hooks.Dispatcher {
	tracker := hooks.NewBudgetTracker(r.limits, st.Budget)
	return hooks.NewDispatcher(registry, tracker,
		hooks.WithLogger(r.logger),
		hooks.WithStoppedDecision(st.Stopped),
	)
}

func (r *Runner) capture(dispatcher *hooks.Dispatcher, st *state.SessionState) {
	st.Limits = r.limits
	st.Budget = dispatcher.State()
	st.Stopped = dispatcher.StoppedDecision()
}

// Reset discards a session's state. Resetting an unknown session is not an error.
func (r *Runner) Reset(ctx context.Context, sessionID string) error {
	err := r.store.Delete(ctx, sessionID)
	if err != nil && !errors.Is(err, state.ErrSessionNotFound) {
		return err
	}
	return nil
}

// Show returns a session's persisted state.
func (r *Runner) Show(ctx context.Context, sessionID string) (*state.SessionState, error) {
	return r.store.Load(ctx, sessionID)
}

// SetRegistry replaces the registry of every running stream, for hot reload.
func (r *Runner) SetRegistry(registry *hooks.Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dispatcher := range r.active {
		dispatcher.SetRegistry(registry)
	}
}

func (r *Runner) register(dispatcher *hooks.Dispatcher) func() {
	r.mu.Lock()
	r.active = append(r.active, dispatcher)
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, d := range r.active {
			if d == dispatcher {
				r.active = append(r.active[:i], r.active[i+1:]...)
				break
			}
		}
	}
}

// Stream evaluates a sequence of JSON events from in against one in-process
// session and writes one decision per line to out. The session's state is
// saved after every event. An event without a kind produces an error line
// and does not end the stream. Stream returns when in is exhausted or ctx
// is done, even while a read is pending.
//
// The stream is the session's only writer while it runs: state saved by
// other processes for the same session is overwritten by the next event.
func (r *Runner) Stream(ctx context.Context, sessionID string, in io.Reader, out io.Writer) error {
	registry, err := r.loader.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load hooks: %w", err)
	}

	var dispatcher *hooks.Dispatcher
	_, err = r.store.Update(ctx, sessionID, func(st *state.SessionState) error {
		dispatcher = r.restore(registry, st)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to open session %s: %w", sessionID, err)
	}
	defer r.register(dispatcher)()

	done := make(chan struct{})
	defer close(done)
	events := decodeEvents(in, done)

	encoder := json.NewEncoder(out)
	for {
		var next decoded
		select {
		case <-ctx.Done():
			return ctx.Err()
		case next = <-events:
		}

		if next.err != nil {
			if errors.Is(next.err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to decode event: %w", next.err)
		}

		event := next.event
		if event.Kind == "" {
			if err := encoder.Encode(streamError{Error: "kind is required"}); err != nil {
				return err
			}
			continue
		}

		decision := dispatcher.Dispatch(event)
		if _, err := r.store.Update(ctx, sessionID, func(st *state.SessionState) error {
			r.capture(dispatcher, st)
			return nil
		}); err != nil {
			return fmt.Errorf("failed to save session %s: %w", sessionID, err)
		}

		if err := encoder.Encode(decision); err != nil {
			return fmt.Errorf("failed to write decision: %w", err)
		}
	}
}

type decoded struct {
	event hooks.LifecycleEvent
	err   error
}

// decodeEvents reads events from in until a decode error, which is sent last.
// A read blocked on in outlives done; its result is dropped.
func decodeEvents(in io.Reader, done <-chan struct{}) <-chan decoded {
	events := make(chan decoded)
	go func() {
		decoder := json.NewDecoder(in)
		for {
			var next decoded
			next.err = decoder.Decode(&next.event)
			select {
			case events <- next:
			case <-done:
				return
			}
			if next.err != nil {
				return
			}
		}
	}()
	return events
}

type streamError struct {
	Error string `json:"error"`
}
