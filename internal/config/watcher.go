package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/michael-freling/agent-hooks/internal/hooks"
)

// ErrWatcherClosed is returned when starting a watcher that was closed.
var ErrWatcherClosed = errors.New("watcher is closed")

const defaultDebounce = 100 * time.Millisecond

// Watcher reloads hook files when they change and hands each valid registry
// to a callback. A reload that fails keeps the previous registry in place.
type Watcher struct {
	loader   *FileRegistryLoader
	onReload func(*hooks.Registry)
	logger   zerolog.Logger
	debounce time.Duration

	fsw   *fsnotify.Watcher
	files map[string]bool

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger used for reload results.
func WithWatcherLogger(logger zerolog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher watches the hook files of loader. Parent directories are watched
// instead of the files so editors that replace a file by rename are seen.
func NewWatcher(loader *FileRegistryLoader, onReload func(*hooks.Registry), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		loader:   loader,
		onReload: onReload,
		logger:   zerolog.Nop(),
		debounce: defaultDebounce,
		files:    make(map[string]bool),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsw = fsw

	dirs := make(map[string]bool)
	for _, path := range loader.Paths() {
		absPath, err := filepath.Abs(path)
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		w.files[absPath] = true
		dirs[filepath.Dir(absPath)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return w, nil
}

// Start processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.wg.Add(1)
	w.mu.Unlock()

	go w.processLoop(ctx)
	return nil
}

// Reload loads the hook files now and, when they are valid, passes the new
// registry to the callback.
func (w *Watcher) Reload() error {
	registry, err := w.loader.LoadRegistry()
	if err != nil {
		w.logger.Warn().Err(err).Msg("hook reload failed, keeping previous hooks")
		return err
	}

	w.logger.Info().Int("hooks", registry.Len()).Msg("hooks reloaded")
	if w.onReload != nil {
		w.onReload(registry)
	}
	return nil
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	return w.fsw.Close()
}

func (w *Watcher) processLoop(ctx context.Context) {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.closeCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			_ = w.Reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("file watcher error")
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
		return false
	}
	absPath, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[absPath]
}
