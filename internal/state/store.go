package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
)

const (
	stateFileExt  = ".json"
	lockFileExt   = ".lock"
	lockRetryWait = 10 * time.Millisecond

	// DefaultLockTimeout bounds how long a hook process waits for a session.
	DefaultLockTimeout = 5 * time.Second
)

// TimeProvider provides the current time (allows mocking in tests)
type TimeProvider func() time.Time

//go:generate mockgen -source=store.go -destination=mock_store.go -package=state

// Store persists session state.
type Store interface {
	// Load returns the state of a session, or ErrSessionNotFound.
	Load(ctx context.Context, sessionID string) (*SessionState, error)

	// Update runs fn on the session's state while holding its lock and saves
	// the result. A missing session starts from an empty state.
	Update(ctx context.Context, sessionID string, fn func(*SessionState) error) (*SessionState, error)

	// Delete removes a session's state.
	Delete(ctx context.Context, sessionID string) error
}

// FileStore keeps one JSON file per session under a directory. Concurrent
// hook processes of the same session are serialized by a file lock.
type FileStore struct {
	baseDir      string
	timeProvider TimeProvider
	lockTimeout  time.Duration
}

// NewFileStore creates a file-based store rooted at baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{
		baseDir:      baseDir,
		timeProvider: time.Now,
		lockTimeout:  DefaultLockTimeout,
	}
}

// SetTimeProvider sets a custom time provider for testing
func (s *FileStore) SetTimeProvider(tp TimeProvider) {
	s.timeProvider = tp
}

// SetLockTimeout sets how long Update and Delete wait for a session's lock.
// Zero waits until the context is done.
func (s *FileStore) SetLockTimeout(timeout time.Duration) {
	s.lockTimeout = timeout
}

func (s *FileStore) statePath(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID+stateFileExt)
}

func (s *FileStore) lockPath(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID+lockFileExt)
}

// lock waits for the session's file lock until ctx is done or the lock
// timeout passes.
func (s *FileStore) lock(ctx context.Context, sessionID string) (*flock.Flock, error) {
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	fileLock := flock.New(s.lockPath(sessionID))
	locked, err := fileLock.TryLockContext(ctx, lockRetryWait)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrSessionLocked, sessionID)
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrSessionLocked, sessionID)
	}
	return fileLock, nil
}

// Load reads a session's state from disk.
func (s *FileStore) Load(ctx context.Context, sessionID string) (*SessionState, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	return s.read(sessionID)
}

func (s *FileStore) read(sessionID string) (*SessionState, error) {
	data, err := os.ReadFile(s.statePath(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var st SessionState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupted, err)
	}
	return &st, nil
}

// Update loads, modifies and saves a session's state under its lock.
func (s *FileStore) Update(ctx context.Context, sessionID string, fn func(*SessionState) error) (*SessionState, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	fileLock, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer fileLock.Close()

	st, err := s.read(sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		now := s.timeProvider()
		st = &SessionState{
			Version:   stateVersion,
			SessionID: sessionID,
			CreatedAt: now,
		}
	} else if err != nil {
		return nil, err
	}

	if err := fn(st); err != nil {
		return nil, err
	}

	st.UpdatedAt = s.timeProvider()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := s.atomicWrite(s.statePath(sessionID), data); err != nil {
		return nil, fmt.Errorf("failed to write state file: %w", err)
	}

	return st, nil
}

// Delete removes a session's state file.
func (s *FileStore) Delete(ctx context.Context, sessionID string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}

	fileLock, err := s.lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer fileLock.Close()

	if err := os.Remove(s.statePath(sessionID)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// atomicWrite writes data to a file atomically using a temp file and rename
func (s *FileStore) atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	tmpFile.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
