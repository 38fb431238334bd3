// Package state persists per-session hook engine state between invocations.
package state

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/michael-freling/agent-hooks/internal/hooks"
)

const stateVersion = "1.0"

var (
	ErrInvalidSessionID = errors.New("invalid session id")
	ErrSessionNotFound  = errors.New("session not found")
	ErrStateCorrupted   = errors.New("session state file corrupted")
	ErrSessionLocked    = errors.New("session is locked by another process")
)

// SessionState is the persisted state of one agent session.
type SessionState struct {
	Version   string            `json:"version"`
	SessionID string            `json:"session_id"`
	Limits    hooks.Limits      `json:"limits"`
	Budget    hooks.BudgetState `json:"budget"`
	// Stopped is the decision that stopped the session, if any.
	Stopped   *hooks.Decision `json:"stopped,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

var validSessionIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// ValidateSessionID rejects ids that cannot be used as a file name.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidSessionID)
	}

	if len(id) > 128 {
		return fmt.Errorf("%w: id too long (max 128 characters)", ErrInvalidSessionID)
	}

	if strings.Contains(id, "..") || strings.Contains(id, "/") || strings.Contains(id, "\\") {
		return fmt.Errorf("%w: id cannot contain path traversal sequences", ErrInvalidSessionID)
	}

	if !validSessionIDRegex.MatchString(id) {
		return fmt.Errorf("%w: must contain only letters, digits, '.', '_' and '-'", ErrInvalidSessionID)
	}

	return nil
}
