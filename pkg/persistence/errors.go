package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrSessionNotFound indicates no session exists for the given ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionIDRequired indicates a session snapshot without an ID.
	ErrSessionIDRequired = errors.New("session id is required")
)

// SessionError wraps session storage errors with additional context.
type SessionError struct {
	Op        string // Operation being performed (e.g., "SessionByID", "SaveSession")
	SessionID string
	Err       error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s failed for session %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a session error with operation context.
func NewSessionError(op, sessionID string, err error) *SessionError {
	return &SessionError{Op: op, SessionID: sessionID, Err: err}
}

// IsSessionNotFound checks whether the error means the session is absent.
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
