// Package services provides the session service layer and standardized
// error types for it.
package services

import (
	"errors"
	"fmt"

	"github.com/windscape/windscape/pkg/persistence"
	"github.com/windscape/windscape/pkg/workflow"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest        = errors.New("invalid request")
	ErrUnknownStep           = workflow.ErrUnknownStep
	ErrPrerequisiteNotMet    = workflow.ErrPrerequisiteNotMet
	ErrInvalidTierTransition = workflow.ErrInvalidTierTransition
	ErrNoActiveStep          = workflow.ErrNoActiveStep

	// Not Found (404).
	ErrSessionNotFound = persistence.ErrSessionNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrUnknownStep) ||
		errors.Is(err, ErrPrerequisiteNotMet) ||
		errors.Is(err, ErrInvalidTierTransition) ||
		errors.Is(err, ErrNoActiveStep)
}

// IsNotFoundError checks if an error means the referenced session is absent.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
