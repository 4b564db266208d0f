// Package workflow implements the session workflow state machine and the
// prerequisite resolver driving step availability.
package workflow

import "errors"

// All errors below are local validation errors: a rejected operation leaves
// the workflow state unchanged and the session continues.
var (
	// ErrUnknownStep is returned when an operation references a step ID
	// absent from the catalog.
	ErrUnknownStep = errors.New("unknown step id")

	// ErrPrerequisiteNotMet is returned on an attempt to start or advance
	// to a step that is not currently available.
	ErrPrerequisiteNotMet = errors.New("step prerequisites not met")

	// ErrInvalidTierTransition is returned on an attempt to skip a
	// complexity tier or enter one out of order.
	ErrInvalidTierTransition = errors.New("invalid complexity tier transition")

	// ErrNoActiveStep is returned when completing a step while no step is
	// in progress and the step has not been completed before.
	ErrNoActiveStep = errors.New("no step in progress")
)
