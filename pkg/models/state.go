package models

import (
	"maps"
	"slices"
	"time"
)

// Coordinates locates the analyzed site.
type Coordinates struct {
	Latitude  float64 `json:"latitude"  validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
}

// SessionData carries session identity and the per-step shared data that a
// completed step's result contributes for later steps to read.
type SessionData struct {
	SessionID   string                    `json:"session_id"`
	ProjectID   string                    `json:"project_id,omitempty"`
	Coordinates *Coordinates              `json:"coordinates,omitempty"`
	SharedData  map[string]map[string]any `json:"shared_data,omitempty"`
}

// WorkflowState is the mutable per-session workflow state. It is owned by a
// single state machine instance and must only be mutated through its
// operations; everything handed out to collaborators is a deep copy.
type WorkflowState struct {
	CurrentStepID string `json:"current_step_id,omitempty"`

	// CompletedSteps keeps insertion order for audit; membership drives
	// the logic and duplicates are never inserted.
	CompletedSteps []string `json:"completed_steps"`

	// AvailableSteps is derived, recomputed after every mutation.
	AvailableSteps []string `json:"available_steps"`

	// StepStartTimes records when each step was last started, keyed by
	// step ID, so out-of-order completions can account elapsed time.
	StepStartTimes map[string]time.Time `json:"step_start_times,omitempty"`

	StepResults map[string]*StepResult `json:"step_results,omitempty"`

	Progress UserProgress `json:"progress"`
	Session  SessionData  `json:"session"`

	// WorkflowCompleted latches once all non-optional steps are done so
	// the completion signal fires exactly once.
	WorkflowCompleted bool `json:"workflow_completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasCompleted reports whether the step ID is in the completed set.
func (s *WorkflowState) HasCompleted(stepID string) bool {
	return slices.Contains(s.CompletedSteps, stepID)
}

// IsAvailable reports whether the step ID is currently available.
func (s *WorkflowState) IsAvailable(stepID string) bool {
	return slices.Contains(s.AvailableSteps, stepID)
}

// Clone returns a deep copy safe to hand to read-only collaborators.
func (s *WorkflowState) Clone() *WorkflowState {
	clone := *s

	clone.CompletedSteps = slices.Clone(s.CompletedSteps)
	clone.AvailableSteps = slices.Clone(s.AvailableSteps)
	clone.StepStartTimes = maps.Clone(s.StepStartTimes)

	if s.StepResults != nil {
		clone.StepResults = make(map[string]*StepResult, len(s.StepResults))

		for id, result := range s.StepResults {
			resultCopy := *result
			resultCopy.Data = maps.Clone(result.Data)
			resultCopy.Artifacts = slices.Clone(result.Artifacts)
			clone.StepResults[id] = &resultCopy
		}
	}

	clone.Progress.UnlockedFeatures = slices.Clone(s.Progress.UnlockedFeatures)
	clone.Progress.Achievements = slices.Clone(s.Progress.Achievements)

	if s.Session.Coordinates != nil {
		coords := *s.Session.Coordinates
		clone.Session.Coordinates = &coords
	}

	if s.Session.SharedData != nil {
		clone.Session.SharedData = make(map[string]map[string]any, len(s.Session.SharedData))

		for stepID, data := range s.Session.SharedData {
			clone.Session.SharedData[stepID] = maps.Clone(data)
		}
	}

	return &clone
}
