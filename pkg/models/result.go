package models

import "time"

// Artifact is an opaque reference to an output produced by a step, e.g. a
// generated report or an exported layout. The core only carries it through.
type Artifact struct {
	Name string `json:"name" validate:"required"`
	Kind string `json:"kind,omitempty"`
	URI  string `json:"uri,omitempty"`
}

// StepResult is the outcome delivered by the collaborator that executed a
// step. The success flag is carried through for display only; completion is
// driven by the explicit CompleteStep call, never by this flag.
type StepResult struct {
	StepID              string         `json:"step_id"`
	Success             bool           `json:"success"`
	Data                map[string]any `json:"data,omitempty"`
	Artifacts           []Artifact     `json:"artifacts,omitempty"`
	NextRecommendedStep string         `json:"next_recommended_step,omitempty"`
	RecordedAt          time.Time      `json:"recorded_at"`
}
