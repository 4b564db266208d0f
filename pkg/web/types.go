// Package web provides HTTP handlers and REST API endpoints for workflow sessions.
package web

import (
	"github.com/windscape/windscape/pkg/models"
)

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// CreateSessionRequest represents the request body for creating a session.
type CreateSessionRequest struct {
	ProjectID   string              `json:"project_id"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty"`
}

// CompleteStepRequest represents the request body for completing a step.
// The success flag is carried through to the stored result; it does not
// decide whether the step counts as completed.
type CompleteStepRequest struct {
	Success             bool              `json:"success"`
	Data                map[string]any    `json:"data,omitempty"`
	Artifacts           []models.Artifact `json:"artifacts,omitempty"`
	NextRecommendedStep string            `json:"next_recommended_step,omitempty"`
}

// AcceptUpgradeRequest represents the request body for committing a
// complexity upgrade offer.
type AcceptUpgradeRequest struct {
	Target models.ComplexityLevel `json:"target" validate:"required,oneof=basic intermediate advanced expert"`
}

// StepResponse is the catalog view of one step.
type StepResponse struct {
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	Category         models.StepCategory    `json:"category"`
	Prerequisites    []string               `json:"prerequisites,omitempty"`
	Complexity       models.ComplexityLevel `json:"complexity"`
	Optional         bool                   `json:"optional"`
	NextSteps        []string               `json:"next_steps,omitempty"`
	EstimatedMinutes int                    `json:"estimated_minutes"`
	Description      string                 `json:"description,omitempty"`
}

// TransformStepResponse maps a catalog step definition to its API view.
func TransformStepResponse(step *models.StepDefinition) StepResponse {
	return StepResponse{
		ID:               step.ID,
		Title:            step.Title,
		Category:         step.Category,
		Prerequisites:    step.Prerequisites,
		Complexity:       step.Complexity,
		Optional:         step.Optional,
		NextSteps:        step.NextSteps,
		EstimatedMinutes: step.EstimatedMinutes,
		Description:      step.Description,
	}
}

// EventResponse is the API view of one sink record.
type EventResponse struct {
	Type  string `json:"type"`
	Event any    `json:"event"`
}
