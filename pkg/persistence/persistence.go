// Package persistence provides the storage abstraction for workflow session state.
package persistence

import (
	"context"

	"github.com/windscape/windscape/pkg/models"
)

// Persistence stores WorkflowState snapshots keyed by session ID. The state
// machine remains the single writer; implementations only store and return
// whole snapshots.
type Persistence interface {
	Sessions(ctx context.Context) ([]*models.WorkflowState, error)
	SaveSession(ctx context.Context, state *models.WorkflowState) error
	SessionByID(ctx context.Context, id string) (*models.WorkflowState, error)
	DeleteSession(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
