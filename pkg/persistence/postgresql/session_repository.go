package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/windscape/windscape/pkg/models"
	"github.com/windscape/windscape/pkg/persistence"
)

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS sessions (
				id         TEXT PRIMARY KEY,
				state      JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions (updated_at);
		`,
	}
}

// SessionRepository handles session snapshot rows.
type SessionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sql.DB, logger *slog.Logger) *SessionRepository {
	return &SessionRepository{db: db, logger: logger}
}

// GetAll loads every stored session ordered by last update, newest first.
func (r *SessionRepository) GetAll(ctx context.Context) ([]*models.WorkflowState, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT state FROM sessions ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.WorkflowState

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}

		var state models.WorkflowState
		if err := json.Unmarshal(payload, &state); err != nil {
			return nil, fmt.Errorf("failed to decode session state: %w", err)
		}

		sessions = append(sessions, &state)
	}

	return sessions, rows.Err()
}

// GetByID loads one session snapshot.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowState, error) {
	var payload []byte

	err := r.db.QueryRowContext(ctx, "SELECT state FROM sessions WHERE id = $1", id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrSessionNotFound, id)
		}

		return nil, persistence.NewSessionError("SessionByID", id, err)
	}

	var state models.WorkflowState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, persistence.NewSessionError("SessionByID", id, err)
	}

	return &state, nil
}

// Save upserts the session snapshot.
func (r *SessionRepository) Save(ctx context.Context, state *models.WorkflowState) error {
	if state == nil || state.Session.SessionID == "" {
		return persistence.ErrSessionIDRequired
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return persistence.NewSessionError("SaveSession", state.Session.SessionID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET state = $2, updated_at = $4
	`, state.Session.SessionID, payload, state.CreatedAt, state.UpdatedAt)
	if err != nil {
		return persistence.NewSessionError("SaveSession", state.Session.SessionID, err)
	}

	return nil
}

// Delete removes a session row.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id)
	if err != nil {
		return persistence.NewSessionError("DeleteSession", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewSessionError("DeleteSession", id, err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", persistence.ErrSessionNotFound, id)
	}

	return nil
}
