// Package file provides file-based session persistence, one JSON document
// per session. Suited to local development and tests.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/windscape/windscape/pkg/models"
	"github.com/windscape/windscape/pkg/persistence"
)

const sessionFileMode = 0o644

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root string
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix on the path is accepted and stripped.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.TrimPrefix(root, "file://")}
}

func (p *Persistence) sessionsDir() string {
	return filepath.Join(p.root, "sessions")
}

func (p *Persistence) sessionPath(id string) string {
	return filepath.Join(p.sessionsDir(), id+".json")
}

// Sessions loads every stored session snapshot.
func (p *Persistence) Sessions(ctx context.Context) ([]*models.WorkflowState, error) {
	entries, err := fs.Glob(os.DirFS(p.sessionsDir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list session files: %w", err)
	}

	sessions := make([]*models.WorkflowState, 0, len(entries))

	for _, entry := range entries {
		id := strings.TrimSuffix(entry, ".json")

		state, err := p.SessionByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load session %s: %w", id, err)
		}

		sessions = append(sessions, state)
	}

	return sessions, nil
}

// SaveSession writes the snapshot, replacing any previous one.
func (p *Persistence) SaveSession(_ context.Context, state *models.WorkflowState) error {
	if state == nil || state.Session.SessionID == "" {
		return persistence.ErrSessionIDRequired
	}

	if err := os.MkdirAll(p.sessionsDir(), 0o755); err != nil {
		return persistence.NewSessionError("SaveSession", state.Session.SessionID, err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return persistence.NewSessionError("SaveSession", state.Session.SessionID, err)
	}

	if err := os.WriteFile(p.sessionPath(state.Session.SessionID), data, sessionFileMode); err != nil {
		return persistence.NewSessionError("SaveSession", state.Session.SessionID, err)
	}

	return nil
}

// SessionByID loads one session snapshot.
func (p *Persistence) SessionByID(_ context.Context, id string) (*models.WorkflowState, error) {
	data, err := os.ReadFile(p.sessionPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrSessionNotFound, id)
		}

		return nil, persistence.NewSessionError("SessionByID", id, err)
	}

	var state models.WorkflowState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, persistence.NewSessionError("SessionByID", id, err)
	}

	return &state, nil
}

// DeleteSession removes a stored session. Deleting an absent session
// returns ErrSessionNotFound.
func (p *Persistence) DeleteSession(_ context.Context, id string) error {
	err := os.Remove(p.sessionPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", persistence.ErrSessionNotFound, id)
		}

		return persistence.NewSessionError("DeleteSession", id, err)
	}

	return nil
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence, there
// is nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}
