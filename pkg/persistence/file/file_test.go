package file_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windscape/windscape/pkg/models"
	"github.com/windscape/windscape/pkg/persistence"
	"github.com/windscape/windscape/pkg/persistence/file"
)

func sampleState(sessionID string) *models.WorkflowState {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	return &models.WorkflowState{
		CompletedSteps: []string{"terrain_analysis"},
		AvailableSteps: []string{"wind_resource"},
		StepResults: map[string]*models.StepResult{
			"terrain_analysis": {StepID: "terrain_analysis", Success: true, RecordedAt: now},
		},
		Progress: models.UserProgress{
			TotalSteps:      7,
			CompletedSteps:  1,
			ComplexityLevel: models.ComplexityBasic,
			TimeSpent:       10 * time.Minute,
			LastActiveAt:    now,
		},
		Session: models.SessionData{
			SessionID: sessionID,
			ProjectID: "coastal-site",
			SharedData: map[string]map[string]any{
				"terrain_analysis": {"mean_elevation": 132.0},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSaveAndLoadSession(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	original := sampleState("sess-1")
	require.NoError(t, store.SaveSession(t.Context(), original))

	loaded, err := store.SessionByID(t.Context(), "sess-1")
	require.NoError(t, err)

	assert.Equal(t, original.CompletedSteps, loaded.CompletedSteps)
	assert.Equal(t, original.Progress.TimeSpent, loaded.Progress.TimeSpent)
	assert.Equal(t, "coastal-site", loaded.Session.ProjectID)
	assert.Equal(t, 132.0, loaded.Session.SharedData["terrain_analysis"]["mean_elevation"])
}

func TestSaveSession_Overwrites(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	state := sampleState("sess-1")
	require.NoError(t, store.SaveSession(t.Context(), state))

	state.CompletedSteps = append(state.CompletedSteps, "wind_resource")
	require.NoError(t, store.SaveSession(t.Context(), state))

	loaded, err := store.SessionByID(t.Context(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"terrain_analysis", "wind_resource"}, loaded.CompletedSteps)
}

func TestSaveSession_WithoutSessionID(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	err := store.SaveSession(t.Context(), &models.WorkflowState{})
	assert.ErrorIs(t, err, persistence.ErrSessionIDRequired)

	err = store.SaveSession(t.Context(), nil)
	assert.ErrorIs(t, err, persistence.ErrSessionIDRequired)
}

func TestSessionByID_NotFound(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	_, err := store.SessionByID(t.Context(), "missing")

	assert.True(t, persistence.IsSessionNotFound(err))
}

func TestSessionByID_CorruptFile(t *testing.T) {
	root := t.TempDir()
	store := file.NewPersistence(root)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "sessions"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sessions", "bad.json"), []byte("{not json"), 0o644))

	_, err := store.SessionByID(t.Context(), "bad")

	require.Error(t, err)
	assert.False(t, persistence.IsSessionNotFound(err))
}

func TestSessions(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	require.NoError(t, store.SaveSession(t.Context(), sampleState("sess-1")))
	require.NoError(t, store.SaveSession(t.Context(), sampleState("sess-2")))

	sessions, err := store.Sessions(t.Context())
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestSessions_EmptyStore(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	sessions, err := store.Sessions(t.Context())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestDeleteSession(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	require.NoError(t, store.SaveSession(t.Context(), sampleState("sess-1")))
	require.NoError(t, store.DeleteSession(t.Context(), "sess-1"))

	_, err := store.SessionByID(t.Context(), "sess-1")
	assert.True(t, persistence.IsSessionNotFound(err))

	err = store.DeleteSession(t.Context(), "sess-1")
	assert.True(t, persistence.IsSessionNotFound(err))
}

func TestFileURLPrefix(t *testing.T) {
	root := t.TempDir()
	store := file.NewPersistence("file://" + root)

	require.NoError(t, store.SaveSession(t.Context(), sampleState("sess-1")))

	_, err := os.Stat(filepath.Join(root, "sessions", "sess-1.json"))
	assert.NoError(t, err)
}

func TestHealthCheck(t *testing.T) {
	root := t.TempDir()

	assert.NoError(t, file.NewPersistence(root).HealthCheck(t.Context()))
	assert.Error(t, file.NewPersistence(filepath.Join(root, "missing")).HealthCheck(t.Context()))
}
