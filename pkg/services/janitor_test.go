package services_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windscape/windscape/pkg/catalog"
	"github.com/windscape/windscape/pkg/models"
	"github.com/windscape/windscape/pkg/persistence"
	"github.com/windscape/windscape/pkg/services"
)

func storedSession(t *testing.T, store persistence.Persistence, sessionID string, lastActive time.Time) {
	t.Helper()

	require.NoError(t, store.SaveSession(t.Context(), &models.WorkflowState{
		Progress: models.UserProgress{
			ComplexityLevel: models.ComplexityBasic,
			LastActiveAt:    lastActive,
		},
		Session: models.SessionData{SessionID: sessionID},
	}))
}

func TestJanitorSweep(t *testing.T) {
	service, store := newService(t, catalog.Default())
	now := time.Now().UTC()

	storedSession(t, store, "fresh", now.Add(-time.Minute))
	storedSession(t, store, "stale", now.Add(-2*time.Hour))

	janitor := services.NewJanitor(service, time.Hour, "", slog.Default())
	require.NoError(t, janitor.Sweep(t.Context()))

	_, err := store.SessionByID(t.Context(), "fresh")
	assert.NoError(t, err)

	_, err = store.SessionByID(t.Context(), "stale")
	assert.True(t, persistence.IsSessionNotFound(err))
}

func TestJanitorSweep_EvictsCachedMachine(t *testing.T) {
	service, store := newService(t, catalog.Default())

	created, err := service.CreateSession(t.Context(), services.CreateSessionRequest{ProjectID: "p1"})
	require.NoError(t, err)

	sessionID := created.Session.SessionID

	// Backdate the persisted activity so the sweep treats the session as
	// idle while the service still holds its machine.
	stale := created.Clone()
	stale.Progress.LastActiveAt = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, store.SaveSession(t.Context(), stale))

	janitor := services.NewJanitor(service, time.Hour, "", slog.Default())
	require.NoError(t, janitor.Sweep(t.Context()))

	// The expired session is gone for the service too, not just the store.
	_, err = service.Session(t.Context(), sessionID)
	assert.True(t, persistence.IsSessionNotFound(err))

	// Touching it after the sweep must not bring it back.
	_, err = service.StartStep(t.Context(), sessionID, "terrain_analysis")
	require.Error(t, err)
	assert.True(t, persistence.IsSessionNotFound(err))

	_, err = store.SessionByID(t.Context(), sessionID)
	assert.True(t, persistence.IsSessionNotFound(err))
}

func TestJanitorSweep_EmptyStore(t *testing.T) {
	service, _ := newService(t, catalog.Default())
	janitor := services.NewJanitor(service, time.Hour, "", slog.Default())

	assert.NoError(t, janitor.Sweep(t.Context()))
}

func TestJanitorStartStop(t *testing.T) {
	service, _ := newService(t, catalog.Default())
	janitor := services.NewJanitor(service, time.Hour, "@every 1h", slog.Default())

	require.NoError(t, janitor.Start(t.Context()))
	janitor.Stop()
}

func TestJanitorStart_BadSchedule(t *testing.T) {
	service, _ := newService(t, catalog.Default())
	janitor := services.NewJanitor(service, time.Hour, "not a schedule", slog.Default())

	assert.Error(t, janitor.Start(t.Context()))
}
