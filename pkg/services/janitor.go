package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/windscape/windscape/pkg/models"
	"github.com/windscape/windscape/pkg/persistence"
)

const defaultSweepSchedule = "@every 15m"

// SessionStore is the surface the janitor sweeps through. The session
// service implements it; sweeping through the service keeps its cached
// state machines in step with the store, so an expired session cannot be
// served or re-persisted from the cache afterwards.
type SessionStore interface {
	ListSessions(ctx context.Context) ([]*models.WorkflowState, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Janitor periodically removes sessions that have been idle longer than the
// configured limit. Abandoning a session mid-step is a supported exit path,
// so the sweep is the only cleanup there is.
type Janitor struct {
	sessions SessionStore
	maxIdle  time.Duration
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewJanitor creates a janitor sweeping on the given cron schedule. An
// empty schedule uses the 15 minute default.
func NewJanitor(sessions SessionStore, maxIdle time.Duration, schedule string, logger *slog.Logger) *Janitor {
	if schedule == "" {
		schedule = defaultSweepSchedule
	}

	return &Janitor{
		sessions: sessions,
		maxIdle:  maxIdle,
		schedule: schedule,
		logger:   logger.With("module", "session_janitor"),
	}
}

// Start schedules the sweep and begins running it in the background.
func (j *Janitor) Start(ctx context.Context) error {
	j.cron = cron.New()

	_, err := j.cron.AddFunc(j.schedule, func() {
		if err := j.Sweep(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Session sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(ctx, "Session janitor started", "schedule", j.schedule, "max_idle", j.maxIdle)

	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

// Sweep deletes every session idle beyond the limit. Completed workflows
// age out like any other session.
func (j *Janitor) Sweep(ctx context.Context) error {
	sessions, err := j.sessions.ListSessions(ctx)
	if err != nil {
		return err
	}

	cutoff := time.Now().UTC().Add(-j.maxIdle)

	for _, state := range sessions {
		if state.Progress.LastActiveAt.After(cutoff) {
			continue
		}

		sessionID := state.Session.SessionID

		if err := j.sessions.DeleteSession(ctx, sessionID); err != nil {
			if persistence.IsSessionNotFound(err) {
				continue
			}

			return err
		}

		j.logger.InfoContext(ctx, "Expired idle session",
			"session_id", sessionID,
			"last_active_at", state.Progress.LastActiveAt,
		)
	}

	return nil
}
