package main

import (
	"context"
	"log/slog"

	"github.com/windscape/windscape/pkg/eventbus"
	"github.com/windscape/windscape/pkg/events"
)

// Exporter subscribes to session events and emits one structured log line
// per event, ready for ingestion by the analytics pipeline.
type Exporter struct {
	logger   *slog.Logger
	eventBus eventbus.EventBus
}

func NewExporter(logger *slog.Logger, eventBus eventbus.EventBus) *Exporter {
	return &Exporter{
		logger:   logger,
		eventBus: eventBus,
	}
}

// Run registers handlers for every session event type and starts consuming.
func (e *Exporter) Run(ctx context.Context) error {
	handlers := map[events.EventType]eventbus.EventHandler{
		events.StepStartedEvent:               e.handleStepStarted,
		events.StepCompletedEvent:             e.handleStepCompleted,
		events.WorkflowAdvancedEvent:          e.handleWorkflowAdvanced,
		events.WorkflowCompletedEvent:         e.handleWorkflowCompleted,
		events.FeatureUnlockedEvent:           e.handleFeatureUnlocked,
		events.ComplexityUpgradeOfferedEvent:  e.handleUpgradeOffered,
		events.ComplexityUpgradeAcceptedEvent: e.handleUpgradeAccepted,
		events.AchievementUnlockedEvent:       e.handleAchievementUnlocked,
	}

	for eventType, handler := range handlers {
		if err := e.eventBus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return e.eventBus.Subscribe(ctx)
}

func (e *Exporter) handleStepStarted(ctx context.Context, event any) error {
	started, ok := event.(*events.StepStarted)
	if !ok {
		return nil
	}

	e.logger.InfoContext(ctx, "step_started",
		"session_id", started.SessionID,
		"step_id", started.StepID,
	)

	return nil
}

func (e *Exporter) handleStepCompleted(ctx context.Context, event any) error {
	completed, ok := event.(*events.StepCompleted)
	if !ok {
		return nil
	}

	e.logger.InfoContext(ctx, "step_completed",
		"session_id", completed.SessionID,
		"step_id", completed.StepID,
		"success", completed.Success,
		"new_completion", completed.NewCompletion,
		"duration_ms", completed.Duration.Milliseconds(),
	)

	return nil
}

func (e *Exporter) handleWorkflowAdvanced(ctx context.Context, event any) error {
	advanced, ok := event.(*events.WorkflowAdvanced)
	if !ok {
		return nil
	}

	e.logger.InfoContext(ctx, "workflow_advanced",
		"session_id", advanced.SessionID,
		"from_step_id", advanced.FromStepID,
		"to_step_id", advanced.ToStepID,
	)

	return nil
}

func (e *Exporter) handleWorkflowCompleted(ctx context.Context, event any) error {
	completed, ok := event.(*events.WorkflowCompleted)
	if !ok {
		return nil
	}

	e.logger.InfoContext(ctx, "workflow_completed",
		"session_id", completed.SessionID,
		"completed_steps", completed.CompletedSteps,
		"time_spent", completed.TimeSpent,
	)

	return nil
}

func (e *Exporter) handleFeatureUnlocked(ctx context.Context, event any) error {
	unlocked, ok := event.(*events.FeatureUnlocked)
	if !ok {
		return nil
	}

	e.logger.InfoContext(ctx, "feature_unlocked",
		"session_id", unlocked.SessionID,
		"feature_id", unlocked.FeatureID,
		"level", unlocked.Level,
	)

	return nil
}

func (e *Exporter) handleUpgradeOffered(ctx context.Context, event any) error {
	offered, ok := event.(*events.ComplexityUpgradeOffered)
	if !ok {
		return nil
	}

	e.logger.InfoContext(ctx, "complexity_upgrade_offered",
		"session_id", offered.SessionID,
		"from", offered.From,
		"to", offered.To,
	)

	return nil
}

func (e *Exporter) handleUpgradeAccepted(ctx context.Context, event any) error {
	accepted, ok := event.(*events.ComplexityUpgradeAccepted)
	if !ok {
		return nil
	}

	e.logger.InfoContext(ctx, "complexity_upgrade_accepted",
		"session_id", accepted.SessionID,
		"from", accepted.From,
		"to", accepted.To,
		"features", accepted.Features,
	)

	return nil
}

func (e *Exporter) handleAchievementUnlocked(ctx context.Context, event any) error {
	unlocked, ok := event.(*events.AchievementUnlocked)
	if !ok {
		return nil
	}

	e.logger.InfoContext(ctx, "achievement_unlocked",
		"session_id", unlocked.SessionID,
		"achievement_id", unlocked.AchievementID,
	)

	return nil
}
