// Package events defines event types and structures for session lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/windscape/windscape/pkg/models"
)

type EventType string

// Kafka topics.
const Topic = "windscape.sessions" // Topic for session workflow events

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Step lifecycle events.
	StepStartedEvent   EventType = "session.step.started"
	StepCompletedEvent EventType = "session.step.completed"

	// Workflow progression events.
	WorkflowAdvancedEvent  EventType = "session.workflow.advanced"
	WorkflowCompletedEvent EventType = "session.workflow.completed"

	// Progressive disclosure events.
	FeatureUnlockedEvent           EventType = "session.feature.unlocked"
	ComplexityUpgradeOfferedEvent  EventType = "session.complexity.offered"
	ComplexityUpgradeAcceptedEvent EventType = "session.complexity.accepted"
	AchievementUnlockedEvent       EventType = "session.achievement.unlocked"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, sessionID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Metadata:  make(map[string]any),
	}
}

type StepStarted struct {
	BaseEvent

	StepID string `json:"step_id"`
	Title  string `json:"title,omitempty"`
}

func (e StepStarted) GetType() EventType {
	return StepStartedEvent
}

type StepCompleted struct {
	BaseEvent

	StepID        string        `json:"step_id"`
	Success       bool          `json:"success"`
	NewCompletion bool          `json:"new_completion"`
	Duration      time.Duration `json:"duration"`
}

func (e StepCompleted) GetType() EventType {
	return StepCompletedEvent
}

type WorkflowAdvanced struct {
	BaseEvent

	FromStepID string `json:"from_step_id,omitempty"`
	ToStepID   string `json:"to_step_id"`
}

func (e WorkflowAdvanced) GetType() EventType {
	return WorkflowAdvancedEvent
}

// WorkflowCompleted fires exactly once per session, when the last
// non-optional step enters the completed set.
type WorkflowCompleted struct {
	BaseEvent

	CompletedSteps int           `json:"completed_steps"`
	TimeSpent      time.Duration `json:"time_spent"`
}

func (e WorkflowCompleted) GetType() EventType {
	return WorkflowCompletedEvent
}

type FeatureUnlocked struct {
	BaseEvent

	FeatureID string                 `json:"feature_id"`
	Level     models.ComplexityLevel `json:"level"`
}

func (e FeatureUnlocked) GetType() EventType {
	return FeatureUnlockedEvent
}

type ComplexityUpgradeOffered struct {
	BaseEvent

	From models.ComplexityLevel `json:"from"`
	To   models.ComplexityLevel `json:"to"`
}

func (e ComplexityUpgradeOffered) GetType() EventType {
	return ComplexityUpgradeOfferedEvent
}

type ComplexityUpgradeAccepted struct {
	BaseEvent

	From     models.ComplexityLevel `json:"from"`
	To       models.ComplexityLevel `json:"to"`
	Features []string               `json:"features,omitempty"`
}

func (e ComplexityUpgradeAccepted) GetType() EventType {
	return ComplexityUpgradeAcceptedEvent
}

type AchievementUnlocked struct {
	BaseEvent

	AchievementID string `json:"achievement_id"`
	Title         string `json:"title"`
}

func (e AchievementUnlocked) GetType() EventType {
	return AchievementUnlockedEvent
}
