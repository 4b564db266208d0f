package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/windscape/windscape/pkg/eventbus"
	"github.com/windscape/windscape/pkg/events"
	"github.com/windscape/windscape/pkg/models"
)

// StateMachine owns one session's WorkflowState and is its only writer.
// Operations are serialized: availability recomputation and completed-set
// mutation are always observed atomically together. Callers get deep copies
// via Snapshot and must never mutate them back in.
type StateMachine struct {
	mu        sync.Mutex
	catalog   *models.Catalog
	state     *models.WorkflowState
	publisher eventbus.EventPublisher
	clock     func() time.Time
	logger    *slog.Logger
}

// CompletionStatus reports the outcome of a CompleteStep call.
type CompletionStatus struct {
	// NewCompletion is false when the step was already in the completed
	// set and the call was an idempotent no-op.
	NewCompletion bool `json:"new_completion"`

	// WorkflowCompleted is true only on the single call that moved the
	// last non-optional step into the completed set.
	WorkflowCompleted bool `json:"workflow_completed"`
}

type Option func(*StateMachine)

// WithPublisher wires the event publisher notified on every transition.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(m *StateMachine) {
		m.publisher = publisher
	}
}

// WithClock overrides the wall clock, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(m *StateMachine) {
		m.clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *StateMachine) {
		m.logger = logger
	}
}

// New creates a state machine with a fresh WorkflowState for the session.
// Available steps are seeded to every step with an empty prerequisite list.
func New(catalog *models.Catalog, session models.SessionData, opts ...Option) *StateMachine {
	machine := &StateMachine{
		catalog: catalog,
		clock:   func() time.Time { return time.Now().UTC() },
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(machine)
	}

	if session.SessionID == "" {
		session.SessionID = uuid.New().String()
	}

	if session.SharedData == nil {
		session.SharedData = make(map[string]map[string]any)
	}

	now := machine.clock()

	machine.state = &models.WorkflowState{
		CompletedSteps: []string{},
		AvailableSteps: AvailableSteps(catalog, nil),
		StepStartTimes: make(map[string]time.Time),
		StepResults:    make(map[string]*models.StepResult),
		Progress: models.UserProgress{
			TotalSteps:       catalog.Len(),
			ComplexityLevel:  models.ComplexityBasic,
			UnlockedFeatures: []string{},
			Achievements:     []models.Achievement{},
			LastActiveAt:     now,
		},
		Session:   session,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return machine
}

// Resume rebuilds a state machine around a previously persisted state.
// Derived state is recomputed rather than trusted from the snapshot.
func Resume(catalog *models.Catalog, state *models.WorkflowState, opts ...Option) (*StateMachine, error) {
	if state == nil || state.Session.SessionID == "" {
		return nil, fmt.Errorf("resume: state without session id")
	}

	machine := &StateMachine{
		catalog: catalog,
		clock:   func() time.Time { return time.Now().UTC() },
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(machine)
	}

	restored := state.Clone()
	restored.AvailableSteps = AvailableSteps(catalog, restored.CompletedSteps)
	restored.Progress.TotalSteps = catalog.Len()

	if restored.StepStartTimes == nil {
		restored.StepStartTimes = make(map[string]time.Time)
	}

	if restored.StepResults == nil {
		restored.StepResults = make(map[string]*models.StepResult)
	}

	if restored.Session.SharedData == nil {
		restored.Session.SharedData = make(map[string]map[string]any)
	}

	machine.state = restored

	return machine, nil
}

// SessionID returns the owning session's ID.
func (m *StateMachine) SessionID() string {
	return m.state.Session.SessionID
}

// Snapshot returns a deep copy of the current state for read-only use.
func (m *StateMachine) Snapshot() *models.WorkflowState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.Clone()
}

// StartStep transitions the machine to StepInProgress for the given step.
// The step must exist in the catalog and be currently available; a rejected
// start leaves the state untouched.
func (m *StateMachine) StartStep(ctx context.Context, stepID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.startStepLocked(ctx, stepID)
}

func (m *StateMachine) startStepLocked(ctx context.Context, stepID string) error {
	step, ok := m.catalog.Step(stepID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStep, stepID)
	}

	if m.state.HasCompleted(stepID) {
		return fmt.Errorf("%w: step %s is already completed", ErrPrerequisiteNotMet, stepID)
	}

	if !m.state.IsAvailable(stepID) {
		return fmt.Errorf("%w: step %s requires %v", ErrPrerequisiteNotMet, stepID, m.missingPrerequisites(step))
	}

	now := m.clock()

	m.state.CurrentStepID = stepID
	m.state.StepStartTimes[stepID] = now
	m.state.Progress.LastActiveStep = stepID
	m.state.Progress.LastActiveAt = now
	m.state.UpdatedAt = now

	m.logger.InfoContext(ctx, "Step started",
		"session_id", m.state.Session.SessionID,
		"step_id", stepID,
	)

	m.publish(ctx, events.StepStarted{
		BaseEvent: events.NewBaseEvent(events.StepStartedEvent, m.state.Session.SessionID),
		StepID:    stepID,
		Title:     step.Title,
	})

	return nil
}

// CompleteStep records the result for a step and moves it into the completed
// set. Completing a step other than the current one is permitted, to support
// resuming prior out-of-order work, but some step must be in progress unless
// the call is an idempotent repeat. All effects apply as one transition.
func (m *StateMachine) CompleteStep(ctx context.Context, stepID string, result models.StepResult) (CompletionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.catalog.Step(stepID); !ok {
		return CompletionStatus{}, fmt.Errorf("%w: %s", ErrUnknownStep, stepID)
	}

	now := m.clock()

	if m.state.HasCompleted(stepID) {
		// Idempotent repeat: nothing changes beyond the activity clock.
		m.state.Progress.LastActiveAt = now
		m.state.UpdatedAt = now

		m.publish(ctx, events.StepCompleted{
			BaseEvent:     events.NewBaseEvent(events.StepCompletedEvent, m.state.Session.SessionID),
			StepID:        stepID,
			Success:       result.Success,
			NewCompletion: false,
		})

		return CompletionStatus{}, nil
	}

	if m.state.CurrentStepID == "" {
		return CompletionStatus{}, fmt.Errorf("%w: cannot complete %s", ErrNoActiveStep, stepID)
	}

	var elapsed time.Duration
	if startedAt, started := m.state.StepStartTimes[stepID]; started {
		if d := now.Sub(startedAt); d > 0 {
			elapsed = d
		}
	}

	m.state.CompletedSteps = append(m.state.CompletedSteps, stepID)
	m.state.AvailableSteps = AvailableSteps(m.catalog, m.state.CompletedSteps)

	stored := result
	stored.StepID = stepID
	stored.RecordedAt = now
	m.state.StepResults[stepID] = &stored

	if len(result.Data) > 0 {
		m.state.Session.SharedData[stepID] = mergeData(m.state.Session.SharedData[stepID], result.Data)
	}

	m.state.Progress.CompletedSteps++
	m.state.Progress.TimeSpent += elapsed
	m.state.Progress.LastActiveStep = stepID
	m.state.Progress.LastActiveAt = now
	m.state.UpdatedAt = now

	if m.state.CurrentStepID == stepID {
		m.state.CurrentStepID = ""
	}

	status := CompletionStatus{NewCompletion: true}

	if !m.state.WorkflowCompleted && m.allRequiredCompleted() {
		m.state.WorkflowCompleted = true
		status.WorkflowCompleted = true
	}

	m.logger.InfoContext(ctx, "Step completed",
		"session_id", m.state.Session.SessionID,
		"step_id", stepID,
		"success", result.Success,
		"elapsed", elapsed,
		"workflow_completed", status.WorkflowCompleted,
	)

	m.publish(ctx, events.StepCompleted{
		BaseEvent:     events.NewBaseEvent(events.StepCompletedEvent, m.state.Session.SessionID),
		StepID:        stepID,
		Success:       result.Success,
		NewCompletion: true,
		Duration:      elapsed,
	})

	if status.WorkflowCompleted {
		m.publish(ctx, events.WorkflowCompleted{
			BaseEvent:      events.NewBaseEvent(events.WorkflowCompletedEvent, m.state.Session.SessionID),
			CompletedSteps: m.state.Progress.CompletedSteps,
			TimeSpent:      m.state.Progress.TimeSpent,
		})
	}

	return status, nil
}

// AdvanceTo starts the given step like StartStep, but additionally validates
// that it is among the last active step's declared next steps. A step
// without a next-step restriction allows advancing anywhere available.
func (m *StateMachine) AdvanceTo(ctx context.Context, stepID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.state.Progress.LastActiveStep

	if from != "" {
		fromStep, ok := m.catalog.Step(from)
		if ok && len(fromStep.NextSteps) > 0 && !slices.Contains(fromStep.NextSteps, stepID) {
			return fmt.Errorf("%w: %s is not a suggested next step of %s", ErrPrerequisiteNotMet, stepID, from)
		}
	}

	if err := m.startStepLocked(ctx, stepID); err != nil {
		return err
	}

	m.publish(ctx, events.WorkflowAdvanced{
		BaseEvent:  events.NewBaseEvent(events.WorkflowAdvancedEvent, m.state.Session.SessionID),
		FromStepID: from,
		ToStepID:   stepID,
	})

	return nil
}

// AcceptComplexityUpgrade commits a previously offered tier change. Tiers
// are strictly ordered and may only be entered from their immediate
// predecessor, regardless of which criteria happen to be satisfied.
func (m *StateMachine) AcceptComplexityUpgrade(ctx context.Context, target models.ComplexityLevel, features []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !target.Valid() {
		return fmt.Errorf("%w: unknown tier %q", ErrInvalidTierTransition, target)
	}

	current := m.state.Progress.ComplexityLevel

	next, ok := current.Next()
	if !ok || target != next {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTierTransition, current, target)
	}

	now := m.clock()
	m.state.Progress.ComplexityLevel = target
	m.state.UpdatedAt = now

	granted := m.grantFeaturesLocked(ctx, target, features)

	m.logger.InfoContext(ctx, "Complexity upgrade accepted",
		"session_id", m.state.Session.SessionID,
		"from", current,
		"to", target,
		"features", granted,
	)

	m.publish(ctx, events.ComplexityUpgradeAccepted{
		BaseEvent: events.NewBaseEvent(events.ComplexityUpgradeAcceptedEvent, m.state.Session.SessionID),
		From:      current,
		To:        target,
		Features:  granted,
	})

	return nil
}

// GrantFeatures adds the given feature IDs to the unlocked set, skipping any
// already present, and emits one event per newly unlocked feature.
func (m *StateMachine) GrantFeatures(ctx context.Context, level models.ComplexityLevel, features []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.grantFeaturesLocked(ctx, level, features)
}

func (m *StateMachine) grantFeaturesLocked(ctx context.Context, level models.ComplexityLevel, features []string) []string {
	var granted []string

	for _, feature := range features {
		if m.state.Progress.HasFeature(feature) {
			continue
		}

		m.state.Progress.UnlockedFeatures = append(m.state.Progress.UnlockedFeatures, feature)
		granted = append(granted, feature)

		m.publish(ctx, events.FeatureUnlocked{
			BaseEvent: events.NewBaseEvent(events.FeatureUnlockedEvent, m.state.Session.SessionID),
			FeatureID: feature,
			Level:     level,
		})
	}

	if len(granted) > 0 {
		m.state.UpdatedAt = m.clock()
	}

	return granted
}

// GrantAchievements records newly earned achievements. An achievement ID
// already present is never re-granted, keeping grants permanent and unique.
func (m *StateMachine) GrantAchievements(ctx context.Context, achievements []models.Achievement) []models.Achievement {
	m.mu.Lock()
	defer m.mu.Unlock()

	var granted []models.Achievement

	now := m.clock()

	for _, achievement := range achievements {
		if m.state.Progress.HasAchievement(achievement.ID) {
			continue
		}

		if achievement.UnlockedAt.IsZero() {
			achievement.UnlockedAt = now
		}

		m.state.Progress.Achievements = append(m.state.Progress.Achievements, achievement)
		granted = append(granted, achievement)

		m.publish(ctx, events.AchievementUnlocked{
			BaseEvent:     events.NewBaseEvent(events.AchievementUnlockedEvent, m.state.Session.SessionID),
			AchievementID: achievement.ID,
			Title:         achievement.Title,
		})
	}

	if len(granted) > 0 {
		m.state.UpdatedAt = now
	}

	return granted
}

// NoteUpgradeOffer emits the upgrade-offer event the first time a given
// target tier is offered. The latch is part of the persisted state, so
// re-evaluations stay silent across resumes, not just within one process.
func (m *StateMachine) NoteUpgradeOffer(ctx context.Context, from, to models.ComplexityLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Progress.OfferedTier == to {
		return
	}

	m.state.Progress.OfferedTier = to
	m.state.UpdatedAt = m.clock()

	m.publish(ctx, events.ComplexityUpgradeOffered{
		BaseEvent: events.NewBaseEvent(events.ComplexityUpgradeOfferedEvent, m.state.Session.SessionID),
		From:      from,
		To:        to,
	})
}

func (m *StateMachine) missingPrerequisites(step *models.StepDefinition) []string {
	var missing []string

	for _, prereq := range step.Prerequisites {
		if !m.state.HasCompleted(prereq) {
			missing = append(missing, prereq)
		}
	}

	return missing
}

func (m *StateMachine) allRequiredCompleted() bool {
	for _, id := range m.catalog.RequiredStepIDs() {
		if !m.state.HasCompleted(id) {
			return false
		}
	}

	return true
}

// publish forwards an event to the sink. The sink carries no authority over
// transitions, so a publish failure is logged and the operation proceeds.
func (m *StateMachine) publish(ctx context.Context, event eventbus.Event) {
	if m.publisher == nil {
		return
	}

	if err := m.publisher.Publish(ctx, m.state.Session.SessionID, event); err != nil {
		m.logger.WarnContext(ctx, "Failed to publish session event",
			"session_id", m.state.Session.SessionID,
			"event_type", event.GetType(),
			"error", err,
		)
	}
}

func mergeData(existing, incoming map[string]any) map[string]any {
	if existing == nil {
		existing = make(map[string]any, len(incoming))
	}

	for k, v := range incoming {
		existing[k] = v
	}

	return existing
}
