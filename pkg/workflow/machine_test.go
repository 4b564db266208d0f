package workflow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windscape/windscape/pkg/eventbus"
	"github.com/windscape/windscape/pkg/events"
	"github.com/windscape/windscape/pkg/models"
	"github.com/windscape/windscape/pkg/testutil"
	"github.com/windscape/windscape/pkg/workflow"
)

// testClock returns a clock that advances by step on every call.
func testClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func newMachine(t *testing.T, catalog *models.Catalog, opts ...workflow.Option) (*workflow.StateMachine, *eventbus.Sink) {
	t.Helper()

	sink := eventbus.NewSink()
	opts = append(opts, workflow.WithPublisher(sink))

	return workflow.New(catalog, testutil.NewSessionData(), opts...), sink
}

func TestNew_SeedsInitialState(t *testing.T) {
	catalog := testutil.CreateTestCatalog(
		testutil.CreateTestStep("terrain"),
		testutil.CreateTestStep("wind", testutil.WithPrerequisites("terrain")),
	)

	machine, _ := newMachine(t, catalog)
	state := machine.Snapshot()

	assert.Empty(t, state.CompletedSteps)
	assert.Equal(t, []string{"terrain"}, state.AvailableSteps)
	assert.Equal(t, models.ComplexityBasic, state.Progress.ComplexityLevel)
	assert.Equal(t, 2, state.Progress.TotalSteps)
	assert.False(t, state.WorkflowCompleted)
	assert.NotEmpty(t, machine.SessionID())
}

func TestStartStep(t *testing.T) {
	machine, sink := newMachine(t, testutil.LinearCatalog(2))

	err := machine.StartStep(t.Context(), "s1")
	require.NoError(t, err)

	state := machine.Snapshot()
	assert.Equal(t, "s1", state.CurrentStepID)
	assert.Equal(t, "s1", state.Progress.LastActiveStep)
	assert.Contains(t, state.StepStartTimes, "s1")
	assert.Equal(t, []events.EventType{events.StepStartedEvent}, sink.EventTypes())
}

func TestStartStep_UnknownStep(t *testing.T) {
	machine, sink := newMachine(t, testutil.LinearCatalog(2))

	err := machine.StartStep(t.Context(), "nope")

	require.ErrorIs(t, err, workflow.ErrUnknownStep)
	assert.Zero(t, sink.Len())
}

func TestStartStep_PrerequisiteNotMet_StateUnchanged(t *testing.T) {
	machine, sink := newMachine(t, testutil.LinearCatalog(2))
	before := machine.Snapshot()

	err := machine.StartStep(t.Context(), "s2")

	require.ErrorIs(t, err, workflow.ErrPrerequisiteNotMet)
	assert.Zero(t, sink.Len())

	after := machine.Snapshot()
	assert.Equal(t, before.CompletedSteps, after.CompletedSteps)
	assert.Equal(t, before.AvailableSteps, after.AvailableSteps)
	assert.Equal(t, before.CurrentStepID, after.CurrentStepID)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestStartStep_AlreadyCompleted(t *testing.T) {
	machine, _ := newMachine(t, testutil.LinearCatalog(2))

	require.NoError(t, machine.StartStep(t.Context(), "s1"))
	_, err := machine.CompleteStep(t.Context(), "s1", models.StepResult{Success: true})
	require.NoError(t, err)

	err = machine.StartStep(t.Context(), "s1")
	assert.ErrorIs(t, err, workflow.ErrPrerequisiteNotMet)
}

func TestCompleteStep(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	machine, sink := newMachine(t, testutil.LinearCatalog(3),
		workflow.WithClock(testClock(start, time.Minute)))

	require.NoError(t, machine.StartStep(t.Context(), "s1"))

	status, err := machine.CompleteStep(t.Context(), "s1", models.StepResult{
		Success: true,
		Data:    map[string]any{"mean_speed": 7.4},
	})
	require.NoError(t, err)
	assert.True(t, status.NewCompletion)
	assert.False(t, status.WorkflowCompleted)

	state := machine.Snapshot()
	assert.Equal(t, []string{"s1"}, state.CompletedSteps)
	assert.Equal(t, []string{"s2"}, state.AvailableSteps)
	assert.Empty(t, state.CurrentStepID)
	assert.Equal(t, 1, state.Progress.CompletedSteps)
	assert.Equal(t, time.Minute, state.Progress.TimeSpent)

	require.Contains(t, state.StepResults, "s1")
	assert.True(t, state.StepResults["s1"].Success)
	assert.Equal(t, 7.4, state.Session.SharedData["s1"]["mean_speed"])

	assert.Equal(t, []events.EventType{
		events.StepStartedEvent,
		events.StepCompletedEvent,
	}, sink.EventTypes())
}

func TestCompleteStep_Idempotent(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	machine, sink := newMachine(t, testutil.LinearCatalog(3),
		workflow.WithClock(testClock(start, time.Minute)))

	require.NoError(t, machine.StartStep(t.Context(), "s1"))
	_, err := machine.CompleteStep(t.Context(), "s1", models.StepResult{Success: true})
	require.NoError(t, err)

	before := machine.Snapshot()

	status, err := machine.CompleteStep(t.Context(), "s1", models.StepResult{Success: true})
	require.NoError(t, err)
	assert.False(t, status.NewCompletion)
	assert.False(t, status.WorkflowCompleted)

	after := machine.Snapshot()
	assert.Equal(t, before.CompletedSteps, after.CompletedSteps)
	assert.Equal(t, before.AvailableSteps, after.AvailableSteps)
	assert.Equal(t, before.Progress.CompletedSteps, after.Progress.CompletedSteps)
	assert.Equal(t, before.Progress.TimeSpent, after.Progress.TimeSpent)
	assert.True(t, after.Progress.LastActiveAt.After(before.Progress.LastActiveAt))

	// The repeat emits a completion event flagged as not new.
	records := sink.Records()
	require.Len(t, records, 3)

	repeat, ok := records[2].Event.(events.StepCompleted)
	require.True(t, ok)
	assert.False(t, repeat.NewCompletion)
}

func TestCompleteStep_NoActiveStep(t *testing.T) {
	machine, _ := newMachine(t, testutil.LinearCatalog(2))

	_, err := machine.CompleteStep(t.Context(), "s1", models.StepResult{Success: true})

	assert.ErrorIs(t, err, workflow.ErrNoActiveStep)
}

func TestCompleteStep_UnknownStep(t *testing.T) {
	machine, _ := newMachine(t, testutil.LinearCatalog(2))

	_, err := machine.CompleteStep(t.Context(), "nope", models.StepResult{Success: true})

	assert.ErrorIs(t, err, workflow.ErrUnknownStep)
}

func TestCompleteStep_OutOfOrderWhileAnotherInProgress(t *testing.T) {
	catalog := testutil.CreateTestCatalog(
		testutil.CreateTestStep("terrain"),
		testutil.CreateTestStep("survey"),
	)
	machine, _ := newMachine(t, catalog)

	require.NoError(t, machine.StartStep(t.Context(), "terrain"))
	require.NoError(t, machine.StartStep(t.Context(), "survey"))

	// Completing terrain while survey is current is allowed; the current
	// step pointer stays on survey.
	status, err := machine.CompleteStep(t.Context(), "terrain", models.StepResult{Success: true})
	require.NoError(t, err)
	assert.True(t, status.NewCompletion)

	state := machine.Snapshot()
	assert.Equal(t, "survey", state.CurrentStepID)
	assert.Equal(t, []string{"terrain"}, state.CompletedSteps)
}

func TestCompleteStep_TimeSpentMonotonic(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := testClock(start, 5*time.Minute)
	machine, _ := newMachine(t, testutil.LinearCatalog(3), workflow.WithClock(clock))

	var last time.Duration

	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, machine.StartStep(t.Context(), id))

		_, err := machine.CompleteStep(t.Context(), id, models.StepResult{Success: true})
		require.NoError(t, err)

		spent := machine.Snapshot().Progress.TimeSpent
		assert.GreaterOrEqual(t, spent, last)
		last = spent
	}

	assert.Equal(t, 15*time.Minute, last)
}

func TestCompleteStep_FailedResultStillCompletes(t *testing.T) {
	machine, _ := newMachine(t, testutil.LinearCatalog(2))

	require.NoError(t, machine.StartStep(t.Context(), "s1"))

	status, err := machine.CompleteStep(t.Context(), "s1", models.StepResult{Success: false})
	require.NoError(t, err)
	assert.True(t, status.NewCompletion)

	state := machine.Snapshot()
	assert.True(t, state.HasCompleted("s1"))
	assert.False(t, state.StepResults["s1"].Success)
}

func TestWorkflowCompletion_SignaledExactlyOnce(t *testing.T) {
	catalog := testutil.CreateTestCatalog(
		testutil.CreateTestStep("terrain"),
		testutil.CreateTestStep("wind", testutil.WithPrerequisites("terrain")),
		testutil.CreateTestStep("report", testutil.WithPrerequisites("wind"), testutil.WithOptional()),
	)
	machine, sink := newMachine(t, catalog)

	require.NoError(t, machine.StartStep(t.Context(), "terrain"))
	status, err := machine.CompleteStep(t.Context(), "terrain", models.StepResult{Success: true})
	require.NoError(t, err)
	assert.False(t, status.WorkflowCompleted)

	// Completing the last required step fires the latch; the optional
	// report step does not count against it.
	require.NoError(t, machine.StartStep(t.Context(), "wind"))
	status, err = machine.CompleteStep(t.Context(), "wind", models.StepResult{Success: true})
	require.NoError(t, err)
	assert.True(t, status.WorkflowCompleted)
	assert.True(t, machine.Snapshot().WorkflowCompleted)

	// The optional step remains startable afterwards and must not fire
	// the latch a second time.
	require.NoError(t, machine.StartStep(t.Context(), "report"))
	status, err = machine.CompleteStep(t.Context(), "report", models.StepResult{Success: true})
	require.NoError(t, err)
	assert.True(t, status.NewCompletion)
	assert.False(t, status.WorkflowCompleted)

	completions := 0
	for _, eventType := range sink.EventTypes() {
		if eventType == events.WorkflowCompletedEvent {
			completions++
		}
	}
	assert.Equal(t, 1, completions)
}

func TestAdvanceTo(t *testing.T) {
	machine, sink := newMachine(t, testutil.LinearCatalog(3))

	require.NoError(t, machine.StartStep(t.Context(), "s1"))
	_, err := machine.CompleteStep(t.Context(), "s1", models.StepResult{Success: true})
	require.NoError(t, err)

	require.NoError(t, machine.AdvanceTo(t.Context(), "s2"))

	state := machine.Snapshot()
	assert.Equal(t, "s2", state.CurrentStepID)

	types := sink.EventTypes()
	assert.Contains(t, types, events.WorkflowAdvancedEvent)
}

func TestAdvanceTo_NotASuggestedNextStep(t *testing.T) {
	catalog := testutil.CreateTestCatalog(
		testutil.CreateTestStep("terrain", testutil.WithNextSteps("wind")),
		testutil.CreateTestStep("wind", testutil.WithPrerequisites("terrain")),
		testutil.CreateTestStep("survey"),
	)
	machine, _ := newMachine(t, catalog)

	require.NoError(t, machine.StartStep(t.Context(), "terrain"))
	_, err := machine.CompleteStep(t.Context(), "terrain", models.StepResult{Success: true})
	require.NoError(t, err)

	err = machine.AdvanceTo(t.Context(), "survey")
	assert.ErrorIs(t, err, workflow.ErrPrerequisiteNotMet)

	assert.NoError(t, machine.AdvanceTo(t.Context(), "wind"))
}

func TestAdvanceTo_UnavailableStep(t *testing.T) {
	machine, _ := newMachine(t, testutil.LinearCatalog(3))

	require.NoError(t, machine.StartStep(t.Context(), "s1"))
	_, err := machine.CompleteStep(t.Context(), "s1", models.StepResult{Success: true})
	require.NoError(t, err)

	err = machine.AdvanceTo(t.Context(), "s3")
	assert.ErrorIs(t, err, workflow.ErrPrerequisiteNotMet)
}

func TestAcceptComplexityUpgrade(t *testing.T) {
	machine, sink := newMachine(t, testutil.LinearCatalog(2))

	err := machine.AcceptComplexityUpgrade(t.Context(), models.ComplexityIntermediate,
		[]string{"wind_rose", "roughness_map"})
	require.NoError(t, err)

	state := machine.Snapshot()
	assert.Equal(t, models.ComplexityIntermediate, state.Progress.ComplexityLevel)
	assert.Equal(t, []string{"wind_rose", "roughness_map"}, state.Progress.UnlockedFeatures)

	types := sink.EventTypes()
	assert.Contains(t, types, events.ComplexityUpgradeAcceptedEvent)
	assert.Contains(t, types, events.FeatureUnlockedEvent)
}

func TestAcceptComplexityUpgrade_NoSkipping(t *testing.T) {
	machine, _ := newMachine(t, testutil.LinearCatalog(2))

	err := machine.AcceptComplexityUpgrade(t.Context(), models.ComplexityAdvanced, nil)
	require.ErrorIs(t, err, workflow.ErrInvalidTierTransition)

	err = machine.AcceptComplexityUpgrade(t.Context(), models.ComplexityExpert, nil)
	require.ErrorIs(t, err, workflow.ErrInvalidTierTransition)

	assert.Equal(t, models.ComplexityBasic, machine.Snapshot().Progress.ComplexityLevel)
}

func TestAcceptComplexityUpgrade_NoDowngrade(t *testing.T) {
	machine, _ := newMachine(t, testutil.LinearCatalog(2))

	require.NoError(t, machine.AcceptComplexityUpgrade(t.Context(), models.ComplexityIntermediate, nil))

	err := machine.AcceptComplexityUpgrade(t.Context(), models.ComplexityBasic, nil)
	assert.ErrorIs(t, err, workflow.ErrInvalidTierTransition)

	err = machine.AcceptComplexityUpgrade(t.Context(), models.ComplexityLevel("wizard"), nil)
	assert.ErrorIs(t, err, workflow.ErrInvalidTierTransition)
}

func TestGrantFeatures_Idempotent(t *testing.T) {
	machine, sink := newMachine(t, testutil.LinearCatalog(2))

	granted := machine.GrantFeatures(t.Context(), models.ComplexityBasic, []string{"base_map", "base_map", "layers"})
	assert.Equal(t, []string{"base_map", "layers"}, granted)

	granted = machine.GrantFeatures(t.Context(), models.ComplexityBasic, []string{"base_map"})
	assert.Empty(t, granted)

	assert.Equal(t, []string{"base_map", "layers"}, machine.Snapshot().Progress.UnlockedFeatures)
	assert.Equal(t, 2, sink.Len())
}

func TestGrantAchievements_Permanent(t *testing.T) {
	machine, _ := newMachine(t, testutil.LinearCatalog(2))

	granted := machine.GrantAchievements(t.Context(), []models.Achievement{
		{ID: "first_findings", Title: "First Findings"},
	})
	require.Len(t, granted, 1)
	assert.False(t, granted[0].UnlockedAt.IsZero())

	granted = machine.GrantAchievements(t.Context(), []models.Achievement{
		{ID: "first_findings", Title: "First Findings"},
	})
	assert.Empty(t, granted)

	assert.Len(t, machine.Snapshot().Progress.Achievements, 1)
}

func TestNoteUpgradeOffer_EmittedOncePerTarget(t *testing.T) {
	machine, sink := newMachine(t, testutil.LinearCatalog(2))

	machine.NoteUpgradeOffer(t.Context(), models.ComplexityBasic, models.ComplexityIntermediate)
	machine.NoteUpgradeOffer(t.Context(), models.ComplexityBasic, models.ComplexityIntermediate)
	assert.Equal(t, 1, sink.Len())

	machine.NoteUpgradeOffer(t.Context(), models.ComplexityIntermediate, models.ComplexityAdvanced)
	assert.Equal(t, 2, sink.Len())
}

func TestNoteUpgradeOffer_LatchSurvivesResume(t *testing.T) {
	catalog := testutil.LinearCatalog(2)
	machine, _ := newMachine(t, catalog)

	machine.NoteUpgradeOffer(t.Context(), models.ComplexityBasic, models.ComplexityIntermediate)
	assert.Equal(t, models.ComplexityIntermediate, machine.Snapshot().Progress.OfferedTier)

	sink := eventbus.NewSink()
	resumed, err := workflow.Resume(catalog, machine.Snapshot(), workflow.WithPublisher(sink))
	require.NoError(t, err)

	// The same standing offer is not announced again after a resume.
	resumed.NoteUpgradeOffer(t.Context(), models.ComplexityBasic, models.ComplexityIntermediate)
	assert.Equal(t, 0, sink.Len())

	resumed.NoteUpgradeOffer(t.Context(), models.ComplexityIntermediate, models.ComplexityAdvanced)
	assert.Equal(t, 1, sink.Len())
}

func TestResume(t *testing.T) {
	catalog := testutil.LinearCatalog(3)
	machine, _ := newMachine(t, catalog)

	require.NoError(t, machine.StartStep(t.Context(), "s1"))
	_, err := machine.CompleteStep(t.Context(), "s1", models.StepResult{Success: true})
	require.NoError(t, err)

	saved := machine.Snapshot()

	// Stale derived state in the snapshot is recomputed on resume.
	saved.AvailableSteps = []string{"s1", "bogus"}

	resumed, err := workflow.Resume(catalog, saved)
	require.NoError(t, err)

	state := resumed.Snapshot()
	assert.Equal(t, machine.SessionID(), resumed.SessionID())
	assert.Equal(t, []string{"s2"}, state.AvailableSteps)
	assert.Equal(t, []string{"s1"}, state.CompletedSteps)

	require.NoError(t, resumed.StartStep(t.Context(), "s2"))
}

func TestResume_WithoutSessionID(t *testing.T) {
	_, err := workflow.Resume(testutil.LinearCatalog(1), &models.WorkflowState{})
	assert.Error(t, err)

	_, err = workflow.Resume(testutil.LinearCatalog(1), nil)
	assert.Error(t, err)
}
