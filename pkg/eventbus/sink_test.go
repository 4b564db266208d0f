package eventbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windscape/windscape/pkg/eventbus"
	"github.com/windscape/windscape/pkg/events"
)

func TestSink_AppendOnlyOrdered(t *testing.T) {
	sink := eventbus.NewSink()

	published := []eventbus.Event{
		events.StepStarted{BaseEvent: events.NewBaseEvent(events.StepStartedEvent, "sess-1"), StepID: "terrain"},
		events.StepCompleted{BaseEvent: events.NewBaseEvent(events.StepCompletedEvent, "sess-1"), StepID: "terrain"},
		events.WorkflowAdvanced{BaseEvent: events.NewBaseEvent(events.WorkflowAdvancedEvent, "sess-1"), ToStepID: "wind"},
	}

	for _, event := range published {
		require.NoError(t, sink.Publish(t.Context(), "sess-1", event))
	}

	assert.Equal(t, 3, sink.Len())
	assert.Equal(t, []events.EventType{
		events.StepStartedEvent,
		events.StepCompletedEvent,
		events.WorkflowAdvancedEvent,
	}, sink.EventTypes())

	records := sink.Records()
	require.Len(t, records, 3)

	for i, record := range records {
		assert.Equal(t, "sess-1", record.Key)
		assert.Equal(t, published[i], record.Event)
	}
}

func TestSink_RecordsForKey(t *testing.T) {
	sink := eventbus.NewSink()

	require.NoError(t, sink.Publish(t.Context(), "a",
		events.StepStarted{BaseEvent: events.NewBaseEvent(events.StepStartedEvent, "a")}))
	require.NoError(t, sink.Publish(t.Context(), "b",
		events.StepStarted{BaseEvent: events.NewBaseEvent(events.StepStartedEvent, "b")}))
	require.NoError(t, sink.Publish(t.Context(), "a",
		events.StepCompleted{BaseEvent: events.NewBaseEvent(events.StepCompletedEvent, "a")}))

	forA := sink.RecordsForKey("a")
	require.Len(t, forA, 2)
	assert.Equal(t, events.StepStartedEvent, forA[0].Event.GetType())
	assert.Equal(t, events.StepCompletedEvent, forA[1].Event.GetType())

	assert.Len(t, sink.RecordsForKey("b"), 1)
	assert.Empty(t, sink.RecordsForKey("c"))
}

func TestSink_RecordsSnapshotIsolated(t *testing.T) {
	sink := eventbus.NewSink()

	require.NoError(t, sink.Publish(t.Context(), "a",
		events.StepStarted{BaseEvent: events.NewBaseEvent(events.StepStartedEvent, "a")}))

	snapshot := sink.Records()

	require.NoError(t, sink.Publish(t.Context(), "a",
		events.StepCompleted{BaseEvent: events.NewBaseEvent(events.StepCompletedEvent, "a")}))

	assert.Len(t, snapshot, 1)
	assert.Equal(t, 2, sink.Len())
}

func TestSink_DropKey(t *testing.T) {
	sink := eventbus.NewSink()

	require.NoError(t, sink.Publish(t.Context(), "a",
		events.StepStarted{BaseEvent: events.NewBaseEvent(events.StepStartedEvent, "a")}))
	require.NoError(t, sink.Publish(t.Context(), "b",
		events.StepStarted{BaseEvent: events.NewBaseEvent(events.StepStartedEvent, "b")}))
	require.NoError(t, sink.Publish(t.Context(), "a",
		events.StepCompleted{BaseEvent: events.NewBaseEvent(events.StepCompletedEvent, "a")}))

	sink.DropKey("a")

	assert.Empty(t, sink.RecordsForKey("a"))
	assert.Equal(t, 1, sink.Len())
	assert.Len(t, sink.RecordsForKey("b"), 1)

	// Dropping an unknown key is a no-op.
	sink.DropKey("c")
	assert.Equal(t, 1, sink.Len())
}

type failingPublisher struct {
	err error
}

func (p *failingPublisher) Publish(context.Context, string, eventbus.Event) error {
	return p.err
}

func TestFanoutPublisher(t *testing.T) {
	first := eventbus.NewSink()
	second := eventbus.NewSink()
	fanout := eventbus.NewFanoutPublisher(first, second)

	event := events.StepStarted{BaseEvent: events.NewBaseEvent(events.StepStartedEvent, "sess-1")}
	require.NoError(t, fanout.Publish(t.Context(), "sess-1", event))

	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 1, second.Len())
}

func TestFanoutPublisher_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	sink := eventbus.NewSink()
	fanout := eventbus.NewFanoutPublisher(&failingPublisher{err: boom}, sink)

	err := fanout.Publish(t.Context(), "sess-1",
		events.StepStarted{BaseEvent: events.NewBaseEvent(events.StepStartedEvent, "sess-1")})

	require.ErrorIs(t, err, boom)
	assert.Zero(t, sink.Len())
}
