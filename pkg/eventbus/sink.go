package eventbus

import (
	"context"
	"slices"
	"sync"

	"github.com/windscape/windscape/pkg/events"
)

// Record is one appended sink entry. Key is the routing key the event was
// published with (the session ID).
type Record struct {
	Key   string
	Event Event
}

// Sink is an append-only, ordered in-memory event log. It carries no
// authority over state transitions; it exists for external observers such as
// the UI and analytics. Decisions are always derived from workflow state,
// never from this history.
type Sink struct {
	mu      sync.Mutex
	records []Record
}

func NewSink() *Sink {
	return &Sink{}
}

// Publish appends the event to the log. It never fails.
func (s *Sink) Publish(_ context.Context, key string, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, Record{Key: key, Event: event})

	return nil
}

// Records returns a snapshot of all appended records in publish order.
func (s *Sink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]Record, len(s.records))
	copy(snapshot, s.records)

	return snapshot
}

// RecordsForKey returns the records published with the given key, in order.
func (s *Sink) RecordsForKey(key string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Record

	for _, record := range s.records {
		if record.Key == key {
			result = append(result, record)
		}
	}

	return result
}

// DropKey removes every record published with the given key. Called when a
// session is deleted so the log does not accumulate dead sessions for the
// lifetime of the process.
func (s *Sink) DropKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = slices.DeleteFunc(s.records, func(record Record) bool {
		return record.Key == key
	})
}

// EventTypes returns the types of all records in publish order. Mostly
// useful in tests and debugging output.
func (s *Sink) EventTypes() []events.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()

	types := make([]events.EventType, len(s.records))
	for i, record := range s.records {
		types[i] = record.Event.GetType()
	}

	return types
}

// Len returns the number of appended records.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}
