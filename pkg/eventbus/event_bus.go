// Package eventbus provides event-driven notification infrastructure for workflow sessions.
package eventbus

import (
	"context"

	"github.com/windscape/windscape/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}

// FanoutPublisher publishes every event to all wrapped publishers in order.
// Publishing stops at the first error.
type FanoutPublisher struct {
	publishers []EventPublisher
}

func NewFanoutPublisher(publishers ...EventPublisher) *FanoutPublisher {
	return &FanoutPublisher{publishers: publishers}
}

func (f *FanoutPublisher) Publish(ctx context.Context, key string, event Event) error {
	for _, publisher := range f.publishers {
		if err := publisher.Publish(ctx, key, event); err != nil {
			return err
		}
	}

	return nil
}
