package ports

import "context"

// EventPublisher publishes integration events to a broker topic after a
// successful write. Delivery is at-least-once; consumers must be idempotent.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// MessageHandler processes one delivered message payload. Returning an error
// leaves the message unacknowledged for redelivery.
type MessageHandler func(ctx context.Context, payload []byte) error

// EventSubscriber consumes a broker topic, invoking the handler per message
// until the context is cancelled.
type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, handler MessageHandler) error
}
