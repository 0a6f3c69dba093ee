package interfaces

import "context"

// EventPublisher emits domain events after a write commits. Implementations
// must be safe for concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}
