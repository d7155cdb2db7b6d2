package ports

import "context"

// EventPublisher delivers game events to interested parties.
type EventPublisher interface {
	// Publish sends payload under kind to recipient. Implementations own their
	// encoding and must not retain payload after returning.
	Publish(ctx context.Context, kind, recipient string, payload any) error
}
