package ports

import "context"

// EventPublisher notifies other services about auth lifecycle events.
type EventPublisher interface {
	PublishLogin(ctx context.Context, userID string, address string) error
	PublishLogout(ctx context.Context, userID string, sessionID string) error
}
