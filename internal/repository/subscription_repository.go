// Package repository defines the persistence interfaces consumed by the use case layer.
// Concrete implementations live in internal/infra/adapter/persistence.
package repository

import (
	"context"

	"arxiv-notifier/internal/domain/entity"
)

// SubscriptionRepository is the durable mapping of user to subscribed topics.
// All operations are idempotent and safe under concurrent invocation from the
// command surface and the poll engine.
type SubscriptionRepository interface {
	// Add inserts the (user, topic) pair. Adding an existing pair is a no-op.
	Add(ctx context.Context, userID int64, topic string) error

	// Remove deletes the (user, topic) pair. Removing an absent pair is a no-op.
	Remove(ctx context.Context, userID int64, topic string) error

	// ListTopics returns all topics for one user, ordered by subscription time.
	// Returns an empty slice if the user has no subscriptions.
	ListTopics(ctx context.Context, userID int64) ([]string, error)

	// ListAll returns a full snapshot of every subscription, used once per poll tick.
	ListAll(ctx context.Context) ([]*entity.Subscription, error)
}
