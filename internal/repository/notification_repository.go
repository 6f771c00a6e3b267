package repository

import "context"

// NotificationRepository is the dedup ledger of (user, article) deliveries
// already made. It exists solely to prevent re-delivery; it is not an audit log.
type NotificationRepository interface {
	// HasNotified reports whether the user was already notified of the article.
	// Reflects every prior successful Record call for that pair.
	HasNotified(ctx context.Context, userID int64, articleID string) (bool, error)

	// Record inserts the (user, article) pair. Recording an existing pair is a no-op.
	Record(ctx context.Context, userID int64, articleID string) error

	// Prune retains at most maxHistory most-recently-recorded entries for the
	// user, deleting the remainder in oldest-insertion-order first. Insertion
	// order, not publication date, decides what goes. Returns the number of
	// rows deleted.
	Prune(ctx context.Context, userID int64, maxHistory int) (int64, error)
}
