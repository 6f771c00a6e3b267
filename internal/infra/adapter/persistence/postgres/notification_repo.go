package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"arxiv-notifier/internal/repository"
)

type NotificationRepo struct{ db *sql.DB }

func NewNotificationRepo(db *sql.DB) repository.NotificationRepository {
	return &NotificationRepo{db: db}
}

func (repo *NotificationRepo) HasNotified(ctx context.Context, userID int64, articleID string) (bool, error) {
	const query = `
SELECT EXISTS (
    SELECT 1 FROM notified_articles
    WHERE user_id = $1 AND article_id = $2
)`
	var exists bool
	if err := repo.db.QueryRowContext(ctx, query, userID, articleID).Scan(&exists); err != nil {
		return false, fmt.Errorf("HasNotified: %w", err)
	}
	return exists, nil
}

func (repo *NotificationRepo) Record(ctx context.Context, userID int64, articleID string) error {
	const query = `
INSERT INTO notified_articles (user_id, article_id)
VALUES ($1, $2)
ON CONFLICT (user_id, article_id) DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, userID, articleID); err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	return nil
}

// Prune deletes everything but the user's maxHistory newest rows.
// The serial id column stands in for insertion order.
func (repo *NotificationRepo) Prune(ctx context.Context, userID int64, maxHistory int) (int64, error) {
	if maxHistory < 0 {
		return 0, fmt.Errorf("Prune: maxHistory must be non-negative, got %d", maxHistory)
	}
	const query = `
DELETE FROM notified_articles
WHERE user_id = $1
  AND id NOT IN (
    SELECT id FROM notified_articles
    WHERE user_id = $1
    ORDER BY id DESC
    LIMIT $2
)`
	res, err := repo.db.ExecContext(ctx, query, userID, maxHistory)
	if err != nil {
		return 0, fmt.Errorf("Prune: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("Prune: %w", err)
	}
	return deleted, nil
}
