package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"arxiv-notifier/internal/domain/entity"
	"arxiv-notifier/internal/repository"
)

type SubscriptionRepo struct{ db *sql.DB }

func NewSubscriptionRepo(db *sql.DB) repository.SubscriptionRepository {
	return &SubscriptionRepo{db: db}
}

func (repo *SubscriptionRepo) Add(ctx context.Context, userID int64, topic string) error {
	const query = `
INSERT INTO user_subscriptions (user_id, topic)
VALUES ($1, $2)
ON CONFLICT (user_id, topic) DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, userID, topic); err != nil {
		return fmt.Errorf("Add: %w", err)
	}
	return nil
}

func (repo *SubscriptionRepo) Remove(ctx context.Context, userID int64, topic string) error {
	const query = `
DELETE FROM user_subscriptions
WHERE user_id = $1 AND topic = $2`
	if _, err := repo.db.ExecContext(ctx, query, userID, topic); err != nil {
		return fmt.Errorf("Remove: %w", err)
	}
	return nil
}

func (repo *SubscriptionRepo) ListTopics(ctx context.Context, userID int64) ([]string, error) {
	const query = `
SELECT topic
FROM user_subscriptions
WHERE user_id = $1
ORDER BY created_at ASC, topic ASC`
	rows, err := repo.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ListTopics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	topics := make([]string, 0, 10)
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, fmt.Errorf("ListTopics: %w", err)
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

func (repo *SubscriptionRepo) ListAll(ctx context.Context) ([]*entity.Subscription, error) {
	const query = `
SELECT user_id, topic, created_at
FROM user_subscriptions
ORDER BY user_id ASC, created_at ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	defer func() { _ = rows.Close() }()

	subs := make([]*entity.Subscription, 0, 50)
	for rows.Next() {
		var sub entity.Subscription
		if err := rows.Scan(&sub.UserID, &sub.Topic, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListAll: %w", err)
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}
