// Package subscription provides topic subscription management use cases.
// It validates and normalizes user input before delegating to the
// subscription repository.
package subscription

import (
	"context"
	"fmt"

	"arxiv-notifier/internal/domain/entity"
	"arxiv-notifier/internal/repository"
)

// Service provides subscription management use cases.
type Service struct {
	Repo repository.SubscriptionRepository
}

// NewService creates a new subscription Service backed by the given repository.
func NewService(repo repository.SubscriptionRepository) Service {
	return Service{Repo: repo}
}

// Subscribe adds a topic subscription for the user. The topic is normalized
// (whitespace collapsed, lowercased) before storage so that "Machine Learning"
// and "machine   learning" map to the same subscription. Subscribing to an
// already-subscribed topic is a no-op.
//
// Returns the normalized topic on success, or a validation error if the
// user ID or topic is invalid.
func (s *Service) Subscribe(ctx context.Context, userID int64, topic string) (string, error) {
	if err := entity.ValidateUserID(userID); err != nil {
		return "", err
	}
	normalized := entity.NormalizeTopic(topic)
	if err := entity.ValidateTopic(normalized); err != nil {
		return "", err
	}
	if err := s.Repo.Add(ctx, userID, normalized); err != nil {
		return "", fmt.Errorf("Subscribe: %w", err)
	}
	return normalized, nil
}

// Unsubscribe removes a topic subscription for the user. Removing a topic
// the user is not subscribed to is a no-op.
//
// Returns the normalized topic on success.
func (s *Service) Unsubscribe(ctx context.Context, userID int64, topic string) (string, error) {
	if err := entity.ValidateUserID(userID); err != nil {
		return "", err
	}
	normalized := entity.NormalizeTopic(topic)
	if err := entity.ValidateTopic(normalized); err != nil {
		return "", err
	}
	if err := s.Repo.Remove(ctx, userID, normalized); err != nil {
		return "", fmt.Errorf("Unsubscribe: %w", err)
	}
	return normalized, nil
}

// ListTopics returns the user's subscribed topics in subscription order.
func (s *Service) ListTopics(ctx context.Context, userID int64) ([]string, error) {
	if err := entity.ValidateUserID(userID); err != nil {
		return nil, err
	}
	topics, err := s.Repo.ListTopics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListTopics: %w", err)
	}
	return topics, nil
}

// IsSubscribed reports whether the user is currently subscribed to the topic.
// The topic is normalized before comparison.
func (s *Service) IsSubscribed(ctx context.Context, userID int64, topic string) (bool, error) {
	topics, err := s.ListTopics(ctx, userID)
	if err != nil {
		return false, err
	}
	normalized := entity.NormalizeTopic(topic)
	for _, t := range topics {
		if t == normalized {
			return true, nil
		}
	}
	return false, nil
}
