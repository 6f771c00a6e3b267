package entity

import (
	"strings"
	"time"
)

// maxTopicLength defines the maximum allowed length for a subscription topic.
const maxTopicLength = 100

// Subscription relates a chat user to a topic they want notifications for.
// A topic is either an arXiv category code (e.g. "cs.AI") or a free-text
// keyword phrase. The (UserID, Topic) pair is unique; subscribing twice to
// the same topic is a no-op, not a duplicate entry.
type Subscription struct {
	UserID    int64
	Topic     string
	CreatedAt time.Time
}

// NormalizeTopic canonicalizes a raw topic string: surrounding whitespace is
// trimmed, internal whitespace runs collapse to a single space, and the
// result is lowercased so "Machine Learning" and "machine  learning" map to
// the same subscription row.
func NormalizeTopic(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

// ValidateTopic validates a normalized topic string.
// Returns a ValidationError if the topic is empty or exceeds the maximum length.
func ValidateTopic(topic string) error {
	if topic == "" {
		return &ValidationError{Field: "topic", Message: "topic is required"}
	}
	if len(topic) > maxTopicLength {
		return &ValidationError{Field: "topic", Message: "topic is too long"}
	}
	return nil
}

// ValidateUserID validates a chat user identifier.
func ValidateUserID(userID int64) error {
	if userID == 0 {
		return &ValidationError{Field: "user_id", Message: "user ID is required"}
	}
	return nil
}
