// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as Article and Subscription, along with
// their validation rules and domain-specific errors.
package entity

import "time"

// Article represents a paper returned by the arXiv search API.
// Articles are transient: they are produced fresh on every query and are
// never persisted beyond their identifier in the notification ledger.
type Article struct {
	ID              string
	Title           string
	Authors         []string
	Abstract        string
	Link            string
	PublishedAt     time.Time
	UpdatedAt       time.Time
	Categories      []string
	PrimaryCategory string
}
