// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poll metrics track the periodic search-and-notify loop
var (
	// PollTicksTotal counts completed poll ticks by outcome
	PollTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_ticks_total",
			Help: "Total number of poll ticks",
		},
		[]string{"status"}, // status: success, partial, skipped, error
	)

	// PollTickDuration measures the duration of one full poll tick
	PollTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poll_tick_duration_seconds",
			Help:    "Time taken to run one poll tick",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// TopicSearchesTotal counts topic searches against the arXiv API
	TopicSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topic_searches_total",
			Help: "Total number of per-topic arXiv searches",
		},
		[]string{"result"}, // result: success, error
	)

	// TopicSearchDuration measures the duration of one topic search
	TopicSearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topic_search_duration_seconds",
			Help:    "Time taken to search arXiv for one topic",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	// ArticlesFetchedTotal counts articles returned by topic searches
	ArticlesFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_fetched_total",
			Help: "Total number of articles returned by scheduled searches",
		},
	)
)

// Delivery metrics track Telegram notifications
var (
	// NotificationsTotal counts delivery attempts by outcome
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of notification deliveries",
		},
		[]string{"result"}, // result: sent, skipped_duplicate, failed
	)

	// NotificationDuration measures time to deliver one message
	NotificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_duration_seconds",
			Help:    "Time taken to deliver one Telegram message",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	// LedgerPrunedTotal counts ledger rows removed by retention pruning
	LedgerPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_pruned_rows_total",
			Help: "Total number of notification ledger rows pruned",
		},
	)
)

// Command metrics track the chat command surface
var (
	// CommandsTotal counts handled bot commands by name and outcome
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of handled bot commands",
		},
		[]string{"command", "status"},
	)

	// SubscriptionsActive tracks the number of subscription rows
	SubscriptionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "subscriptions_active",
			Help: "Number of (user, topic) subscription pairs",
		},
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)
)

// RecordTopicSearch records one per-topic search with its outcome and duration.
func RecordTopicSearch(result string, duration time.Duration) {
	TopicSearchesTotal.WithLabelValues(result).Inc()
	TopicSearchDuration.Observe(duration.Seconds())
}

// RecordNotification records one delivery attempt with its outcome.
func RecordNotification(result string, duration time.Duration) {
	NotificationsTotal.WithLabelValues(result).Inc()
	if duration > 0 {
		NotificationDuration.Observe(duration.Seconds())
	}
}

// RecordCommand records one handled bot command.
func RecordCommand(command, status string) {
	CommandsTotal.WithLabelValues(command, status).Inc()
}

// RecordOperationDuration records the duration of a named database operation.
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
