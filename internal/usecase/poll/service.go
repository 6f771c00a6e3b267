// Package poll implements the periodic search-and-notify loop. Each tick
// snapshots the subscription table, searches arXiv once per distinct topic,
// fans the results out to subscribers with ledger-based deduplication, and
// prunes the ledger to its retention limit.
package poll

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"arxiv-notifier/internal/domain/entity"
	"arxiv-notifier/internal/observability/logging"
	"arxiv-notifier/internal/observability/metrics"
	"arxiv-notifier/internal/render"
	"arxiv-notifier/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Searcher fetches recent articles matching a topic. Implementations are
// expected to return articles newest-first and to drop anything published
// before the recency cutoff.
type Searcher interface {
	Search(ctx context.Context, topic string, maxResults int, recency time.Duration) ([]*entity.Article, error)
}

// Deliverer sends a rendered message to a Telegram user.
type Deliverer interface {
	Send(ctx context.Context, userID int64, text string) error
}

// TopicLabeler resolves a topic string to a human-readable label.
// Topics that are not known category codes are displayed as-is.
type TopicLabeler interface {
	Label(code string) (string, bool)
}

// Config holds tuning parameters for the poll loop.
type Config struct {
	MaxResults       int           // Maximum articles fetched per topic search
	MinWindow        time.Duration // Floor for the recency window
	DriftBuffer      time.Duration // Overlap added on top of the elapsed time since the last tick
	InitialWindow    time.Duration // Recency window for the first tick after startup
	MaxHistory       int           // Ledger entries retained per user after pruning
	FetchConcurrency int           // Parallel topic searches per tick
	RenderOptions    render.Options
}

// DefaultConfig returns the poll configuration used when no overrides are set.
func DefaultConfig() Config {
	return Config{
		MaxResults:       100,
		MinWindow:        10 * time.Minute,
		DriftBuffer:      5 * time.Minute,
		InitialWindow:    time.Hour,
		MaxHistory:       1000,
		FetchConcurrency: 4,
		RenderOptions:    render.DefaultOptions(),
	}
}

// Service runs the poll-and-notify loop.
type Service struct {
	Subs     repository.SubscriptionRepository
	Ledger   repository.NotificationRepository
	Searcher Searcher
	Deliver  Deliverer
	Labeler  TopicLabeler
	cfg      Config

	running atomic.Bool

	mu       sync.Mutex
	lastTick time.Time

	now func() time.Time
}

// NewService creates a poll Service with the provided dependencies.
// Labeler may be nil, in which case topics are displayed verbatim.
func NewService(
	subs repository.SubscriptionRepository,
	ledger repository.NotificationRepository,
	searcher Searcher,
	deliverer Deliverer,
	labeler TopicLabeler,
	cfg Config,
) *Service {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 1
	}
	return &Service{
		Subs:     subs,
		Ledger:   ledger,
		Searcher: searcher,
		Deliver:  deliverer,
		Labeler:  labeler,
		cfg:      cfg,
		now:      time.Now,
	}
}

// TickStats contains statistics about one poll tick.
type TickStats struct {
	Users             int
	Topics            int
	TopicErrors       int
	ArticlesFetched   int64
	Delivered         int64
	SkippedDuplicates int64
	DeliveryErrors    int64
	PrunedRows        int64
	Duration          time.Duration
}

// RunTick executes one poll cycle:
//  1. Snapshot all subscriptions and group users by distinct topic
//  2. Search arXiv once per topic within the recency window
//  3. For each (article, subscriber) pair, skip if already in the ledger,
//     otherwise deliver and record the delivery
//  4. Prune every snapshotted user's ledger to the retention limit
//
// Ticks are serialized: if a previous tick is still running, RunTick returns
// ErrTickInProgress without doing any work. A topic search failure or a
// delivery failure never aborts the tick; it is logged, counted, and the
// remaining work proceeds.
func (s *Service) RunTick(ctx context.Context) (*TickStats, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrTickInProgress
	}
	defer s.running.Store(false)

	tickID := uuid.NewString()
	logger := logging.WithTickID(slog.Default(), tickID)
	start := s.now()
	recency := s.window(start)
	stats := &TickStats{}

	subs, err := s.Subs.ListAll(ctx)
	if err != nil {
		metrics.PollTicksTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("RunTick: list subscriptions: %w", err)
	}

	topicUsers, users := groupByTopic(subs)
	stats.Users = len(users)
	stats.Topics = len(topicUsers)
	metrics.SubscriptionsActive.Set(float64(len(subs)))

	if len(topicUsers) == 0 {
		s.setLastTick(start)
		stats.Duration = s.now().Sub(start)
		metrics.PollTicksTotal.WithLabelValues("skipped").Inc()
		logger.Info("poll tick skipped, no subscriptions")
		return stats, nil
	}

	logger.Info("poll tick started",
		slog.Int("users", stats.Users),
		slog.Int("topics", stats.Topics),
		slog.Duration("recency_window", recency),
	)

	results := s.fetchTopics(ctx, logger, topicUsers, recency, stats)

	// Fan-out is sequential so that a delivery recorded for one topic is
	// visible to the ledger check when the same article matches another
	// topic later in the same tick.
	topics := make([]string, 0, len(results))
	for topic := range results {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	for _, topic := range topics {
		if err := ctx.Err(); err != nil {
			metrics.PollTicksTotal.WithLabelValues("error").Inc()
			return stats, fmt.Errorf("RunTick: %w", err)
		}
		s.notifyTopic(ctx, logger, topic, results[topic], topicUsers[topic], stats)
	}

	s.pruneUsers(ctx, logger, users, stats)
	s.setLastTick(start)

	stats.Duration = s.now().Sub(start)
	status := "success"
	if stats.TopicErrors > 0 || stats.DeliveryErrors > 0 {
		status = "partial"
	}
	metrics.PollTicksTotal.WithLabelValues(status).Inc()
	metrics.PollTickDuration.Observe(stats.Duration.Seconds())

	logger.Info("poll tick completed",
		slog.String("status", status),
		slog.Int("topics", stats.Topics),
		slog.Int("topic_errors", stats.TopicErrors),
		slog.Int64("articles_fetched", stats.ArticlesFetched),
		slog.Int64("delivered", stats.Delivered),
		slog.Int64("skipped_duplicates", stats.SkippedDuplicates),
		slog.Int64("delivery_errors", stats.DeliveryErrors),
		slog.Int64("pruned_rows", stats.PrunedRows),
		slog.Duration("duration", stats.Duration),
	)

	return stats, nil
}

// window returns the recency cutoff for a tick starting at now. The window
// covers the time since the previous tick plus a drift buffer, floored at
// the configured minimum. The first tick after startup uses the initial
// window since there is no previous tick to measure from.
func (s *Service) window(now time.Time) time.Duration {
	s.mu.Lock()
	last := s.lastTick
	s.mu.Unlock()

	if last.IsZero() {
		if s.cfg.InitialWindow > s.cfg.MinWindow {
			return s.cfg.InitialWindow
		}
		return s.cfg.MinWindow
	}
	w := now.Sub(last) + s.cfg.DriftBuffer
	if w < s.cfg.MinWindow {
		return s.cfg.MinWindow
	}
	return w
}

func (s *Service) setLastTick(t time.Time) {
	s.mu.Lock()
	s.lastTick = t
	s.mu.Unlock()
}

// fetchTopics searches every distinct topic in parallel, bounded by the
// configured concurrency. A failed search is logged and counted but does
// not affect other topics.
func (s *Service) fetchTopics(
	ctx context.Context,
	logger *slog.Logger,
	topicUsers map[string][]int64,
	recency time.Duration,
	stats *TickStats,
) map[string][]*entity.Article {
	var mu sync.Mutex
	results := make(map[string][]*entity.Article, len(topicUsers))

	sem := make(chan struct{}, s.cfg.FetchConcurrency)
	eg, egCtx := errgroup.WithContext(ctx)

	for topic := range topicUsers {
		topic := topic
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			searchStart := s.now()
			articles, err := s.Searcher.Search(egCtx, topic, s.cfg.MaxResults, recency)
			searchDuration := s.now().Sub(searchStart)

			if err != nil {
				metrics.RecordTopicSearch("error", searchDuration)
				mu.Lock()
				stats.TopicErrors++
				mu.Unlock()
				logger.Warn("topic search failed",
					slog.String("topic", topic),
					slog.Any("error", err))
				return nil
			}

			metrics.RecordTopicSearch("success", searchDuration)
			metrics.ArticlesFetchedTotal.Add(float64(len(articles)))

			mu.Lock()
			stats.ArticlesFetched += int64(len(articles))
			results[topic] = articles
			mu.Unlock()

			if len(articles) > 0 {
				logger.Debug("topic search returned articles",
					slog.String("topic", topic),
					slog.Int("articles", len(articles)))
			}
			return nil
		})
	}

	// Goroutines only return nil; Wait is for completion, not errors.
	_ = eg.Wait()
	return results
}

// notifyTopic delivers every fetched article of one topic to every
// subscriber of that topic, skipping pairs already in the ledger.
// The ledger is written only after a successful delivery, so a failed
// send is retried on a later tick.
func (s *Service) notifyTopic(
	ctx context.Context,
	logger *slog.Logger,
	topic string,
	articles []*entity.Article,
	userIDs []int64,
	stats *TickStats,
) {
	if len(articles) == 0 {
		return
	}

	label := topic
	if s.Labeler != nil {
		if l, ok := s.Labeler.Label(topic); ok {
			label = l
		}
	}

	sorted := append([]int64(nil), userIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, article := range articles {
		for _, userID := range sorted {
			notified, err := s.Ledger.HasNotified(ctx, userID, article.ID)
			if err != nil {
				stats.DeliveryErrors++
				logger.Warn("ledger check failed",
					slog.Int64("user_id", userID),
					slog.String("article_id", article.ID),
					slog.Any("error", err))
				continue
			}
			if notified {
				stats.SkippedDuplicates++
				metrics.RecordNotification("skipped_duplicate", 0)
				continue
			}

			text := render.Alert(label, article, s.cfg.RenderOptions)

			sendStart := s.now()
			err = s.Deliver.Send(ctx, userID, text)
			sendDuration := s.now().Sub(sendStart)

			if err != nil {
				stats.DeliveryErrors++
				metrics.RecordNotification("failed", sendDuration)
				logger.Warn("notification delivery failed",
					slog.Int64("user_id", userID),
					slog.String("article_id", article.ID),
					slog.String("topic", topic),
					slog.Any("error", err))
				continue
			}

			stats.Delivered++
			metrics.RecordNotification("sent", sendDuration)

			if err := s.Ledger.Record(ctx, userID, article.ID); err != nil {
				// The message went out but the ledger write failed; the
				// user may see this article again next tick.
				logger.Warn("ledger record failed after delivery",
					slog.Int64("user_id", userID),
					slog.String("article_id", article.ID),
					slog.Any("error", err))
			}
		}
	}
}

// pruneUsers trims every snapshotted user's ledger down to the retention
// limit. Prune failures are logged and do not affect other users.
func (s *Service) pruneUsers(ctx context.Context, logger *slog.Logger, users []int64, stats *TickStats) {
	for _, userID := range users {
		deleted, err := s.Ledger.Prune(ctx, userID, s.cfg.MaxHistory)
		if err != nil {
			logger.Warn("ledger prune failed",
				slog.Int64("user_id", userID),
				slog.Any("error", err))
			continue
		}
		if deleted > 0 {
			stats.PrunedRows += deleted
			metrics.LedgerPrunedTotal.Add(float64(deleted))
			logger.Debug("ledger pruned",
				slog.Int64("user_id", userID),
				slog.Int64("deleted", deleted))
		}
	}
}

// groupByTopic builds the topic-to-subscribers index and the distinct user
// list from a subscription snapshot.
func groupByTopic(subs []*entity.Subscription) (map[string][]int64, []int64) {
	topicUsers := make(map[string][]int64)
	seen := make(map[int64]struct{})
	var users []int64

	for _, sub := range subs {
		topicUsers[sub.Topic] = append(topicUsers[sub.Topic], sub.UserID)
		if _, ok := seen[sub.UserID]; !ok {
			seen[sub.UserID] = struct{}{}
			users = append(users, sub.UserID)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return topicUsers, users
}
