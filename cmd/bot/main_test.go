package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxiv-notifier/internal/domain/entity"
	workerPkg "arxiv-notifier/internal/infra/worker"
	"arxiv-notifier/internal/render"
	"arxiv-notifier/internal/usecase/poll"
)

// Worker metrics register globally via promauto, so the test binary creates
// them once.
var testWorkerMetrics = workerPkg.NewMetrics()

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixedSubs struct {
	subs []*entity.Subscription
}

func (r *fixedSubs) Add(ctx context.Context, userID int64, topic string) error    { return nil }
func (r *fixedSubs) Remove(ctx context.Context, userID int64, topic string) error { return nil }
func (r *fixedSubs) ListTopics(ctx context.Context, userID int64) ([]string, error) {
	return nil, nil
}
func (r *fixedSubs) ListAll(ctx context.Context) ([]*entity.Subscription, error) {
	return r.subs, nil
}

type memLedger struct {
	recorded map[string]bool
}

func (l *memLedger) HasNotified(ctx context.Context, userID int64, articleID string) (bool, error) {
	return l.recorded[articleID], nil
}

func (l *memLedger) Record(ctx context.Context, userID int64, articleID string) error {
	l.recorded[articleID] = true
	return nil
}

func (l *memLedger) Prune(ctx context.Context, userID int64, maxHistory int) (int64, error) {
	return 0, nil
}

type fixedSearcher struct {
	articles []*entity.Article
}

func (s *fixedSearcher) Search(ctx context.Context, topic string, maxResults int, recency time.Duration) ([]*entity.Article, error) {
	return s.articles, nil
}

// blockingDeliverer parks the tick inside Send until released, recording
// whether the delivery context was cancelled underneath it.
type blockingDeliverer struct {
	entered chan struct{}
	release chan struct{}
	sendErr error
}

func (d *blockingDeliverer) Send(ctx context.Context, userID int64, text string) error {
	close(d.entered)
	select {
	case <-d.release:
	case <-ctx.Done():
		d.sendErr = ctx.Err()
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		d.sendErr = err
		return err
	}
	return nil
}

func TestScheduler_ShutdownLetsInFlightTickFinish(t *testing.T) {
	// The shutdown signal context and the tick context are independent.
	signalCtx, stop := context.WithCancel(context.Background())
	tickCtx, cancelTicks := context.WithCancel(context.Background())
	defer cancelTicks()

	deliver := &blockingDeliverer{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	ledger := &memLedger{recorded: make(map[string]bool)}
	svc := poll.NewService(
		&fixedSubs{subs: []*entity.Subscription{{UserID: 1, Topic: "cs.ai"}}},
		ledger,
		&fixedSearcher{articles: []*entity.Article{{
			ID:          "2401.00001v1",
			Title:       "A Paper",
			Link:        "http://arxiv.org/abs/2401.00001v1",
			PublishedAt: time.Now(),
		}}},
		deliver,
		nil,
		poll.Config{
			MaxResults:       10,
			MinWindow:        time.Minute,
			DriftBuffer:      time.Minute,
			InitialWindow:    time.Hour,
			MaxHistory:       10,
			FetchConcurrency: 1,
			RenderOptions:    render.DefaultOptions(),
		},
	)

	// One-hour interval: only the immediate startup tick fires during the test.
	cfg := workerPkg.DefaultConfig()
	scheduler, firstTickDone := startScheduler(tickCtx, testLogger(), svc, &cfg, testWorkerMetrics)

	select {
	case <-deliver.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("startup tick never reached delivery")
	}

	// Shutdown arrives mid-delivery. The tick must not observe it.
	stop()
	<-signalCtx.Done()

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	select {
	case <-firstTickDone:
		t.Fatal("tick reported done while delivery was still blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(deliver.release)

	select {
	case <-firstTickDone:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight tick did not run to completion")
	}
	cancelTicks()

	require.NoError(t, deliver.sendErr, "delivery saw a cancelled context during shutdown")
	assert.True(t, ledger.recorded["2401.00001v1"], "completed delivery must be recorded")
}
