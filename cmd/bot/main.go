package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"arxiv-notifier/internal/bot"
	"arxiv-notifier/internal/infra/adapter/persistence/postgres"
	"arxiv-notifier/internal/infra/arxiv"
	"arxiv-notifier/internal/infra/db"
	"arxiv-notifier/internal/infra/telegram"
	workerPkg "arxiv-notifier/internal/infra/worker"
	"arxiv-notifier/internal/observability/logging"
	"arxiv-notifier/internal/render"
	"arxiv-notifier/internal/usecase/poll"
	"arxiv-notifier/internal/usecase/subscription"
)

func main() {
	// Best-effort .env load for local development; in production the
	// environment is set by the deployment.
	_ = godotenv.Load()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Poll ticks run under their own context, not the signal-bound one, so a
	// shutdown signal lets an in-flight tick finish instead of cancelling it
	// mid-delivery. It is cancelled only after the cron stop-wait returns.
	tickCtx, cancelTicks := context.WithCancel(context.Background())
	defer cancelTicks()

	workerMetrics := workerPkg.NewMetrics()
	cfg, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.Duration("poll_interval", cfg.PollInterval),
		slog.String("timezone", cfg.Timezone),
		slog.Int("poll_max_results", cfg.PollMaxResults),
		slog.Int("max_notification_history", cfg.MaxNotificationHistory),
		slog.Int("health_port", cfg.HealthPort))

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		logger.Error("TELEGRAM_BOT_TOKEN is required")
		os.Exit(1)
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("failed to initialize Telegram client", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("authorized on Telegram", slog.String("username", api.Self.UserName))

	taxonomy, err := arxiv.LoadTaxonomy()
	if err != nil {
		logger.Error("failed to load category taxonomy", slog.Any("error", err))
		os.Exit(1)
	}

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", cfg.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	renderOpts := render.Options{
		MaxAuthors:  cfg.MaxAuthorsDisplay,
		MaxAbstract: cfg.MaxAbstractLength,
	}

	subsRepo := postgres.NewSubscriptionRepo(database)
	ledgerRepo := postgres.NewNotificationRepo(database)
	subsService := subscription.NewService(subsRepo)

	arxivClient := arxiv.NewClient(createHTTPClient(), taxonomy)
	sender := telegram.NewSender(api, cfg.EnableLinkPreview)

	pollService := poll.NewService(subsRepo, ledgerRepo, arxivClient, sender, taxonomy, poll.Config{
		MaxResults:       cfg.PollMaxResults,
		MinWindow:        cfg.PollMinWindow,
		DriftBuffer:      cfg.PollDriftBuffer,
		InitialWindow:    cfg.PollInitialWindow,
		MaxHistory:       cfg.MaxNotificationHistory,
		FetchConcurrency: 4,
		RenderOptions:    renderOpts,
	})

	router := bot.NewRouter(api, subsService, arxivClient, taxonomy, bot.Config{
		TestSearchWindow:  cfg.TestSearchWindow,
		TestMaxResults:    cfg.TestMaxResults,
		EnableLinkPreview: cfg.EnableLinkPreview,
		RenderOptions:     renderOpts,
	}, logger)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	go router.Run(ctx, updates)
	logger.Info("update loop started")

	scheduler, firstTickDone := startScheduler(tickCtx, logger, pollService, cfg, workerMetrics)

	healthServer.SetReady(true)
	logger.Info("bot started", slog.Duration("poll_interval", cfg.PollInterval))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)
	api.StopReceivingUpdates()

	// Stop the scheduler and let an in-flight tick run to completion before
	// its context goes away. The startup tick runs outside cron's tracking,
	// so it is waited on separately.
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	<-firstTickDone
	cancelTicks()
	logger.Info("shutdown complete")
}

// initDatabase opens the database and applies the schema migrations.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// createHTTPClient creates the HTTP client used for arXiv API calls.
// TLS 1.2+ is enforced.
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// startScheduler starts the cron scheduler driving the poll loop and fires
// one immediate tick so subscribers are not left waiting a full interval
// after a restart. The returned channel closes when that startup tick
// finishes; shutdown waits on it alongside the cron stop context.
func startScheduler(
	ctx context.Context,
	logger *slog.Logger,
	svc *poll.Service,
	cfg *workerPkg.Config,
	metrics *workerPkg.Metrics,
) (*cron.Cron, <-chan struct{}) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	spec := fmt.Sprintf("@every %s", cfg.PollInterval)
	if _, err := c.AddFunc(spec, func() {
		runPollJob(ctx, logger, svc, metrics)
	}); err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	firstTickDone := make(chan struct{})
	go func() {
		defer close(firstTickDone)
		runPollJob(ctx, logger, svc, metrics)
	}()

	logger.Info("scheduler started", slog.String("spec", spec), slog.String("timezone", cfg.Timezone))
	return c, firstTickDone
}

// runPollJob executes one scheduled poll tick with metrics and logging.
func runPollJob(ctx context.Context, logger *slog.Logger, svc *poll.Service, metrics *workerPkg.Metrics) {
	start := time.Now()
	logger.Info("poll job started")

	stats, err := svc.RunTick(ctx)
	if err != nil {
		if errors.Is(err, poll.ErrTickInProgress) {
			logger.Warn("poll job skipped, previous tick still running")
			return
		}
		logger.Error("poll job failed", slog.Any("error", err))
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(time.Since(start))
		return
	}

	metrics.RecordJobRun("success")
	metrics.RecordJobDuration(time.Since(start))
	metrics.RecordTopicsProcessed(stats.Topics)
	metrics.RecordLastSuccess()

	logger.Info("poll job completed",
		slog.Int("topics", stats.Topics),
		slog.Int64("delivered", stats.Delivered),
		slog.Int64("skipped_duplicates", stats.SkippedDuplicates),
		slog.Int64("delivery_errors", stats.DeliveryErrors),
		slog.Duration("duration", stats.Duration),
	)
}
