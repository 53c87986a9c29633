package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/elections/balloting"
	ballotingmetrics "agora/contexts/elections/balloting/adapters/metrics"
	ballotingpostgres "agora/contexts/elections/balloting/adapters/postgres"
	"agora/contexts/elections/balloting/adapters/token"
	ballotingports "agora/contexts/elections/balloting/ports"
	"agora/contexts/elections/timeline"
	timelinememory "agora/contexts/elections/timeline/adapters/memory"
	timelinepostgres "agora/contexts/elections/timeline/adapters/postgres"
	timelineredis "agora/contexts/elections/timeline/adapters/redis"
	timelineports "agora/contexts/elections/timeline/ports"
	"agora/internal/platform/config"
	"agora/internal/platform/db"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/messaging"
	platformredis "agora/internal/platform/redis"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const shutdownTimeout = 10 * time.Second

type APIApp struct {
	server   *httpserver.Server
	timeline timeline.Module
	postgres *db.Postgres
	redis    *platformredis.Client
	poll     time.Duration
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	kafka        *messaging.Kafka
	balloting    balloting.Module
	cfg          config.Config
	pollInterval time.Duration
	logger       *slog.Logger
}

// modules holds the wiring shared by the API and worker processes.
type modules struct {
	timeline  timeline.Module
	balloting balloting.Module
	postgres  *db.Postgres
	redis     *platformredis.Client
}

func buildModules(ctx context.Context, cfg config.Config, logger *slog.Logger) (modules, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return modules{}, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return modules{}, err
	}

	stageRepo := timelinepostgres.NewRepository(pg.DB, logger)
	ballotRepo := ballotingpostgres.NewRepository(pg.DB, logger)
	if cfg.AutoMigrate {
		if err := stageRepo.Migrate(ctx); err != nil {
			_ = pg.Close()
			return modules{}, err
		}
		if err := ballotRepo.Migrate(ctx); err != nil {
			_ = pg.Close()
			return modules{}, err
		}
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		_ = pg.Close()
		return modules{}, err
	}

	notifier, subscriber := stageChangeFeed(redisClient, cfg.StageChangeChannel, logger)
	timelineModule := timeline.NewModule(timeline.Dependencies{
		Stages:          stageRepo,
		Notifier:        notifier,
		Subscriber:      subscriber,
		Clock:           timelinepostgres.SystemClock{},
		RefreshInterval: cfg.TimelineRefreshInterval,
		Logger:          logger,
	})

	gate := newTimelineGate(timelineModule.Status)
	ballotingModule := balloting.NewModule(balloting.Dependencies{
		Voters:         ballotRepo,
		Catalog:        ballotRepo,
		Ballots:        ballotRepo,
		Tallies:        ballotRepo,
		Audit:          ballotRepo,
		Reconciliation: ballotRepo,
		Eligibility:    gate,
		Phase:          gate,
		Outbox:         ballotRepo,
		OutboxStore:    ballotRepo,
		Tokens:         token.Generator{},
		IDGen:          ballotingpostgres.UUIDGenerator{},
		Clock:          ballotingpostgres.SystemClock{},
		Metrics:        ballotingmetrics.New(prometheus.DefaultRegisterer),
		SubmitTimeout:  cfg.VoteSubmitTimeout,
		GracePeriod:    cfg.AnomalyGracePeriod,
		TopicPrefix:    cfg.KafkaTopic,
		Logger:         logger,
	})

	return modules{
		timeline:  timelineModule,
		balloting: ballotingModule,
		postgres:  pg,
		redis:     redisClient,
	}, nil
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	mods, err := buildModules(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(mods.timeline, mods.balloting, logger, normalizeAddr(cfg.HTTPPort)).
		WithHealthCheck("postgres", mods.postgres.Health)
	if mods.redis != nil {
		server.WithHealthCheck("redis", mods.redis.Health)
	}
	return &APIApp{
		server:   server,
		timeline: mods.timeline,
		postgres: mods.postgres,
		redis:    mods.redis,
		poll:     cfg.TimelineRefreshInterval,
		logger:   logger,
	}, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	mods, err := buildModules(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app := &WorkerApp{
		postgres:     mods.postgres,
		balloting:    mods.balloting,
		cfg:          cfg,
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}
	if mods.redis != nil {
		_ = mods.redis.Close()
	}
	if cfg.EnableOutboxRelay {
		publisher, kafka, err := outboxPublisher(cfg.KafkaBrokers, logger)
		if err != nil {
			_ = mods.postgres.Close()
			return nil, err
		}
		app.kafka = kafka
		app.balloting.OutboxRelay.Publisher = publisher
	}
	return app, nil
}

// stageChangeFeed picks the Redis channel when Redis is configured. Without
// it, stage writes still invalidate this process's snapshot through the
// in-process feed; other processes catch up on the periodic refresh.
func stageChangeFeed(
	client *platformredis.Client,
	channel string,
	logger *slog.Logger,
) (timelineports.ChangeNotifier, timelineports.ChangeSubscriber) {
	if client != nil {
		feed := timelineredis.NewNotifier(client.Client, channel, logger)
		return feed, feed
	}
	logger.Warn("no redis configured, stage changes stay in process",
		"event", "bootstrap_stage_feed_in_process",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	feed := timelinememory.NewFeed()
	return feed, feed
}

// outboxPublisher returns the Kafka producer, or the in-process bus when no
// brokers are configured.
func outboxPublisher(
	brokers []string,
	logger *slog.Logger,
) (ballotingports.EventPublisher, *messaging.Kafka, error) {
	if len(brokers) == 0 {
		logger.Warn("no kafka brokers configured, relaying outbox to the in-process bus",
			"event", "bootstrap_outbox_in_process",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		return messaging.NewBus(logger), nil, nil
	}
	kafka, err := messaging.NewKafka(brokers, logger)
	if err != nil {
		return nil, nil, err
	}
	return kafka, kafka, nil
}

// Run serves HTTP, keeps the stage change subscription open and refreshes
// the timeline snapshot as a fallback for missed notifications.
func (a *APIApp) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if err := a.timeline.Consumer.Start(gctx); err != nil {
		a.logger.Warn("stage change subscription failed, relying on periodic refresh",
			"event", "bootstrap_stage_change_subscription_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
	if a.poll > 0 {
		g.Go(func() error {
			return runLoop(gctx, a.logger, a.poll, a.timeline.Refresher.RunOnce)
		})
	}
	g.Go(a.server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return g.Wait()
}

func (a *APIApp) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}

// Run drives each enabled balloting worker on its own ticker. A failed cycle
// is logged and retried on the next tick.
func (w *WorkerApp) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	if w.cfg.EnableTallyReconciler {
		g.Go(func() error {
			return runLoop(gctx, w.logger, w.pollInterval, w.balloting.TallyReconciler.RunOnce)
		})
	}
	if w.cfg.EnableAnomalyScanner {
		g.Go(func() error {
			return runLoop(gctx, w.logger, w.pollInterval, w.balloting.AnomalyScanner.RunOnce)
		})
	}
	if w.cfg.EnableOutboxRelay && w.balloting.OutboxRelay.Publisher != nil {
		g.Go(func() error {
			return runLoop(gctx, w.logger, w.pollInterval, w.balloting.OutboxRelay.RunOnce)
		})
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"tally_reconciler", w.cfg.EnableTallyReconciler,
		"anomaly_scanner", w.cfg.EnableAnomalyScanner,
		"outbox_relay", w.cfg.EnableOutboxRelay,
	)
	return g.Wait()
}

func (w *WorkerApp) Close() error {
	if w.kafka != nil {
		w.kafka.Close()
	}
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// runLoop calls fn immediately and then on every tick until ctx is done.
func runLoop(ctx context.Context, logger *slog.Logger, interval time.Duration, fn func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("worker cycle failed",
				"event", "bootstrap_worker_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
