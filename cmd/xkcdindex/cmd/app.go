package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/ingestion/syncer"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/storage"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/database"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/lock"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/resilience"
)

// app holds everything a run needs. Fields are set in openApp and released
// in reverse order by close.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *database.Client
	store     *storage.Store
	metrics   *metrics.Metrics
	producer  *kafka.Producer
	publisher *publisher.Publisher
	closers   []func() error
}

// openApp loads configuration, opens the store and ensures its schema. With
// exclusive set it also takes the run lock and prepares event publishing.
func openApp(cmd *cobra.Command, exclusive bool) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	a := &app{
		cfg:     cfg,
		logger:  logger.WithComponent("xkcdindex"),
		metrics: metrics.New(),
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	a.store = storage.New(db, logger.WithComponent("storage"))

	if err := a.store.EnsureSchema(cmd.Context()); err != nil {
		a.close()
		return nil, err
	}
	if !exclusive {
		return a, nil
	}

	release, err := a.acquireLock(cmd.Context())
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, release)
	a.closers = append(a.closers, a.flushMetrics)

	if cfg.Kafka.Enabled {
		a.producer = kafka.NewProducer(cfg.Kafka, logger.WithComponent("kafka-producer"))
		a.closers = append(a.closers, a.producer.Close)
		a.publisher = publisher.New(a.producer, cfg.Kafka.Topics, logger.WithComponent("publisher"))
	}

	a.logger.Info("store ready",
		"driver", cfg.Database.Driver,
		"lock", cfg.Lock.Backend,
		"events", cfg.Kafka.Enabled,
	)
	return a, nil
}

func (a *app) acquireLock(ctx context.Context) (func() error, error) {
	var locker lock.Locker
	switch a.cfg.Lock.Backend {
	case "file":
		locker = lock.NewFileLock(a.cfg.Lock.Path)
	case "redis":
		client, err := redis.NewClient(a.cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		locker = lock.NewRedisLock(client, a.cfg.Lock.Key, a.cfg.Lock.TTL)
	default:
		locker = lock.Nop{}
	}
	release, err := locker.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}
	return release, nil
}

func (a *app) synchronize(ctx context.Context) {
	s := syncer.New(source.NewClient(a.cfg.Source), a.store, syncer.Options{
		Retry:            a.retryConfig(),
		FallbackFrontier: a.cfg.Sync.FallbackFrontier,
		KnownBad:         a.cfg.Sync.KnownBad,
		Publisher:        a.publisher,
		Metrics:          a.metrics,
		Logger:           logger.WithComponent("syncer"),
	})
	if _, err := s.Synchronize(ctx); err != nil {
		a.logger.Error("synchronization failed", "error", err)
	}
}

func (a *app) updateIndex(ctx context.Context) {
	e := indexer.NewEngine(a.store, indexer.Options{
		Publisher: a.publisher,
		Metrics:   a.metrics,
		Logger:    logger.WithComponent("indexer"),
	})
	if _, err := e.UpdateIndex(ctx); err != nil {
		a.logger.Error("index update failed", "error", err)
	}
}

func (a *app) retryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:  a.cfg.Sync.MaxAttempts,
		InitialDelay: a.cfg.Sync.InitialDelay,
		MaxDelay:     a.cfg.Sync.MaxDelay,
		Logger:       logger.WithComponent("retry"),
	}
}

// flushMetrics writes run metrics to whichever sinks are configured. Sink
// failures are logged only.
func (a *app) flushMetrics() error {
	if path := a.cfg.Metrics.TextfilePath; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			a.logger.Warn("metrics textfile not written", "error", err)
		}
	}
	if url := a.cfg.Metrics.PushgatewayURL; url != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.metrics.Push(ctx, url, a.cfg.Metrics.Job); err != nil {
			a.logger.Warn("metrics push failed", "error", err)
		}
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("shutdown step failed", "error", err)
		}
	}
	a.closers = nil
}
