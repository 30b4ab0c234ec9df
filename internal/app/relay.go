package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go-idcard/internal/config"
	"go-idcard/internal/messaging/kafka"
	"go-idcard/internal/messaging/kafka/producer"
	"go-idcard/internal/metrics"
	"go-idcard/internal/shared/connection"
	"go-idcard/internal/storage"
	"go-idcard/internal/sweep"
	"go-idcard/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	outboxPollInterval  = 3 * time.Second
	outboxPurgeInterval = time.Hour
)

// RunRelay publishes outbox rows to Kafka and sweeps orphaned storage
// namespaces until SIGINT or SIGTERM.
func RunRelay(cfg *config.AppConfig) error {
	logger := zap.L().Named("app.relay")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database, connectRetries)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.Kafka.Broker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.Kafka.Broker, connectRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return err
	}

	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	sweeper := sweep.New(
		worker.NewRepository(gormDB),
		store,
		metrics.New(prometheus.DefaultRegisterer),
		cfg.Worker.IDPrefix,
		cfg.Sweep.MinAge,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		producer.ProcessOutboxEvents(gctx, outboxRepo, kafkaWriter, logger, outboxPollInterval)
		return nil
	})
	g.Go(func() error {
		producer.PurgeSentEvents(gctx, outboxRepo, logger, outboxPurgeInterval, producer.SentRetention)
		return nil
	})
	g.Go(func() error {
		sweeper.Run(gctx, cfg.Sweep.Interval)
		return nil
	})

	err = g.Wait()
	logger.Info("relay shutting down")
	return err
}
