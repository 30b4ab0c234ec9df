package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"go-idcard/internal/config"
	"go-idcard/internal/events"
	"go-idcard/internal/idcard"
	"go-idcard/internal/messaging/kafka/consumer"
	"go-idcard/internal/shared/connection"
	"go-idcard/internal/storage"
	"go-idcard/internal/worker"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer pre-renders ID cards for newly registered workers until
// SIGINT or SIGTERM.
func RunConsumer(cfg *config.AppConfig) error {
	logger := zap.L().Named("app.consumer")

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

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return err
	}
	idcardService := idcard.NewService(worker.NewRepository(gormDB), store, logger)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.Kafka.Broker},
		Topic:          events.WorkerRegisteredTopic,
		GroupID:        cfg.Kafka.GroupID,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer.ConsumeWorkerRegistered(ctx, reader, idcardService, consumer.DefaultRetry, logger)

	logger.Info("consumer shutting down")
	return nil
}
