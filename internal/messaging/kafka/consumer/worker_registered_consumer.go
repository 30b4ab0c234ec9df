package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-idcard/internal/events"
	"go-idcard/internal/idcard"
	workererrors "go-idcard/internal/worker/errors"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafkago.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// RetryPolicy bounds how often a failed pre-render is retried before the
// message is committed anyway. Backoff doubles after each attempt.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

var DefaultRetry = RetryPolicy{Attempts: 3, Backoff: 500 * time.Millisecond}

// ConsumeWorkerRegistered pre-renders the ID card of every newly registered
// worker so downloads do not render on the request path.
//
// kafka-go commits offsets, not messages, so a message left uncommitted is
// skipped by the next commit. Render failures are therefore retried in place.
// A card that still fails is rendered on demand at download time.
func ConsumeWorkerRegistered(
	ctx context.Context,
	reader MessageReader,
	cards idcard.Service,
	retry RetryPolicy,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.worker_registered")
	log.Info("worker registered consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker registered consumer stopped")
				return
			}
			log.Error("fetch worker registered message failed", zap.Error(err))
			continue
		}

		handleWorkerRegistered(ctx, reader, cards, retry, msg, log)
	}
}

func handleWorkerRegistered(
	ctx context.Context,
	reader MessageReader,
	cards idcard.Service,
	retry RetryPolicy,
	msg kafkago.Message,
	log *zap.Logger,
) {
	var event events.WorkerRegisteredEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil || event.WorkerID == "" {
		log.Error("decode worker_registered event failed",
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		commit(ctx, reader, msg, log)
		return
	}

	key, err := prerender(ctx, cards, retry, event, log)
	if err != nil {
		switch {
		case errors.Is(err, workererrors.ErrWorkerNotFound):
			log.Warn("worker deleted before card render, skipping",
				zap.String("worker_id", event.WorkerID),
			)
		case ctx.Err() != nil:
			// Shutting down mid-retry. The uncommitted message is redelivered.
			return
		default:
			log.Error("pre-render id card failed, giving up",
				zap.String("worker_id", event.WorkerID),
				zap.String("request_id", event.RequestID),
				zap.Int("attempts", retry.Attempts),
				zap.Error(err),
			)
		}
		commit(ctx, reader, msg, log)
		return
	}

	commit(ctx, reader, msg, log)
	log.Info("id card pre-rendered from worker_registered event",
		zap.String("worker_id", event.WorkerID),
		zap.String("key", key),
	)
}

func prerender(
	ctx context.Context,
	cards idcard.Service,
	retry RetryPolicy,
	event events.WorkerRegisteredEvent,
	log *zap.Logger,
) (string, error) {
	attempts := max(retry.Attempts, 1)
	wait := retry.Backoff

	for attempt := 1; ; attempt++ {
		key, err := cards.Prerender(ctx, event.WorkerID)
		if err == nil || errors.Is(err, workererrors.ErrWorkerNotFound) || attempt == attempts {
			return key, err
		}

		log.Warn("pre-render id card failed, retrying",
			zap.String("worker_id", event.WorkerID),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func commit(ctx context.Context, reader MessageReader, msg kafkago.Message, log *zap.Logger) {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		log.Error("commit worker registered message failed", zap.Error(err))
	}
}
