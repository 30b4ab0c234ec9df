package producer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-idcard/internal/messaging/kafka"
	kafkaMock "go-idcard/internal/messaging/kafka/mock"
	"go-idcard/internal/messaging/kafka/producer"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu      sync.Mutex
	written []kafkago.Message
	failFor map[string]error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range msgs {
		if err, ok := w.failFor[string(m.Key)]; ok {
			return err
		}
		w.written = append(w.written, m)
	}
	return nil
}

func header(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func pending(id, aggregateID, requestID string) kafka.OutboxEvent {
	return kafka.OutboxEvent{
		ID:            id,
		RequestID:     requestID,
		AggregateType: "worker",
		AggregateID:   aggregateID,
		EventType:     "worker_registered",
		Topic:         "idcard.worker.registered.v1",
		Payload:       []byte(`{"worker_id":"` + aggregateID + `"}`),
	}
}

func TestProcessPendingEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes batch and marks sent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{}

		repo.EXPECT().ClaimPending(ctx, 50, kafka.DefaultClaimLease).Return([]kafka.OutboxEvent{
			pending("o-1", "JRCW1", "req-1"),
			pending("o-2", "JRCW2", ""),
		}, nil)
		repo.EXPECT().MarkSent(ctx, "o-1").Return(nil)
		repo.EXPECT().MarkSent(ctx, "o-2").Return(nil)

		sent, err := producer.ProcessPendingEvents(ctx, repo, writer, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 2, sent)

		require.Len(t, writer.written, 2)
		first := writer.written[0]
		assert.Equal(t, "idcard.worker.registered.v1", first.Topic)
		assert.Equal(t, "JRCW1", string(first.Key))
		assert.Equal(t, "worker_registered", header(first, "event_type"))
		assert.Equal(t, "o-1", header(first, "outbox_id"))
		assert.Equal(t, "req-1", header(first, "request_id"))
		assert.Empty(t, header(writer.written[1], "request_id"))
	})

	t.Run("failed publish is marked for retry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{failFor: map[string]error{"JRCW1": errors.New("broker down")}}

		repo.EXPECT().ClaimPending(ctx, 50, kafka.DefaultClaimLease).Return([]kafka.OutboxEvent{
			pending("o-1", "JRCW1", ""),
			pending("o-2", "JRCW2", ""),
		}, nil)
		repo.EXPECT().MarkFailed(ctx, "o-1", "broker down").Return(nil)
		repo.EXPECT().MarkSent(ctx, "o-2").Return(nil)

		sent, err := producer.ProcessPendingEvents(ctx, repo, writer, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
	})

	t.Run("empty batch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)

		repo.EXPECT().ClaimPending(ctx, 50, kafka.DefaultClaimLease).Return(nil, nil)

		sent, err := producer.ProcessPendingEvents(ctx, repo, &fakeWriter{}, zap.NewNop())
		require.NoError(t, err)
		assert.Zero(t, sent)
	})

	t.Run("list error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)

		repo.EXPECT().ClaimPending(ctx, 50, kafka.DefaultClaimLease).Return(nil, errors.New("db down"))

		_, err := producer.ProcessPendingEvents(ctx, repo, &fakeWriter{}, zap.NewNop())
		assert.EqualError(t, err, "db down")
	})
}

func TestProcessOutboxEvents_StopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := kafkaMock.NewMockOutboxRepository(ctrl)
	repo.EXPECT().ClaimPending(gomock.Any(), 50, kafka.DefaultClaimLease).Return(nil, nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		producer.ProcessOutboxEvents(ctx, repo, &fakeWriter{}, zap.NewNop(), 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop after cancel")
	}
}

func TestPurgeSentEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := kafkaMock.NewMockOutboxRepository(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	repo.EXPECT().PurgeSent(gomock.Any(), time.Hour).DoAndReturn(
		func(context.Context, time.Duration) (int64, error) {
			cancel()
			return 3, nil
		},
	)

	done := make(chan struct{})
	go func() {
		producer.PurgeSentEvents(ctx, repo, zap.NewNop(), 5*time.Millisecond, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("purge loop did not stop")
	}
}
