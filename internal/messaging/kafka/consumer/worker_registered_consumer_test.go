package consumer_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go-idcard/internal/events"
	idcardMock "go-idcard/internal/idcard/mock"
	"go-idcard/internal/messaging/kafka/consumer"
	workererrors "go-idcard/internal/worker/errors"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

// fakeReader hands out queued messages and then blocks until ctx ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafkago.Message
	committed []int64
	drained   chan struct{}
}

func newFakeReader(msgs ...kafkago.Message) *fakeReader {
	return &fakeReader{queue: msgs, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	select {
	case <-r.drained:
	default:
		close(r.drained)
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func registered(t *testing.T, offset int64, workerID string) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(events.WorkerRegisteredEvent{
		EventType: events.WorkerRegisteredEventType,
		WorkerID:  workerID,
	})
	if err != nil {
		t.Fatal(err)
	}
	return kafkago.Message{Topic: events.WorkerRegisteredTopic, Offset: offset, Value: payload}
}

func run(t *testing.T, reader *fakeReader, cards *idcardMock.MockService) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		consumer.ConsumeWorkerRegistered(ctx, reader, cards, consumer.RetryPolicy{Attempts: 3}, zap.NewNop())
		close(done)
	}()

	select {
	case <-reader.drained:
	case <-time.After(time.Second):
		t.Fatal("consumer did not drain messages")
	}
	cancel()
	<-done
}

func TestConsumeWorkerRegistered(t *testing.T) {
	t.Run("prerenders and commits", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cards := idcardMock.NewMockService(ctrl)
		cards.EXPECT().Prerender(gomock.Any(), "JRCW1").Return("JRCW1/JRCW1_IDCard.pdf", nil)

		reader := newFakeReader(registered(t, 1, "JRCW1"))
		run(t, reader, cards)

		assert.Equal(t, []int64{1}, reader.committed)
	})

	t.Run("malformed payload is committed and skipped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cards := idcardMock.NewMockService(ctrl)

		reader := newFakeReader(kafkago.Message{Offset: 7, Value: []byte("{not json")})
		run(t, reader, cards)

		assert.Equal(t, []int64{7}, reader.committed)
	})

	t.Run("deleted worker is committed and skipped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cards := idcardMock.NewMockService(ctrl)
		cards.EXPECT().Prerender(gomock.Any(), "JRCW2").Return("", workererrors.ErrWorkerNotFound)

		reader := newFakeReader(registered(t, 2, "JRCW2"))
		run(t, reader, cards)

		assert.Equal(t, []int64{2}, reader.committed)
	})

	t.Run("render failure is retried in place", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cards := idcardMock.NewMockService(ctrl)
		gomock.InOrder(
			cards.EXPECT().Prerender(gomock.Any(), "JRCW3").Return("", errors.New("disk full")).Times(2),
			cards.EXPECT().Prerender(gomock.Any(), "JRCW3").Return("JRCW3/JRCW3_IDCard.pdf", nil),
			cards.EXPECT().Prerender(gomock.Any(), "JRCW4").Return("JRCW4/JRCW4_IDCard.pdf", nil),
		)

		reader := newFakeReader(registered(t, 3, "JRCW3"), registered(t, 4, "JRCW4"))
		run(t, reader, cards)

		assert.Equal(t, []int64{3, 4}, reader.committed)
	})

	t.Run("exhausted retries commit and move on", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cards := idcardMock.NewMockService(ctrl)
		gomock.InOrder(
			cards.EXPECT().Prerender(gomock.Any(), "JRCW5").Return("", errors.New("disk full")).Times(3),
			cards.EXPECT().Prerender(gomock.Any(), "JRCW6").Return("JRCW6/JRCW6_IDCard.pdf", nil),
		)

		reader := newFakeReader(registered(t, 5, "JRCW5"), registered(t, 6, "JRCW6"))
		run(t, reader, cards)

		assert.Equal(t, []int64{5, 6}, reader.committed)
	})

	t.Run("shutdown during backoff leaves offset uncommitted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cards := idcardMock.NewMockService(ctrl)
		failed := make(chan struct{})
		cards.EXPECT().Prerender(gomock.Any(), "JRCW7").DoAndReturn(func(context.Context, string) (string, error) {
			close(failed)
			return "", errors.New("disk full")
		})

		ctx, cancel := context.WithCancel(context.Background())
		reader := newFakeReader(registered(t, 7, "JRCW7"))
		done := make(chan struct{})
		go func() {
			consumer.ConsumeWorkerRegistered(ctx, reader, cards,
				consumer.RetryPolicy{Attempts: 3, Backoff: time.Hour}, zap.NewNop())
			close(done)
		}()

		select {
		case <-failed:
		case <-time.After(time.Second):
			t.Fatal("first render attempt not made")
		}
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("consumer did not stop during backoff")
		}
		assert.Empty(t, reader.committed)
	})
}
