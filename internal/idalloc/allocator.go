package idalloc

import (
	"context"
	"net/http"

	"go-idcard/internal/shared/apperror"
	"go-idcard/internal/shared/counter"

	"go.uber.org/zap"
)

var ErrAllocation = apperror.New(
	apperror.CodeInternalError,
	"Failed to allocate worker ID",
	http.StatusInternalServerError,
)

//go:generate mockgen -source=allocator.go -destination=mock/allocator_mock.go -package=mock
type Allocator interface {
	AllocateNext(ctx context.Context) (string, error)
	PeekNext(ctx context.Context) (string, error)
}

type allocator struct {
	prefix  string
	counter counter.Repository
	logger  *zap.Logger
}

func NewAllocator(prefix string, counterRepo counter.Repository, logger ...*zap.Logger) Allocator {
	l := zap.L().Named("idalloc.allocator")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("idalloc.allocator")
	}
	return &allocator{prefix: prefix, counter: counterRepo, logger: l}
}

func (a *allocator) AllocateNext(ctx context.Context) (string, error) {
	n, err := a.counter.NextValue(ctx, a.prefix)
	if err != nil {
		a.logger.Error("allocate worker id failed", zap.String("prefix", a.prefix), zap.Error(err))
		return "", ErrAllocation.WithCause(err)
	}

	id := Format(a.prefix, n)
	a.logger.Info("worker id allocated", zap.String("worker_id", id))
	return id, nil
}

func (a *allocator) PeekNext(ctx context.Context) (string, error) {
	n, err := a.counter.PeekValue(ctx, a.prefix)
	if err != nil {
		a.logger.Error("peek worker id failed", zap.String("prefix", a.prefix), zap.Error(err))
		return "", ErrAllocation.WithCause(err)
	}
	return Format(a.prefix, n), nil
}
