package idcard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go-idcard/internal/document"
	"go-idcard/internal/shared/apperror"
	"go-idcard/internal/storage"
	"go-idcard/internal/worker"
	workererrors "go-idcard/internal/worker/errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DisplayDateLayout = "02 Jan 2006"

var ErrRender = apperror.New(
	apperror.CodeInternalError,
	"Failed to render ID card",
	http.StatusInternalServerError,
)

//go:generate mockgen -source=idcard_service.go -destination=mock/idcard_service_mock.go -package=mock
type Service interface {
	View(ctx context.Context, workerID string) (CardView, error)
	// PDF serves the pre-rendered card when there is one and renders on demand otherwise.
	PDF(ctx context.Context, workerID string) ([]byte, error)
	// Prerender renders the card and stores it under the worker namespace.
	Prerender(ctx context.Context, workerID string) (string, error)
}

type service struct {
	repo   worker.Repository
	store  storage.Storage
	logger *zap.Logger
}

func NewService(repo worker.Repository, store storage.Storage, logger ...*zap.Logger) Service {
	l := zap.L().Named("idcard.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("idcard.service")
	}
	return &service{repo: repo, store: store, logger: l}
}

func (s *service) load(ctx context.Context, workerID string) (*worker.Worker, error) {
	w, err := s.repo.FindByID(ctx, workerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, workererrors.ErrWorkerNotFound
	}
	if err != nil {
		s.logger.Error("load worker for card failed", zap.String("worker_id", workerID), zap.Error(err))
		return nil, workererrors.ErrStore.WithCause(err)
	}
	return w, nil
}

func (s *service) View(ctx context.Context, workerID string) (CardView, error) {
	w, err := s.load(ctx, workerID)
	if err != nil {
		return CardView{}, err
	}
	return toView(w), nil
}

func (s *service) PDF(ctx context.Context, workerID string) ([]byte, error) {
	w, err := s.load(ctx, workerID)
	if err != nil {
		return nil, err
	}

	if b, ok := s.stored(ctx, workerID); ok {
		return b, nil
	}

	var buf bytes.Buffer
	if err := s.render(ctx, &buf, w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// stored reads the pre-rendered card. Any failure falls back to rendering.
func (s *service) stored(ctx context.Context, workerID string) ([]byte, bool) {
	rc, err := s.store.Open(ctx, document.CardKey(workerID))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("open stored card failed", zap.String("worker_id", workerID), zap.Error(err))
		}
		return nil, false
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		s.logger.Warn("read stored card failed", zap.String("worker_id", workerID), zap.Error(err))
		return nil, false
	}
	return b, true
}

func (s *service) Prerender(ctx context.Context, workerID string) (string, error) {
	w, err := s.load(ctx, workerID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := s.render(ctx, &buf, w); err != nil {
		return "", err
	}

	key := document.CardKey(workerID)
	if err := s.store.Put(ctx, key, &buf, int64(buf.Len()), "application/pdf"); err != nil {
		s.logger.Error("store card failed", zap.String("key", key), zap.Error(err))
		return "", ErrRender.WithCause(err)
	}
	s.logger.Info("card pre-rendered", zap.String("key", key))
	return key, nil
}

func (s *service) render(ctx context.Context, out io.Writer, w *worker.Worker) error {
	if err := Render(out, toView(w), s.photo(ctx, w)); err != nil {
		s.logger.Error("render card failed", zap.String("worker_id", w.WorkerID), zap.Error(err))
		return ErrRender.WithCause(err)
	}
	return nil
}

// photo loads the front photo. A missing or unreadable photo renders a
// placeholder instead of failing the card.
func (s *service) photo(ctx context.Context, w *worker.Worker) *Photo {
	if w.PhotoFront == nil || *w.PhotoFront == "" {
		return nil
	}
	key := *w.PhotoFront
	tp := PhotoType(key)
	if tp == "" {
		return nil
	}

	rc, err := s.store.Open(ctx, key)
	if err != nil {
		s.logger.Warn("card photo unavailable", zap.String("key", key), zap.Error(err))
		return nil
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		s.logger.Warn("card photo read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &Photo{Data: b, Type: tp}
}

func displayDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DisplayDateLayout)
}

func toView(w *worker.Worker) CardView {
	return CardView{
		WorkerID:      w.WorkerID,
		Name:          w.Name,
		FatherName:    w.FatherName,
		Department:    w.Department,
		Designation:   w.Designation,
		Site:          w.Site,
		MobileNumber:  w.MobileNumber,
		DateOfBirth:   displayDate(w.DateOfBirth),
		DateOfJoining: displayDate(w.DateOfJoining),
		PhotoURL:      storage.PublicURL(w.PhotoFront),
	}
}
