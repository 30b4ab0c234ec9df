package worker

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-idcard/internal/document"
	"go-idcard/internal/events"
	"go-idcard/internal/idalloc"
	"go-idcard/internal/messaging/kafka"
	"go-idcard/internal/metrics"
	"go-idcard/internal/shared/contextutil"
	"go-idcard/internal/storage"
	workererrors "go-idcard/internal/worker/errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Broadcaster pushes an event to connected dashboards.
type Broadcaster interface {
	Broadcast(event string, data any) int
}

// CacheInvalidator drops derived data after worker rows change.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

//go:generate mockgen -source=worker_service.go -destination=mock/worker_service_mock.go -package=mock
type Service interface {
	Register(ctx context.Context, req RegisterRequest, files RegisterFiles) (WorkerResponse, error)
	NextID(ctx context.Context) (string, error)
	GetByID(ctx context.Context, workerID string) (WorkerResponse, error)
	List(ctx context.Context, q ListQuery) (ListResult, error)
	Update(ctx context.Context, workerID string, fields map[string]any) (WorkerResponse, error)
	Delete(ctx context.Context, workerID string) error
}

// Dependencies wires the service. Outbox, Stats, Notifier and Metrics are
// optional.
type Dependencies struct {
	DB        *sql.DB
	Repo      Repository
	Allocator idalloc.Allocator
	Assembler document.Assembler
	Storage   storage.Storage
	Outbox    kafka.OutboxRepository
	Stats     CacheInvalidator
	Notifier  Broadcaster
	Metrics   *metrics.Metrics
}

type service struct {
	db        *sql.DB
	repo      Repository
	allocator idalloc.Allocator
	assembler document.Assembler
	store     storage.Storage
	outbox    kafka.OutboxRepository
	stats     CacheInvalidator
	notifier  Broadcaster
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewService(deps Dependencies, logger ...*zap.Logger) Service {
	l := zap.L().Named("worker.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("worker.service")
	}
	return &service{
		db:        deps.DB,
		repo:      deps.Repo,
		allocator: deps.Allocator,
		assembler: deps.Assembler,
		store:     deps.Storage,
		outbox:    deps.Outbox,
		stats:     deps.Stats,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		logger:    l,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest, files RegisterFiles) (WorkerResponse, error) {
	start := time.Now()
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("register worker requested",
		zap.String("request_id", rid),
		zap.String("department", req.Department),
	)

	w, err := toEntity(req)
	if err != nil {
		s.metrics.IncrementRegistrationFailure("validation")
		s.logger.Warn("register worker validation failed", zap.String("request_id", rid), zap.Error(err))
		return WorkerResponse{}, err
	}

	exists, err := s.repo.ExistsByAadhar(ctx, w.AadharNumber)
	if err != nil {
		s.metrics.IncrementRegistrationFailure("store")
		s.logger.Error("register worker aadhar lookup failed", zap.String("request_id", rid), zap.Error(err))
		return WorkerResponse{}, mapRepositoryError(err)
	}
	if exists {
		s.metrics.IncrementRegistrationFailure("duplicate")
		s.logger.Warn("register worker duplicate aadhar", zap.String("request_id", rid))
		return WorkerResponse{}, workererrors.ErrDuplicateAadhar
	}

	workerID, err := s.allocator.AllocateNext(ctx)
	if err != nil {
		s.metrics.IncrementRegistrationFailure("allocation")
		return WorkerResponse{}, err
	}
	w.WorkerID = workerID

	if err := s.assembleArtifacts(ctx, w, files); err != nil {
		s.metrics.IncrementRegistrationFailure("assembly")
		s.logger.Error("register worker assembly failed",
			zap.String("request_id", rid),
			zap.String("worker_id", workerID),
			zap.Error(err),
		)
		s.discardNamespace(ctx, workerID)
		return WorkerResponse{}, err
	}

	if err := s.persist(ctx, w, rid); err != nil {
		stage := "store"
		if errors.Is(err, workererrors.ErrDuplicateAadhar) {
			stage = "duplicate"
		}
		s.metrics.IncrementRegistrationFailure(stage)
		s.discardNamespace(ctx, workerID)
		return WorkerResponse{}, err
	}

	resp := mapToResponse(*w)
	s.afterChange(ctx)
	if s.notifier != nil {
		n := s.notifier.Broadcast(events.WorkerRegisteredEventType, resp)
		s.logger.Debug("worker registration broadcast", zap.Int("subscribers", n))
	}
	s.metrics.IncrementRegistered()
	s.metrics.ObserveRegister(start)

	s.logger.Info("register worker success",
		zap.String("request_id", rid),
		zap.String("worker_id", workerID),
	)
	return resp, nil
}

func nonEmpty(paths ...string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *service) assembleArtifacts(ctx context.Context, w *Worker, files RegisterFiles) error {
	docs := []struct {
		category document.Category
		images   []string
		dst      **string
	}{
		{document.CategoryIdentity, nonEmpty(files.AadharFront, files.AadharBack), &w.IdentityProofDocument},
		{document.CategoryTax, nonEmpty(files.PANCard...), &w.TaxProofDocument},
		{document.CategoryBank, nonEmpty(files.BankDetail...), &w.BankProofDocument},
	}
	for _, d := range docs {
		if len(d.images) == 0 {
			continue
		}
		key, err := s.assembler.Assemble(ctx, d.category, d.images, w.WorkerID)
		if err != nil {
			return err
		}
		*d.dst = key
		if key != nil {
			s.metrics.IncrementAssembled(string(d.category))
		}
	}

	photos := []struct {
		label string
		src   string
		dst   **string
	}{
		{document.PhotoFront, files.PhotoFront, &w.PhotoFront},
		{document.PhotoLeft, files.PhotoLeft, &w.PhotoLeft},
		{document.PhotoRight, files.PhotoRight, &w.PhotoRight},
	}
	for _, p := range photos {
		if p.src == "" {
			continue
		}
		key, err := s.assembler.SavePhoto(ctx, p.src, w.WorkerID, p.label)
		if err != nil {
			return err
		}
		*p.dst = key
	}
	return nil
}

// persist inserts the row and its outbox event in one transaction.
func (s *service) persist(ctx context.Context, w *Worker, rid string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("register worker begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return workererrors.ErrStore.WithCause(err)
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Create(ctx, w); err != nil {
		s.logger.Error("register worker persist failed",
			zap.String("request_id", rid),
			zap.String("worker_id", w.WorkerID),
			zap.Error(err),
		)
		return mapRepositoryError(err)
	}

	if s.outbox != nil {
		event := events.WorkerRegisteredEvent{
			EventType:  events.WorkerRegisteredEventType,
			RequestID:  rid,
			WorkerID:   w.WorkerID,
			Name:       w.Name,
			Department: w.Department,
			OccurredAt: time.Now().UTC(),
		}
		outboxEvent, err := kafka.NewOutboxEvent(rid, "worker", w.WorkerID, event.EventType, events.WorkerRegisteredTopic, event)
		if err != nil {
			return workererrors.ErrStore.WithCause(err)
		}

		if err := s.outbox.WithTx(tx).Create(ctx, outboxEvent); err != nil {
			s.logger.Error("register worker outbox persist failed",
				zap.String("worker_id", w.WorkerID),
				zap.Error(err),
			)
			return workererrors.ErrStore.WithCause(err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("register worker commit failed", zap.String("request_id", rid), zap.Error(err))
		return workererrors.ErrStore.WithCause(err)
	}
	return nil
}

// discardNamespace removes artifacts written for a registration that did
// not commit. Failures are left to the orphan sweep.
func (s *service) discardNamespace(ctx context.Context, workerID string) {
	if err := s.store.RemoveNamespace(ctx, workerID); err != nil {
		s.logger.Error("discard namespace failed",
			zap.String("worker_id", workerID),
			zap.Error(err),
		)
	}
}

func (s *service) afterChange(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}

func (s *service) NextID(ctx context.Context) (string, error) {
	return s.allocator.PeekNext(ctx)
}

func (s *service) GetByID(ctx context.Context, workerID string) (WorkerResponse, error) {
	s.logger.Debug("get worker by id requested", zap.String("worker_id", workerID))
	w, err := s.repo.FindByID(ctx, workerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("get worker by id failed", zap.String("worker_id", workerID), zap.Error(err))
		}
		return WorkerResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*w), nil
}

func (s *service) List(ctx context.Context, q ListQuery) (ListResult, error) {
	workers, err := s.repo.FindAll(ctx, q.Filter())
	if err != nil {
		s.logger.Error("list workers failed", zap.Error(err))
		return ListResult{}, mapRepositoryError(err)
	}

	if err := sortWorkers(workers, q.SortBy, q.SortDir); err != nil {
		return ListResult{}, err
	}

	page, pageSize := normalizePage(q.Page, q.PageSize)
	return ListResult{
		Items:    mapToListResponse(paginate(workers, page, pageSize)),
		Total:    int64(len(workers)),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *service) Update(ctx context.Context, workerID string, fields map[string]any) (WorkerResponse, error) {
	s.logger.Debug("update worker requested",
		zap.String("worker_id", workerID),
		zap.Int("fields", len(fields)),
	)

	columns, err := toColumns(fields)
	if err != nil {
		s.logger.Warn("update worker rejected", zap.String("worker_id", workerID), zap.Error(err))
		return WorkerResponse{}, err
	}

	affected, err := s.repo.UpdateFields(ctx, workerID, columns)
	if err != nil {
		s.logger.Error("update worker persist failed", zap.String("worker_id", workerID), zap.Error(err))
		return WorkerResponse{}, mapRepositoryError(err)
	}
	if affected == 0 {
		return WorkerResponse{}, workererrors.ErrWorkerNotFound
	}

	w, err := s.repo.FindByID(ctx, workerID)
	if err != nil {
		return WorkerResponse{}, mapRepositoryError(err)
	}

	// a pre-rendered card would show the old details
	if err := s.store.Remove(ctx, document.CardKey(workerID)); err != nil {
		s.logger.Warn("update worker stale card removal failed",
			zap.String("worker_id", workerID),
			zap.Error(err),
		)
	}

	s.afterChange(ctx)
	s.logger.Info("update worker success", zap.String("worker_id", workerID))
	return mapToResponse(*w), nil
}

func (s *service) Delete(ctx context.Context, workerID string) error {
	s.logger.Debug("delete worker requested", zap.String("worker_id", workerID))

	affected, err := s.repo.Delete(ctx, workerID)
	if err != nil {
		s.logger.Error("delete worker failed", zap.String("worker_id", workerID), zap.Error(err))
		return mapRepositoryError(err)
	}
	if affected == 0 {
		return workererrors.ErrWorkerNotFound
	}

	if err := s.store.RemoveNamespace(ctx, workerID); err != nil {
		s.logger.Warn("delete worker namespace cleanup failed, left for sweep",
			zap.String("worker_id", workerID),
			zap.Error(err),
		)
	}

	s.afterChange(ctx)
	s.metrics.IncrementDeleted()
	s.logger.Info("delete worker success", zap.String("worker_id", workerID))
	return nil
}

func mapToResponse(w Worker) WorkerResponse {
	return WorkerResponse{
		WorkerID:              w.WorkerID,
		Name:                  w.Name,
		FatherName:            w.FatherName,
		HolderName:            w.HolderName,
		MaritalStatus:         w.MaritalStatus,
		Gender:                w.Gender,
		DateOfBirth:           formatDate(w.DateOfBirth),
		DateOfJoining:         formatDate(w.DateOfJoining),
		Department:            w.Department,
		Designation:           w.Designation,
		Site:                  w.Site,
		MobileNumber:          w.MobileNumber,
		AadharNumber:          w.AadharNumber,
		AccountNumber:         w.AccountNumber,
		IFSC:                  w.IFSC,
		BankName:              w.BankName,
		Remarks:               w.Remarks,
		IdentityProofDocument: storage.PublicURL(w.IdentityProofDocument),
		TaxProofDocument:      storage.PublicURL(w.TaxProofDocument),
		BankProofDocument:     storage.PublicURL(w.BankProofDocument),
		PhotoFront:            storage.PublicURL(w.PhotoFront),
		PhotoLeft:             storage.PublicURL(w.PhotoLeft),
		PhotoRight:            storage.PublicURL(w.PhotoRight),
		CreatedAt:             w.CreatedAt,
		UpdatedAt:             w.UpdatedAt,
	}
}

func mapToListResponse(workers []Worker) []WorkerResponse {
	res := make([]WorkerResponse, len(workers))
	for i, w := range workers {
		res[i] = mapToResponse(w)
	}
	return res
}
