package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go-idcard/internal/config"
	"go-idcard/internal/document"
	"go-idcard/internal/export"
	"go-idcard/internal/idalloc"
	"go-idcard/internal/idcard"
	"go-idcard/internal/messaging/kafka"
	"go-idcard/internal/metrics"
	"go-idcard/internal/middleware"
	"go-idcard/internal/notify"
	"go-idcard/internal/shared/apperror"
	"go-idcard/internal/shared/counter"
	"go-idcard/internal/shared/response"
	"go-idcard/internal/stats"
	"go-idcard/internal/storage"
	"go-idcard/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type modules struct {
	hub *notify.Hub
}

func registerModules(
	router *gin.Engine,
	cfg *config.AppConfig,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) (*modules, error) {
	logger := zap.L()

	// --- Infrastructure ---
	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	appMetrics := metrics.New(prometheus.DefaultRegisterer)
	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}
	hub := notify.NewHub(0, logger)

	// --- Repositories ---
	workerRepo := worker.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	statsRepo := stats.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	allocator := idalloc.NewAllocator(cfg.Worker.IDPrefix, counterRepo, logger)
	assembler := document.NewAssembler(store, logger)
	statsService := stats.NewService(statsRepo, rdb, logger)
	workerService := worker.NewService(worker.Dependencies{
		DB:        db,
		Repo:      workerRepo,
		Allocator: allocator,
		Assembler: assembler,
		Storage:   store,
		Outbox:    outboxRepo,
		Stats:     statsService,
		Notifier:  hub,
		Metrics:   appMetrics,
	}, logger)
	exportService := export.NewService(workerRepo, logger)
	idcardService := idcard.NewService(workerRepo, store, logger)

	// --- Handlers ---
	workerHandler := worker.NewHandler(workerService, worker.HandlerConfig{
		StagingDir:   cfg.Storage.StagingDir,
		MaxFileBytes: cfg.Worker.UploadMaxBytes,
	}, logger)
	statsHandler := stats.NewHandler(statsService, logger)
	notifyHandler := notify.NewHandler(hub, appMetrics, logger)
	exportHandler := export.NewHandler(exportService, logger)
	idcardHandler := idcard.NewHandler(idcardService, logger)
	storageHandler := storage.NewHandler(store, logger)

	// --- Middleware ---
	router.Use(
		middleware.RequestID(),
		middleware.ContextLogger(logger),
		promMiddleware.Handler(),
	)

	// --- Routes Registration ---
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", healthHandler(db))

	worker.RegisterRoutes(router, workerHandler, rdb, logger)
	stats.RegisterRoutes(router, statsHandler)
	notify.RegisterRoutes(router, notifyHandler)
	export.RegisterRoutes(router, exportHandler)
	idcard.RegisterRoutes(router, idcardHandler)
	storage.RegisterRoutes(router, storageHandler)

	return &modules{hub: hub}, nil
}

func healthHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			response.Error(c, http.StatusServiceUnavailable, apperror.CodeServiceUnavailable, "database unavailable", nil)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"}, nil)
	}
}
