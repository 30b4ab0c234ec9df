package app

import (
	"database/sql"
	"fmt"

	"go-idcard/internal/config"
	"go-idcard/internal/messaging/kafka"
	"go-idcard/internal/notify"
	"go-idcard/internal/shared/connection"
	"go-idcard/internal/shared/counter"
	"go-idcard/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const connectRetries = 5

// App holds what BuildApp opened so main can release it.
type App struct {
	hub   *notify.Hub
	sqlDB *sql.DB
	rdb   *redis.Client
}

// Drain disconnects event stream subscribers so an HTTP shutdown does not
// wait on them.
func (a *App) Drain() {
	a.hub.Close()
}

func (a *App) Close() {
	a.hub.Close()
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	_ = a.sqlDB.Close()
}

// BuildApp connects infrastructure and registers every module on router.
func BuildApp(router *gin.Engine, cfg *config.AppConfig) (*App, error) {
	logger := zap.L().Named("app")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database, connectRetries)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	if err := Migrate(gormDB); err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.Redis.Addr, connectRetries)
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		logger.Info("redis connection established")
	} else {
		logger.Warn("REDIS_ADDR not set, running without cache and idempotency")
	}

	modules, err := registerModules(router, cfg, sqlDB, gormDB, rdb)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &App{hub: modules.hub, sqlDB: sqlDB, rdb: rdb}, nil
}

// Migrate creates or updates the tables the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&worker.Worker{}, &counter.IDCounter{}, &kafka.OutboxRecord{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
