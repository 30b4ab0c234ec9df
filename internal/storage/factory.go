package storage

import (
	"fmt"

	"go-idcard/internal/config"

	"go.uber.org/zap"
)

// New builds the configured driver.
func New(cfg config.StorageConfig, logger ...*zap.Logger) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.UploadsRoot, logger...)
	case "minio":
		return NewMinIO(cfg.MinIO, logger...)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
