package storage

import (
	"errors"
	"io"
	"net/http"

	"go-idcard/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	store  Storage
	logger *zap.Logger
}

func NewHandler(store Storage, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("storage.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("storage.handler")
	}
	return &Handler{store: store, logger: l}
}

// Download serves a local artifact directly and redirects to a presigned URL
// for remote drivers.
func (h *Handler) Download(c *gin.Context) {
	key, err := CleanKey(c.Param("key"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid file path", nil)
		return
	}

	if _, ok := h.store.(*localStorage); !ok {
		u, err := h.store.DownloadURL(c.Request.Context(), key)
		if err != nil {
			h.logger.Error("presign download failed", zap.String("key", key), zap.Error(err))
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, u)
		return
	}

	rc, err := h.store.Open(c.Request.Context(), key)
	if errors.Is(err, ErrNotFound) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "File not found", nil)
		return
	}
	if err != nil {
		h.logger.Error("open artifact failed", zap.String("key", key), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	defer rc.Close()

	c.Status(http.StatusOK)
	c.Header("Content-Type", contentTypeFor(key))
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.logger.Warn("stream artifact interrupted", zap.String("key", key), zap.Error(err))
	}
}

func RegisterRoutes(r gin.IRouter, handler *Handler) {
	r.GET("/uploads/*key", handler.Download)
	r.HEAD("/uploads/*key", handler.Download)
}
