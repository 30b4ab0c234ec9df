package idcard

import (
	"fmt"
	"net/http"

	"go-idcard/internal/shared/apperror"
	"go-idcard/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("idcard.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("idcard.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("id card request failed",
		zap.String("path", c.FullPath()),
		zap.String("worker_id", c.Param("id")),
		zap.Int("status", httpErr.Status),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) View(c *gin.Context) {
	view, err := h.service.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view, nil)
}

func (h *Handler) Export(c *gin.Context) {
	id := c.Param("id")
	pdf, err := h.service.PDF(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="IDCard_%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func RegisterRoutes(r gin.IRouter, handler *Handler) {
	r.GET("/id-card/:id", handler.View)
	r.GET("/export/:id", handler.Export)
}
