package export

import (
	"fmt"
	"net/http"

	"go-idcard/internal/shared/apperror"
	"go-idcard/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ExportRequest struct {
	IDs []string `json:"ids"`
}

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("export.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("export.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("export request failed",
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) ExportExcel(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	buf, err := h.service.Workbook(c.Request.Context(), req.IDs)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, FileName))
	c.Data(http.StatusOK, ContentType, buf.Bytes())
}

func RegisterRoutes(r gin.IRouter, handler *Handler) {
	r.POST("/id-dashboard/export-excel", handler.ExportExcel)
}
