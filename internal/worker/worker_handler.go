package worker

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go-idcard/internal/idalloc"
	"go-idcard/internal/shared/apperror"
	"go-idcard/internal/shared/response"
	workererrors "go-idcard/internal/worker/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultMaxFileBytes = 5 << 20

// number of file parts a registration can carry before the body is cut off
const maxUploadParts = 12

var allowedUploadExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

type HandlerConfig struct {
	// StagingDir receives uploads until the assembler has consumed them.
	StagingDir   string
	MaxFileBytes int64
}

type Handler struct {
	service Service
	cfg     HandlerConfig
	logger  *zap.Logger
}

func NewHandler(service Service, cfg HandlerConfig, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("worker.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("worker.handler")
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = defaultMaxFileBytes
	}
	if cfg.StagingDir == "" {
		cfg.StagingDir = os.TempDir()
	}
	return &Handler{service: service, cfg: cfg, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("worker request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Register(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxFileBytes*maxUploadParts+(1<<20))

	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeServiceError(c, workererrors.ErrFileTooLarge)
			return
		}
		h.logger.Warn("http register worker validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	dir, err := os.MkdirTemp(h.cfg.StagingDir, "upload-*")
	if err != nil {
		h.logger.Error("http register worker staging failed", zap.Error(err))
		h.writeServiceError(c, err)
		return
	}
	defer os.RemoveAll(dir)

	files, err := h.stageFiles(c, dir)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req, files)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

// stageFiles copies the uploaded parts into dir. Array fields accept both
// "panCard" and "panCard[]".
func (h *Handler) stageFiles(c *gin.Context, dir string) (RegisterFiles, error) {
	var files RegisterFiles
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return files, nil
		}
		return files, apperror.MapValidationError(err)
	}

	single := func(field string) (string, error) {
		headers := form.File[field]
		if len(headers) == 0 {
			return "", nil
		}
		return h.stageOne(c, dir, field, 0, headers[0])
	}
	multi := func(field string) ([]string, error) {
		var headers []*multipart.FileHeader
		headers = append(headers, form.File[field]...)
		headers = append(headers, form.File[field+"[]"]...)
		paths := make([]string, 0, len(headers))
		for i, fh := range headers {
			p, err := h.stageOne(c, dir, field, i, fh)
			if err != nil {
				return nil, err
			}
			paths = append(paths, p)
		}
		return paths, nil
	}

	singles := []struct {
		field string
		dst   *string
	}{
		{"aadharFront", &files.AadharFront},
		{"aadharBack", &files.AadharBack},
		{"photoFront", &files.PhotoFront},
		{"photoLeft", &files.PhotoLeft},
		{"photoRight", &files.PhotoRight},
	}
	for _, s := range singles {
		if *s.dst, err = single(s.field); err != nil {
			return files, err
		}
	}
	if files.PANCard, err = multi("panCard"); err != nil {
		return files, err
	}
	if files.BankDetail, err = multi("bankDetail"); err != nil {
		return files, err
	}
	return files, nil
}

func (h *Handler) stageOne(c *gin.Context, dir, field string, idx int, fh *multipart.FileHeader) (string, error) {
	if fh.Size > h.cfg.MaxFileBytes {
		return "", workererrors.ErrFileTooLarge.WithDetails(field)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedUploadExt[ext] {
		return "", workererrors.ErrUnsupportedFile.WithDetails(field)
	}

	dst := filepath.Join(dir, fmt.Sprintf("%s-%d%s", field, idx, ext))
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		h.logger.Error("save uploaded file failed", zap.String("field", field), zap.Error(err))
		return "", workererrors.ErrStore.WithCause(err)
	}
	return dst, nil
}

func (h *Handler) NextID(c *gin.Context) {
	id, err := h.service.NextID(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NextIDResponse{WorkerID: id}, nil)
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	res, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	meta := response.NewPaginationMeta(res.Total, res.Page, res.PageSize)
	response.Success(c, http.StatusOK, res.Items, &meta)
}

// workerIDParam rejects ids that could not have been allocated.
func (h *Handler) workerIDParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if _, ok := idalloc.NumericPart(id); !ok || strings.ContainsAny(id, `/\.`) {
		h.writeServiceError(c, workererrors.ErrInvalidWorkerID.WithDetails(id))
		return "", false
	}
	return id, true
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := h.workerIDParam(c)
	if !ok {
		return
	}
	h.logger.Debug("http get worker by id", zap.String("worker_id", id))

	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := h.workerIDParam(c)
	if !ok {
		return
	}

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		h.logger.Warn("http update worker bind failed", zap.String("worker_id", id), zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Update(c.Request.Context(), id, fields)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.workerIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true, "workerID": id}, nil)
}
