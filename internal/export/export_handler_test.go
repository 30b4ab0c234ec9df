package export_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-idcard/internal/export"
	exportMock "go-idcard/internal/export/mock"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func newRouter(svc export.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	export.RegisterRoutes(r, export.NewHandler(svc))
	return r
}

func TestExportHandler_ExportExcel(t *testing.T) {
	t.Run("streams the workbook", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := exportMock.NewMockService(ctrl)
		svc.EXPECT().Workbook(gomock.Any(), []string{"JRCW2", "JRCW1"}).
			Return(bytes.NewBufferString("xlsx-bytes"), nil)

		req := httptest.NewRequest(http.MethodPost, "/id-dashboard/export-excel", strings.NewReader(`{"ids":["JRCW2","JRCW1"]}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="workers.xlsx"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "xlsx-bytes", w.Body.String())
	})

	t.Run("empty ids", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := exportMock.NewMockService(ctrl)
		svc.EXPECT().Workbook(gomock.Any(), gomock.Any()).Return(nil, export.ErrNoIDs)

		req := httptest.NewRequest(http.MethodPost, "/id-dashboard/export-excel", strings.NewReader(`{"ids":[]}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_INPUT")
	})

	t.Run("malformed body", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := exportMock.NewMockService(ctrl)

		req := httptest.NewRequest(http.MethodPost, "/id-dashboard/export-excel", strings.NewReader(`{"ids":"JRCW1"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
