package stats_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-idcard/internal/stats"
	statsMock "go-idcard/internal/stats/mock"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newStatsRouter(svc stats.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	stats.RegisterRoutes(r, stats.NewHandler(svc, zap.NewNop()))
	return r
}

func TestStatsHandler_Summary(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := statsMock.NewMockService(ctrl)
	svc.EXPECT().Summary(gomock.Any()).Return(stats.SummaryResponse{TotalWorkers: 12, IDsGeneratedToday: 3}, nil)
	r := newStatsRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/summary-stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalWorkers":12`)
	assert.Contains(t, w.Body.String(), `"idsGeneratedToday":3`)
}

func TestStatsHandler_DepartmentBreakdown(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := statsMock.NewMockService(ctrl)
		svc.EXPECT().DepartmentBreakdown(gomock.Any()).Return([]stats.DepartmentBreakdown{
			{Department: "Civil", Count: 3, Percentage: "75.00"},
			{Department: "Electrical", Count: 1, Percentage: "25.00"},
		}, nil)
		r := newStatsRouter(svc)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/department-breakdown", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `{"department":"Civil","count":3,"percentage":"75.00"}`)
	})

	t.Run("unexpected error is internal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := statsMock.NewMockService(ctrl)
		svc.EXPECT().DepartmentBreakdown(gomock.Any()).Return(nil, errors.New("boom"))
		r := newStatsRouter(svc)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/department-breakdown", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), `"ok":false`)
	})
}
