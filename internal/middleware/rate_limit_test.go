package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/submit", RateLimitByIP(0.001, 2), func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/submit", nil)
		req.RemoteAddr = ip + ":5555"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2"), "other clients keep their own budget")
}

func TestIPRateLimiter_EvictsIdle(t *testing.T) {
	now := time.Now()
	l := NewIPRateLimiter(1, 1)
	l.now = func() time.Time { return now }

	l.GetLimiter("a")
	l.GetLimiter("b")
	assert.Equal(t, 2, l.Len())

	now = now.Add(limiterIdleTTL + time.Second)
	l.GetLimiter("b")
	assert.Equal(t, 1, l.Len())
}
