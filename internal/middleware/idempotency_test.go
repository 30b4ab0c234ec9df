package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-idcard/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	idemCacheKey = "idemp:/submit:192.0.2.1:key-1"
	idemLockKey  = idemCacheKey + ":lock"
)

func newIdempotentRouter(t *testing.T, status int, calls *int) (*gin.Engine, redismock.ClientMock) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/submit", middleware.Idempotency(rdb, zap.NewNop()), func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"ok": status < 400})
	})
	return r, mock
}

func postSubmit(r *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set(middleware.IdempotencyHeader, "key-1")
	req.Header.Set(middleware.RequestIDHeader, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	t.Run("first request stores the response", func(t *testing.T) {
		calls := 0
		r, mock := newIdempotentRouter(t, http.StatusCreated, &calls)

		payload, err := json.Marshal(struct {
			Status int             `json:"status"`
			Body   json.RawMessage `json:"body"`
		}{http.StatusCreated, json.RawMessage(`{"ok":true}`)})
		require.NoError(t, err)

		mock.ExpectGet(idemCacheKey).RedisNil()
		mock.ExpectSetNX(idemLockKey, "rid-1", 60*time.Second).SetVal(true)
		mock.ExpectSet(idemCacheKey, payload, 24*time.Hour).SetVal("OK")
		mock.ExpectDel(idemLockKey).SetVal(1)

		w := postSubmit(r)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("repeat is replayed without running the handler", func(t *testing.T) {
		calls := 0
		r, mock := newIdempotentRouter(t, http.StatusCreated, &calls)
		mock.ExpectGet(idemCacheKey).SetVal(`{"status":201,"body":{"ok":true,"data":"JRCW1"}}`)

		w := postSubmit(r)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "true", w.Header().Get("Idempotent-Replay"))
		assert.JSONEq(t, `{"ok":true,"data":"JRCW1"}`, w.Body.String())
		assert.Equal(t, 0, calls)
	})

	t.Run("in-flight duplicate conflicts", func(t *testing.T) {
		calls := 0
		r, mock := newIdempotentRouter(t, http.StatusCreated, &calls)
		mock.ExpectGet(idemCacheKey).RedisNil()
		mock.ExpectSetNX(idemLockKey, "rid-1", 60*time.Second).SetVal(false)

		w := postSubmit(r)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, 0, calls)
	})

	t.Run("server errors are not stored", func(t *testing.T) {
		calls := 0
		r, mock := newIdempotentRouter(t, http.StatusInternalServerError, &calls)
		mock.ExpectGet(idemCacheKey).RedisNil()
		mock.ExpectSetNX(idemLockKey, "rid-1", 60*time.Second).SetVal(true)
		mock.ExpectDel(idemLockKey).SetVal(1)

		w := postSubmit(r)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis outage lets the request through", func(t *testing.T) {
		calls := 0
		r, mock := newIdempotentRouter(t, http.StatusCreated, &calls)
		mock.ExpectGet(idemCacheKey).SetErr(errors.New("down"))
		mock.ExpectSetNX(idemLockKey, "rid-1", 60*time.Second).SetErr(errors.New("down"))

		w := postSubmit(r)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, calls)
	})

	t.Run("no key skips redis", func(t *testing.T) {
		calls := 0
		r, mock := newIdempotentRouter(t, http.StatusCreated, &calls)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/submit", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
