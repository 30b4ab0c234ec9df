package notify

import (
	"io"
	"time"

	"go-idcard/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const heartbeatInterval = 25 * time.Second

type Handler struct {
	hub       *Hub
	metrics   *metrics.Metrics
	heartbeat time.Duration
	logger    *zap.Logger
}

func NewHandler(hub *Hub, m *metrics.Metrics, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("notify.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notify.handler")
	}
	return &Handler{hub: hub, metrics: m, heartbeat: heartbeatInterval, logger: l}
}

// Stream keeps a server-sent-event connection open until the client leaves.
func (h *Handler) Stream(c *gin.Context) {
	h.metrics.SubscriberConnected()
	id, events := h.hub.Subscribe()
	defer func() {
		h.hub.Unsubscribe(id)
		h.metrics.SubscriberDisconnected()
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	h.logger.Debug("event stream opened", zap.Uint64("subscriber_id", id))

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})

	h.logger.Debug("event stream closed", zap.Uint64("subscriber_id", id))
}

func RegisterRoutes(r gin.IRouter, handler *Handler) {
	r.GET("/events", handler.Stream)
}
