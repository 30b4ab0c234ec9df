package middleware

import (
	"go-idcard/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// requestIDFrom reuses an id set earlier in the chain, then the inbound
// header, and only then mints a new one.
func requestIDFrom(c *gin.Context) string {
	if rid := c.GetString(contextutil.GetKey()); rid != "" {
		return rid
	}
	if rid := c.GetHeader(RequestIDHeader); rid != "" && len(rid) <= 128 {
		return rid
	}
	return uuid.New().String()
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := requestIDFrom(c)

		c.Set(contextutil.GetKey(), rid)
		ctx := contextutil.WithRequestID(c.Request.Context(), rid)
		c.Request = c.Request.WithContext(ctx)

		c.Header(RequestIDHeader, rid)
		c.Next()
	}
}
