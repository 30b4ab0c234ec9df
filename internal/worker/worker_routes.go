package worker

import (
	"go-idcard/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r gin.IRouter,
	handler *Handler,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	r.POST("/submit",
		middleware.RateLimitByIP(0.5, 3),
		middleware.Idempotency(rdb, logger),
		handler.Register,
	)

	r.GET("/id-generation/next-id",
		middleware.RateLimitByIP(5, 20),
		handler.NextID,
	)

	records := r.Group("/id-dashboard/records")
	{
		records.GET("",
			middleware.RateLimitByIP(5, 20),
			handler.List,
		)
		records.GET("/:id",
			middleware.RateLimitByIP(5, 20),
			handler.GetByID,
		)
		records.PUT("/:id",
			middleware.RateLimitByIP(1, 5),
			handler.Update,
		)
		records.DELETE("/:id",
			middleware.RateLimitByIP(0.5, 2),
			handler.Delete,
		)
	}
}
