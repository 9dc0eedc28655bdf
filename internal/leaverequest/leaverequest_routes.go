package leaverequest

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rdb *redis.Client,
) {
	requests := r.Group("/leave-requests")
	requests.Use(middleware.AuthMiddleware())
	{
		requests.POST("", middleware.Idempotency(rdb), handler.Create)
		requests.GET("", handler.List)
		requests.GET("/:id", handler.GetByID)
		requests.PATCH("/:id", handler.Decide)
		requests.POST("/:id/cancel", handler.Cancel)
	}
}
