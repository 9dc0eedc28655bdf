package leavebalance

import (
	"go-leave/internal/authority"
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	authorityService authority.Service,
) {
	balances := r.Group("/leave-balances")
	balances.Use(middleware.AuthMiddleware())
	{
		balances.GET("", handler.GetMine)
		balances.GET("/:userId", handler.GetByUser)
		balances.PATCH("/:userId", middleware.RequireAuthority(authorityService), handler.Override)
	}
}
