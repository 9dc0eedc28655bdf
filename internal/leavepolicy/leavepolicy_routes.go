package leavepolicy

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
	policies := r.Group("/leave-policies")
	policies.Use(middleware.AuthMiddleware())
	policies.Use(middleware.RequireAuthority(authorityService))
	{
		policies.GET("", handler.GetAll)
		policies.POST("", handler.Create)
		policies.PATCH("/:id", handler.Update)
		policies.DELETE("/:id", handler.Delete)
	}
}
