package middleware

import (
	"context"
	"net/http"

	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// AuthorityService is a local interface; any package exposing IsAuthority
// satisfies it without coupling the middleware to a concrete service.
type AuthorityService interface {
	IsAuthority(ctx context.Context, companyID, actorID string) (bool, error)
}

// RequireAuthority rejects callers without the system admin or manage-users
// capability. It is the route-level face of the approval-authority rule.
func RequireAuthority(service AuthorityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeID, ok1 := c.Get("employee_id")
		companyID, ok2 := c.Get("company_id")

		if !ok1 || !ok2 {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "missing auth context", nil)
			c.Abort()
			return
		}

		allowed, err := service.IsAuthority(c.Request.Context(), companyID.(string), employeeID.(string))
		if err != nil {
			httpErr := apperror.ToHTTP(err)
			response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
			c.Abort()
			return
		}

		if !allowed {
			response.Error(c, http.StatusForbidden, apperror.CodeForbidden,
				"You do not have permission to access this resource", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
