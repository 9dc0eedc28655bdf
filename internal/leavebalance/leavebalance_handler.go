package leavebalance

import (
	"context"
	"net/http"

	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthorityChecker is a local interface; the handler only needs to know
// whether the caller may read balances other than their own.
type AuthorityChecker interface {
	IsAuthority(ctx context.Context, companyID, actorID string) (bool, error)
}

type Handler struct {
	service   Service
	authority AuthorityChecker
	logger    *zap.Logger
}

func NewHandler(service Service, authority AuthorityChecker, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leavebalance.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavebalance.handler")
	}
	return &Handler{service: service, authority: authority, logger: l}
}

func getActorID(c *gin.Context) string {
	actorID := c.GetString("employee_id")
	if actorID == "" {
		actorID = c.GetString("user_id_validated")
	}
	return actorID
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("leave balance request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// GetMine returns the caller's own current-year balance.
func (h *Handler) GetMine(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	actorID := getActorID(c)

	resp, err := h.service.GetForEmployee(ctx, companyID, actorID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

// GetByUser returns another employee's balance; reading someone else's
// requires authority.
func (h *Handler) GetByUser(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	targetID := c.Param("userId")

	if targetID != actorID {
		allowed, err := h.authority.IsAuthority(ctx, companyID, actorID)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		if !allowed {
			h.writeServiceError(c, apperror.ErrForbidden)
			return
		}
	}

	resp, err := h.service.GetForEmployee(ctx, companyID, targetID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Override(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	targetID := c.Param("userId")

	var req OverrideBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http override balance validation failed", zap.Error(err))
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", mapped.Message, err.Error())
		return
	}

	resp, err := h.service.Override(ctx, companyID, actorID, targetID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
