package leaverequest

import (
	"context"
	"net/http"

	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthorityChecker is the slice of Authority the handler needs: listing
// scope depends on whether the caller may read everyone's requests.
type AuthorityChecker interface {
	IsAuthority(ctx context.Context, companyID, actorID string) (bool, error)
}

type Handler struct {
	service   Service
	authority AuthorityChecker
	logger    *zap.Logger
}

func NewHandler(service Service, authority AuthorityChecker, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leaverequest.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leaverequest.handler")
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
	h.logger.Warn("leave request request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// Create submits a leave request for the calling employee. The owner is
// always the caller; nobody files leave on someone else's behalf.
func (h *Handler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	actorID := getActorID(c)

	var req CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http create leave request validation failed", zap.Error(err))
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", mapped.Message, err.Error())
		return
	}

	resp, err := h.service.Create(ctx, companyID, actorID, actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetByID(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	id := c.Param("id")

	resp, err := h.service.GetByID(ctx, companyID, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if resp.EmployeeID != actorID {
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

	response.Success(c, http.StatusOK, resp, nil)
}

// List returns the company's requests, optionally filtered by employee_id
// and status. Callers without authority are scoped to their own requests.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	actorID := getActorID(c)

	canReadAll, err := h.authority.IsAuthority(ctx, companyID, actorID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	q := ListQuery{
		EmployeeID: c.Query("user_id"),
		Status:     c.Query("status"),
	}

	resp, err := h.service.List(ctx, companyID, actorID, canReadAll, q)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, &response.PaginationMeta{Total: int64(len(resp))})
}

// Decide approves or rejects a pending request depending on the status in
// the body.
func (h *Handler) Decide(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	id := c.Param("id")

	var req DecideLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http decide leave request validation failed", zap.Error(err))
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", mapped.Message, err.Error())
		return
	}

	var (
		resp LeaveRequestResponse
		err  error
	)
	switch req.Status {
	case StatusApproved:
		resp, err = h.service.Approve(ctx, companyID, actorID, id)
	case StatusRejected:
		resp, err = h.service.Reject(ctx, companyID, actorID, id, req.RejectionReason)
	}
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	id := c.Param("id")

	resp, err := h.service.Cancel(ctx, companyID, actorID, actorID, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
