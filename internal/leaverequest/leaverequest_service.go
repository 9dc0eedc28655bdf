package leaverequest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-leave/internal/events"
	"go-leave/internal/leavebalance"
	leaverequesterrors "go-leave/internal/leaverequest/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// Authority answers whether an actor may decide requests on behalf of the
// company and whether they hold authority at all.
type Authority interface {
	IsAuthority(ctx context.Context, companyID, actorID string) (bool, error)
	CanApprove(ctx context.Context, companyID, actorID, ownerEmployeeID string) (bool, error)
}

//go:generate mockgen -source=leaverequest_service.go -destination=mock/leaverequest_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID, employeeID, createdBy string, req CreateLeaveRequest) (LeaveRequestResponse, error)
	GetByID(ctx context.Context, companyID, id string) (LeaveRequestResponse, error)
	List(ctx context.Context, companyID, actorEmployeeID string, canReadAll bool, q ListQuery) ([]LeaveRequestResponse, error)
	// Approve flips a pending request to APPROVED and charges the owner's
	// current-year balance in the same transaction. Either both happen or
	// neither does.
	Approve(ctx context.Context, companyID, actorID, id string) (LeaveRequestResponse, error)
	Reject(ctx context.Context, companyID, actorID, id string, reason *string) (LeaveRequestResponse, error)
	// Cancel is open to the request owner and to authorities. No balance was
	// charged while pending, so cancelling never touches balances.
	Cancel(ctx context.Context, companyID, actorID, actorEmployeeID, id string) (LeaveRequestResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	balances  leavebalance.Store
	authority Authority
	outbox    kafka.OutboxRepository
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	balances leavebalance.Store,
	authority Authority,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leaverequest.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leaverequest.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		balances:  balances,
		authority: authority,
		outbox:    outboxRepo,
		logger:    l,
	}
}

func (s *service) Create(ctx context.Context, companyID, employeeID, createdBy string, req CreateLeaveRequest) (LeaveRequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidActorID
	}
	createdByUUID, err := uuid.Parse(createdBy)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidActorID
	}
	if !leavebalance.ValidLeaveType(req.LeaveType) {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidLeaveType
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidDateFormat
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidDateFormat
	}

	// TotalDays is fixed at submission; approval charges exactly this amount
	// even if the request sits pending across a policy change.
	totalDays, err := CountChargeableDays(start, end)
	if err != nil {
		return LeaveRequestResponse{}, err
	}

	lr := &LeaveRequest{
		ID:         uuid.New(),
		CompanyID:  companyUUID,
		EmployeeID: employeeUUID,
		LeaveType:  req.LeaveType,
		StartDate:  start,
		EndDate:    end,
		TotalDays:  totalDays,
		Reason:     req.Reason,
		Status:     StatusPending,
		CreatedBy:  createdByUUID,
	}

	if err := s.repo.Create(ctx, lr); err != nil {
		s.logger.Error("create leave request failed",
			zap.String("request_id", rid),
			zap.String("company_id", companyID),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, apperror.DependencyUnavailable(err)
	}

	s.logger.Info("leave request created",
		zap.String("request_id", rid),
		zap.String("leave_request_id", lr.ID.String()),
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
		zap.String("leave_type", lr.LeaveType),
		zap.Int("total_days", lr.TotalDays),
	)

	return mapRequestToResponse(*lr), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (LeaveRequestResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrRequestNotFound
	}

	lr, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaverequesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, apperror.DependencyUnavailable(err)
	}
	return mapRequestToResponse(*lr), nil
}

func (s *service) List(ctx context.Context, companyID, actorEmployeeID string, canReadAll bool, q ListQuery) ([]LeaveRequestResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return nil, leaverequesterrors.ErrInvalidCompanyID
	}
	if q.Status != "" {
		switch q.Status {
		case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		default:
			return nil, leaverequesterrors.ErrInvalidStatusFilter
		}
	}

	// Non-authorities only ever see their own requests regardless of the
	// employee_id they asked for.
	if !canReadAll {
		q.EmployeeID = actorEmployeeID
	}

	rows, err := s.repo.FindAllByCompany(ctx, companyID, q)
	if err != nil {
		return nil, apperror.DependencyUnavailable(err)
	}

	out := make([]LeaveRequestResponse, 0, len(rows))
	for _, lr := range rows {
		out = append(out, mapRequestToResponse(lr))
	}
	return out, nil
}

func (s *service) Approve(ctx context.Context, companyID, actorID, id string) (LeaveRequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("approve begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	lr, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaverequesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, apperror.DependencyUnavailable(err)
	}
	if lr.Status != StatusPending {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidTransition
	}

	allowed, err := s.authority.CanApprove(ctx, companyID, actorID, lr.EmployeeID.String())
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if !allowed {
		s.logger.Warn("approve denied",
			zap.String("request_id", rid),
			zap.String("leave_request_id", id),
			zap.String("actor_id", actorID),
		)
		return LeaveRequestResponse{}, leaverequesterrors.ErrApprovalForbidden
	}

	bstore := s.balances.WithTx(tx)

	b, err := bstore.GetOrCreate(ctx, companyID, lr.EmployeeID.String(), time.Now().UTC().Year())
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	// The conditional decrement is what keeps the balance non-negative; a
	// rejected delta rolls the whole approval back and the request stays
	// pending.
	if _, err := bstore.ApplyDelta(ctx, companyID, b.ID.String(), lr.LeaveType, lr.TotalDays); err != nil {
		return LeaveRequestResponse{}, err
	}

	now := time.Now().UTC()
	lr.Status = StatusApproved
	lr.ApprovedBy = &actorUUID
	lr.ApprovedAt = &now

	// The write is conditional on the row still being PENDING. The read
	// above may be stale under concurrent decisions; losing the write race
	// rolls the balance charge back with the transaction.
	rows, err := qtx.UpdateFromPending(ctx, lr)
	if err != nil {
		s.logger.Error("approve persist failed",
			zap.String("request_id", rid),
			zap.String("leave_request_id", id),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, apperror.DependencyUnavailable(err)
	}
	if rows == 0 {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidTransition
	}

	if err := s.enqueueDecision(ctx, tx, lr, events.LeaveRequestApproved, actorID, nil); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve commit failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("leave request approved",
		zap.String("request_id", rid),
		zap.String("leave_request_id", id),
		zap.String("company_id", companyID),
		zap.String("employee_id", lr.EmployeeID.String()),
		zap.String("actor_id", actorID),
		zap.Int("total_days", lr.TotalDays),
	)

	return mapRequestToResponse(*lr), nil
}

func (s *service) Reject(ctx context.Context, companyID, actorID, id string, reason *string) (LeaveRequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("reject begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	lr, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaverequesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, apperror.DependencyUnavailable(err)
	}
	if lr.Status != StatusPending {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidTransition
	}

	allowed, err := s.authority.CanApprove(ctx, companyID, actorID, lr.EmployeeID.String())
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if !allowed {
		return LeaveRequestResponse{}, leaverequesterrors.ErrApprovalForbidden
	}

	finalReason := DefaultRejectionReason
	if reason != nil && *reason != "" {
		finalReason = *reason
	}

	now := time.Now().UTC()
	lr.Status = StatusRejected
	lr.RejectedBy = &actorUUID
	lr.RejectedAt = &now
	lr.RejectionReason = &finalReason

	rows, err := qtx.UpdateFromPending(ctx, lr)
	if err != nil {
		s.logger.Error("reject persist failed",
			zap.String("request_id", rid),
			zap.String("leave_request_id", id),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, apperror.DependencyUnavailable(err)
	}
	if rows == 0 {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidTransition
	}

	if err := s.enqueueDecision(ctx, tx, lr, events.LeaveRequestRejected, actorID, &finalReason); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reject commit failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("leave request rejected",
		zap.String("request_id", rid),
		zap.String("leave_request_id", id),
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
	)

	return mapRequestToResponse(*lr), nil
}

func (s *service) Cancel(ctx context.Context, companyID, actorID, actorEmployeeID, id string) (LeaveRequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(actorID); err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	lr, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaverequesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, apperror.DependencyUnavailable(err)
	}
	if lr.Status != StatusPending {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidTransition
	}

	if lr.EmployeeID.String() != actorEmployeeID {
		ok, err := s.authority.IsAuthority(ctx, companyID, actorID)
		if err != nil {
			return LeaveRequestResponse{}, err
		}
		if !ok {
			return LeaveRequestResponse{}, leaverequesterrors.ErrCancelForbidden
		}
	}

	lr.Status = StatusCancelled

	rows, err := qtx.UpdateFromPending(ctx, lr)
	if err != nil {
		s.logger.Error("cancel persist failed",
			zap.String("request_id", rid),
			zap.String("leave_request_id", id),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, apperror.DependencyUnavailable(err)
	}
	if rows == 0 {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidTransition
	}

	if err := s.enqueueDecision(ctx, tx, lr, events.LeaveRequestCancelled, actorID, nil); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel commit failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("leave request cancelled",
		zap.String("request_id", rid),
		zap.String("leave_request_id", id),
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
	)

	return mapRequestToResponse(*lr), nil
}

func (s *service) enqueueDecision(ctx context.Context, tx *sql.Tx, lr *LeaveRequest, eventType, actorID string, reason *string) error {
	if s.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(events.LeaveRequestDecidedEvent{
		EventType:       eventType,
		LeaveRequestID:  lr.ID.String(),
		CompanyID:       lr.CompanyID.String(),
		EmployeeID:      lr.EmployeeID.String(),
		LeaveType:       lr.LeaveType,
		TotalDays:       lr.TotalDays,
		Status:          lr.Status,
		DecidedBy:       actorID,
		RejectionReason: reason,
		OccurredAt:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   lr.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveRequestTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("decision outbox persist failed",
			zap.String("leave_request_id", lr.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func mapRequestToResponse(lr LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:         lr.ID.String(),
		CompanyID:  lr.CompanyID.String(),
		EmployeeID: lr.EmployeeID.String(),
		LeaveType:  lr.LeaveType,
		StartDate:  lr.StartDate.Format(dateLayout),
		EndDate:    lr.EndDate.Format(dateLayout),
		TotalDays:  lr.TotalDays,
		Reason:     lr.Reason,
		Status:     lr.Status,
		CreatedBy:  lr.CreatedBy.String(),
	}
	if lr.ApprovedBy != nil {
		v := lr.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if lr.ApprovedAt != nil {
		v := lr.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if lr.RejectedBy != nil {
		v := lr.RejectedBy.String()
		resp.RejectedBy = &v
	}
	if lr.RejectedAt != nil {
		v := lr.RejectedAt.Format(time.RFC3339)
		resp.RejectedAt = &v
	}
	resp.RejectionReason = lr.RejectionReason
	return resp
}
