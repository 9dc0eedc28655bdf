package leavebalance

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go-leave/internal/events"
	leavebalanceerrors "go-leave/internal/leavebalance/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=leavebalance_service.go -destination=mock/leavebalance_service_mock.go -package=mock
type Service interface {
	// GetForEmployee returns the current-year balance for the employee,
	// creating it from the resolved policy if it does not exist yet.
	GetForEmployee(ctx context.Context, companyID, employeeID string) (BalanceResponse, error)
	// Override lets an authority set balance fields directly, bypassing the
	// delta guard. Every override is audited through the outbox.
	Override(ctx context.Context, companyID, actorID, employeeID string, req OverrideBalanceRequest) (BalanceResponse, error)
}

type service struct {
	db     *sql.DB
	store  Store
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(db *sql.DB, store Store, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, store, nil, logger...)
}

func NewServiceWithOutbox(db *sql.DB, store Store, outboxRepo kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavebalance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavebalance.service")
	}
	return &service{db: db, store: store, outbox: outboxRepo, logger: l}
}

func currentYear() int {
	return time.Now().UTC().Year()
}

func (s *service) GetForEmployee(ctx context.Context, companyID, employeeID string) (BalanceResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return BalanceResponse{}, leavebalanceerrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(employeeID); err != nil {
		return BalanceResponse{}, leavebalanceerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("get balance begin tx failed", zap.Error(err))
		return BalanceResponse{}, err
	}
	defer tx.Rollback()

	b, err := s.store.WithTx(tx).GetOrCreate(ctx, companyID, employeeID, currentYear())
	if err != nil {
		return BalanceResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("get balance commit failed", zap.Error(err))
		return BalanceResponse{}, err
	}

	return mapToResponse(*b), nil
}

func (s *service) Override(ctx context.Context, companyID, actorID, employeeID string, req OverrideBalanceRequest) (BalanceResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("override balance requested",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("employee_id", employeeID),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return BalanceResponse{}, leavebalanceerrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(actorID); err != nil {
		return BalanceResponse{}, leavebalanceerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(employeeID); err != nil {
		return BalanceResponse{}, leavebalanceerrors.ErrInvalidEmployeeID
	}
	if req.Empty() {
		return BalanceResponse{}, leavebalanceerrors.ErrNoOverrideFields
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("override balance begin tx failed", zap.Error(err))
		return BalanceResponse{}, err
	}
	defer tx.Rollback()

	txStore := s.store.WithTx(tx)

	b, err := txStore.GetOrCreate(ctx, companyID, employeeID, currentYear())
	if err != nil {
		return BalanceResponse{}, err
	}

	applyOverride(b, req)

	if err := txStore.Save(ctx, b); err != nil {
		s.logger.Error("override balance persist failed",
			zap.String("balance_id", b.ID.String()),
			zap.Error(err),
		)
		return BalanceResponse{}, err
	}

	if s.outbox != nil {
		payload, err := json.Marshal(events.LeaveBalanceOverriddenEvent{
			EventType:    events.LeaveBalanceOverridden,
			BalanceID:    b.ID.String(),
			CompanyID:    companyID,
			EmployeeID:   employeeID,
			Year:         b.Year,
			OverriddenBy: actorID,
			OccurredAt:   time.Now().UTC(),
		})
		if err != nil {
			return BalanceResponse{}, err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.New().String(),
			RequestID:     rid,
			AggregateType: "leave_balance",
			AggregateID:   b.ID.String(),
			EventType:     events.LeaveBalanceOverridden,
			Topic:         events.LeaveBalanceTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("override balance outbox persist failed", zap.Error(err))
			return BalanceResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("override balance commit failed", zap.Error(err))
		return BalanceResponse{}, err
	}

	s.logger.Info("override balance success",
		zap.String("balance_id", b.ID.String()),
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
		zap.String("actor_id", actorID),
	)

	return mapToResponse(*b), nil
}

func applyOverride(b *LeaveBalance, req OverrideBalanceRequest) {
	if req.CasualLeaveUsed != nil {
		b.CasualLeaveUsed = *req.CasualLeaveUsed
	}
	if req.CasualLeaveBalance != nil {
		b.CasualLeaveBalance = *req.CasualLeaveBalance
	}
	if req.MedicalLeaveUsed != nil {
		b.MedicalLeaveUsed = *req.MedicalLeaveUsed
	}
	if req.MedicalLeaveBalance != nil {
		b.MedicalLeaveBalance = *req.MedicalLeaveBalance
	}
	if req.AnnualLeaveUsed != nil {
		b.AnnualLeaveUsed = *req.AnnualLeaveUsed
	}
	if req.AnnualLeaveBalance != nil {
		b.AnnualLeaveBalance = *req.AnnualLeaveBalance
	}
	if req.CarryForwardUsed != nil {
		b.CarryForwardUsed = *req.CarryForwardUsed
	}
	if req.CarryForwardBalance != nil {
		b.CarryForwardBalance = *req.CarryForwardBalance
	}
}

func mapToResponse(b LeaveBalance) BalanceResponse {
	resp := BalanceResponse{
		ID:                  b.ID.String(),
		CompanyID:           b.CompanyID.String(),
		EmployeeID:          b.EmployeeID.String(),
		Year:                b.Year,
		CasualLeaveUsed:     b.CasualLeaveUsed,
		CasualLeaveBalance:  b.CasualLeaveBalance,
		MedicalLeaveUsed:    b.MedicalLeaveUsed,
		MedicalLeaveBalance: b.MedicalLeaveBalance,
		AnnualLeaveUsed:     b.AnnualLeaveUsed,
		AnnualLeaveBalance:  b.AnnualLeaveBalance,
		CarryForwardUsed:    b.CarryForwardUsed,
		CarryForwardBalance: b.CarryForwardBalance,
		LastUpdated:         b.LastUpdated.Format(time.RFC3339),
	}
	if b.PolicyID != nil {
		v := b.PolicyID.String()
		resp.PolicyID = &v
	}
	return resp
}
