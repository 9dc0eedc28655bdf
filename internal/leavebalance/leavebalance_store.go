package leavebalance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	leavebalanceerrors "go-leave/internal/leavebalance/errors"
	"go-leave/internal/leavepolicy"
	"go-leave/internal/shared/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store owns the per-(employee, year) balance row: lazy creation seeded
// from the resolved policy and bounded mutation that can never drive a
// balance negative.
//
//go:generate mockgen -source=leavebalance_store.go -destination=mock/leavebalance_store_mock.go -package=mock
type Store interface {
	WithTx(tx *sql.Tx) Store
	GetOrCreate(ctx context.Context, companyID, employeeID string, year int) (*LeaveBalance, error)
	ApplyDelta(ctx context.Context, companyID, balanceID, leaveType string, days int) (*LeaveBalance, error)
	// Save writes the row as-is. Only the administrative override path uses
	// it; everything else goes through ApplyDelta's guard.
	Save(ctx context.Context, b *LeaveBalance) error
}

type store struct {
	repo     Repository
	resolver leavepolicy.Resolver
	logger   *zap.Logger
}

func NewStore(repo Repository, resolver leavepolicy.Resolver, logger ...*zap.Logger) Store {
	l := zap.L().Named("leavebalance.store")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavebalance.store")
	}
	return &store{repo: repo, resolver: resolver, logger: l}
}

func (s *store) WithTx(tx *sql.Tx) Store {
	return &store{repo: s.repo.WithTx(tx), resolver: s.resolver, logger: s.logger}
}

func (s *store) GetOrCreate(ctx context.Context, companyID, employeeID string, year int) (*LeaveBalance, error) {
	b, err := s.repo.FindByEmployeeAndYear(ctx, companyID, employeeID, year)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.DependencyUnavailable(err)
	}

	policy, err := s.resolver.Resolve(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return nil, leavebalanceerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, leavebalanceerrors.ErrInvalidEmployeeID
	}

	var policyID *uuid.UUID
	if policy.ID != uuid.Nil {
		id := policy.ID
		policyID = &id
	}

	b = &LeaveBalance{
		ID:                  uuid.New(),
		CompanyID:           companyUUID,
		EmployeeID:          employeeUUID,
		Year:                year,
		PolicyID:            policyID,
		CasualLeaveUsed:     0,
		CasualLeaveBalance:  policy.CasualLeaveQuota,
		MedicalLeaveUsed:    0,
		MedicalLeaveBalance: policy.MedicalLeaveQuota,
		AnnualLeaveUsed:     0,
		AnnualLeaveBalance:  policy.AnnualLeaveQuota,
		CarryForwardUsed:    0,
		CarryForwardBalance: 0,
		LastUpdated:         time.Now().UTC(),
	}

	inserted, err := s.repo.Create(ctx, b)
	if err != nil {
		return nil, apperror.DependencyUnavailable(err)
	}
	if !inserted {
		// A concurrent caller created the row between the lookup and the
		// insert. The insert is a conflict no-op rather than an error, which
		// keeps a surrounding transaction alive for the refetch.
		existing, ferr := s.repo.FindByEmployeeAndYear(ctx, companyID, employeeID, year)
		if ferr != nil {
			return nil, apperror.DependencyUnavailable(ferr)
		}
		return existing, nil
	}

	s.logger.Info("leave balance created",
		zap.String("balance_id", b.ID.String()),
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
		zap.Int("year", year),
		zap.String("policy_level", policy.PolicyLevel),
	)

	return b, nil
}

func (s *store) ApplyDelta(ctx context.Context, companyID, balanceID, leaveType string, days int) (*LeaveBalance, error) {
	if !ValidLeaveType(leaveType) {
		return nil, leavebalanceerrors.ErrInvalidLeaveType
	}
	if days <= 0 {
		return nil, leavebalanceerrors.ErrInvalidDays
	}

	rows, err := s.repo.ApplyDelta(ctx, companyID, balanceID, leaveType, days)
	if err != nil {
		return nil, apperror.DependencyUnavailable(err)
	}
	if rows == 0 {
		s.logger.Warn("balance delta rejected",
			zap.String("balance_id", balanceID),
			zap.String("leave_type", leaveType),
			zap.Int("days", days),
		)
		return nil, leavebalanceerrors.ErrInsufficientBalance
	}

	b, err := s.repo.FindByIDAndCompany(ctx, companyID, balanceID)
	if err != nil {
		return nil, apperror.DependencyUnavailable(err)
	}
	return b, nil
}

func (s *store) Save(ctx context.Context, b *LeaveBalance) error {
	return s.repo.Save(ctx, b)
}
