package leavepolicy

import (
	"context"
	"database/sql"
	"errors"
	"time"

	leavepolicyerrors "go-leave/internal/leavepolicy/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isDuplicateActive reports whether err is the one-active-policy-per-target
// unique index rejecting a write. The pre-check in Create/Update races with
// concurrent writers; the index is the authoritative guard.
func isDuplicateActive(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

//go:generate mockgen -source=leavepolicy_service.go -destination=mock/leavepolicy_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreatePolicyRequest) (PolicyResponse, error)
	GetAll(ctx context.Context, companyID string) ([]PolicyResponse, error)
	Update(ctx context.Context, companyID, id string, req UpdatePolicyRequest) (PolicyResponse, error)
	Delete(ctx context.Context, companyID, id string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavepolicy.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavepolicy.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) Create(ctx context.Context, companyID, actorID string, req CreatePolicyRequest) (PolicyResponse, error) {
	s.logger.Debug("create policy requested",
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("policy_level", req.PolicyLevel),
		zap.String("target_id", req.TargetID),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return PolicyResponse{}, leavepolicyerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return PolicyResponse{}, leavepolicyerrors.ErrInvalidActorID
	}
	targetUUID, err := uuid.Parse(req.TargetID)
	if err != nil {
		return PolicyResponse{}, leavepolicyerrors.ErrInvalidTargetID
	}
	if !ValidLevel(req.PolicyLevel) {
		return PolicyResponse{}, leavepolicyerrors.ErrInvalidPolicyLevel
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create policy begin tx failed", zap.Error(err))
		return PolicyResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	// At most one active policy may exist per (level, target). The resolver
	// does not deduplicate, so the write path is where this holds.
	if active {
		exists, err := qtx.HasActiveForTarget(ctx, companyID, req.PolicyLevel, req.TargetID, nil)
		if err != nil {
			s.logger.Error("create policy duplicate check failed", zap.Error(err))
			return PolicyResponse{}, err
		}
		if exists {
			return PolicyResponse{}, leavepolicyerrors.ErrDuplicateActivePolicy
		}
	}

	p := &LeavePolicy{
		ID:                uuid.New(),
		CompanyID:         companyUUID,
		PolicyLevel:       req.PolicyLevel,
		TargetID:          targetUUID,
		CasualLeaveQuota:  *req.CasualLeaveQuota,
		MedicalLeaveQuota: *req.MedicalLeaveQuota,
		AnnualLeaveQuota:  *req.AnnualLeaveQuota,
		Active:            active,
		CreatedBy:         actorUUID,
	}

	if err := qtx.Create(ctx, p); err != nil {
		if isDuplicateActive(err) {
			return PolicyResponse{}, leavepolicyerrors.ErrDuplicateActivePolicy
		}
		s.logger.Error("create policy persist failed", zap.Error(err))
		return PolicyResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create policy commit failed", zap.Error(err))
		return PolicyResponse{}, err
	}
	s.logger.Info("create policy success",
		zap.String("policy_id", p.ID.String()),
		zap.String("company_id", companyID),
		zap.String("policy_level", p.PolicyLevel),
	)

	return mapToResponse(*p), nil
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]PolicyResponse, error) {
	policies, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	resp := make([]PolicyResponse, len(policies))
	for i, p := range policies {
		resp[i] = mapToResponse(p)
	}
	return resp, nil
}

func (s *service) Update(ctx context.Context, companyID, id string, req UpdatePolicyRequest) (PolicyResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update policy begin tx failed", zap.Error(err))
		return PolicyResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	p, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PolicyResponse{}, leavepolicyerrors.ErrPolicyNotFound
		}
		return PolicyResponse{}, err
	}

	if req.PolicyLevel != nil {
		if !ValidLevel(*req.PolicyLevel) {
			return PolicyResponse{}, leavepolicyerrors.ErrInvalidPolicyLevel
		}
		p.PolicyLevel = *req.PolicyLevel
	}
	if req.TargetID != nil {
		targetUUID, err := uuid.Parse(*req.TargetID)
		if err != nil {
			return PolicyResponse{}, leavepolicyerrors.ErrInvalidTargetID
		}
		p.TargetID = targetUUID
	}
	if req.CasualLeaveQuota != nil {
		p.CasualLeaveQuota = *req.CasualLeaveQuota
	}
	if req.MedicalLeaveQuota != nil {
		p.MedicalLeaveQuota = *req.MedicalLeaveQuota
	}
	if req.AnnualLeaveQuota != nil {
		p.AnnualLeaveQuota = *req.AnnualLeaveQuota
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if p.CasualLeaveQuota < 0 || p.MedicalLeaveQuota < 0 || p.AnnualLeaveQuota < 0 {
		return PolicyResponse{}, leavepolicyerrors.ErrInvalidQuota
	}

	if p.Active {
		exists, err := qtx.HasActiveForTarget(ctx, companyID, p.PolicyLevel, p.TargetID.String(), &id)
		if err != nil {
			return PolicyResponse{}, err
		}
		if exists {
			return PolicyResponse{}, leavepolicyerrors.ErrDuplicateActivePolicy
		}
	}

	p.UpdatedAt = time.Now().UTC()
	if err := qtx.Update(ctx, p); err != nil {
		if isDuplicateActive(err) {
			return PolicyResponse{}, leavepolicyerrors.ErrDuplicateActivePolicy
		}
		s.logger.Error("update policy persist failed", zap.String("policy_id", id), zap.Error(err))
		return PolicyResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update policy commit failed", zap.String("policy_id", id), zap.Error(err))
		return PolicyResponse{}, err
	}
	s.logger.Info("update policy success", zap.String("policy_id", id))

	return mapToResponse(*p), nil
}

func (s *service) Delete(ctx context.Context, companyID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if _, err := qtx.FindByIDAndCompany(ctx, companyID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return leavepolicyerrors.ErrPolicyNotFound
		}
		return err
	}
	if err := qtx.Delete(ctx, companyID, id); err != nil {
		return err
	}
	return tx.Commit()
}

func mapToResponse(p LeavePolicy) PolicyResponse {
	return PolicyResponse{
		ID:                p.ID.String(),
		CompanyID:         p.CompanyID.String(),
		PolicyLevel:       p.PolicyLevel,
		TargetID:          p.TargetID.String(),
		CasualLeaveQuota:  p.CasualLeaveQuota,
		MedicalLeaveQuota: p.MedicalLeaveQuota,
		AnnualLeaveQuota:  p.AnnualLeaveQuota,
		Active:            p.Active,
		CreatedBy:         p.CreatedBy.String(),
	}
}
