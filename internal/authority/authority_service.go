package authority

import (
	"context"
	"sync"

	"go-leave/internal/shared/apperror"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

const (
	ResourceSystem = "system"
	ResourceUsers  = "users"
	ActionAdmin    = "admin"
	ActionManage   = "manage"
)

type EnforceRequest struct {
	EmployeeID string
	CompanyID  string
	Resource   string
	Action     string
}

// Service is the single place the "may this actor act on leave data of
// others" rule lives. An authority holds the system admin capability or the
// manage-users capability; nothing else grants approval rights.
//
//go:generate mockgen -source=authority_service.go -destination=mock/authority_service_mock.go -package=mock
type Service interface {
	Enforce(req EnforceRequest) (bool, error)
	IsAuthority(ctx context.Context, companyID, actorID string) (bool, error)
	CanApprove(ctx context.Context, companyID, actorID, ownerEmployeeID string) (bool, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	logger   *zap.Logger
	mu       sync.Mutex
}

func NewService(repo Repository, enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("authority.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("authority.service")
	}
	return &service{
		repo:     repo,
		enforcer: enforcer,
		logger:   l,
	}
}

func (s *service) loadCompanyPolicyUnlocked(companyID string) error {
	s.enforcer.ClearPolicy()

	employeeRoles, err := s.repo.GetEmployeeRoles(companyID)
	if err != nil {
		return err
	}

	for _, er := range employeeRoles {
		if _, err := s.enforcer.AddGroupingPolicy(er.EmployeeID, er.RoleID, companyID); err != nil {
			return err
		}
	}

	rolePerms, err := s.repo.GetRolePermissions(companyID)
	if err != nil {
		return err
	}

	for _, rp := range rolePerms {
		if _, err := s.enforcer.AddPolicy(rp.RoleID, companyID, rp.Resource, rp.Action); err != nil {
			return err
		}
	}

	return nil
}

func (s *service) Enforce(req EnforceRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadCompanyPolicyUnlocked(req.CompanyID); err != nil {
		return false, apperror.DependencyUnavailable(err)
	}

	allowed, err := s.enforcer.Enforce(
		req.EmployeeID,
		req.CompanyID,
		req.Resource,
		req.Action,
	)
	if err != nil {
		s.logger.Error("enforce failed",
			zap.String("employee_id", req.EmployeeID),
			zap.String("company_id", req.CompanyID),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, apperror.DependencyUnavailable(err)
	}

	s.logger.Debug("enforce result",
		zap.String("employee_id", req.EmployeeID),
		zap.String("company_id", req.CompanyID),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)

	return allowed, nil
}

func (s *service) IsAuthority(ctx context.Context, companyID, actorID string) (bool, error) {
	admin, err := s.Enforce(EnforceRequest{
		EmployeeID: actorID,
		CompanyID:  companyID,
		Resource:   ResourceSystem,
		Action:     ActionAdmin,
	})
	if err != nil {
		return false, err
	}
	if admin {
		return true, nil
	}

	return s.Enforce(EnforceRequest{
		EmployeeID: actorID,
		CompanyID:  companyID,
		Resource:   ResourceUsers,
		Action:     ActionManage,
	})
}

// CanApprove answers whether actorID may approve or reject a request owned
// by ownerEmployeeID. Only authorities may decide requests; owners without
// the capability can merely cancel their own pending ones.
func (s *service) CanApprove(ctx context.Context, companyID, actorID, ownerEmployeeID string) (bool, error) {
	return s.IsAuthority(ctx, companyID, actorID)
}
