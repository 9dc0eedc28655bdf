package leavepolicy

import (
	"context"
	"errors"

	"go-leave/internal/directory"
	"go-leave/internal/shared/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Resolver walks the organizational hierarchy and returns the single most
// specific active policy for an employee. It always returns a usable policy:
// if nothing matches at any level the synthetic default applies.
//
//go:generate mockgen -source=leavepolicy_resolver.go -destination=mock/leavepolicy_resolver_mock.go -package=mock
type Resolver interface {
	Resolve(ctx context.Context, companyID, employeeID string) (*LeavePolicy, error)
}

type resolver struct {
	repo   Repository
	dir    directory.Directory
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewResolver(repo Repository, dir directory.Directory, logger ...*zap.Logger) Resolver {
	l := zap.L().Named("leavepolicy.resolver")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavepolicy.resolver")
	}
	return &resolver{
		repo:   repo,
		dir:    dir,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

// lookup is one step of the resolution chain. Steps run in specificity
// order; the first one that yields a policy wins.
type lookup struct {
	level   string
	targets func(ctx context.Context, companyID, employeeID string) ([]string, error)
}

func (r *resolver) chain() []lookup {
	return []lookup{
		{
			level: LevelEmployee,
			targets: func(ctx context.Context, companyID, employeeID string) ([]string, error) {
				return []string{employeeID}, nil
			},
		},
		{
			level: LevelTeam,
			targets: func(ctx context.Context, companyID, employeeID string) ([]string, error) {
				teams, err := r.dir.TeamsForEmployee(ctx, companyID, employeeID)
				if err != nil {
					return nil, apperror.DependencyUnavailable(err)
				}
				return teams, nil
			},
		},
		{
			level: LevelDepartment,
			targets: func(ctx context.Context, companyID, employeeID string) ([]string, error) {
				dept, err := r.dir.DepartmentForEmployee(ctx, companyID, employeeID)
				if err != nil {
					return nil, apperror.DependencyUnavailable(err)
				}
				if dept == "" {
					return nil, nil
				}
				return []string{dept}, nil
			},
		},
		{
			level: LevelOrganization,
			targets: func(ctx context.Context, companyID, employeeID string) ([]string, error) {
				return []string{companyID}, nil
			},
		},
	}
}

func (r *resolver) Resolve(ctx context.Context, companyID, employeeID string) (*LeavePolicy, error) {
	key := companyID + ":" + employeeID
	v, err, _ := r.sf.Do(key, func() (any, error) {
		// The closure runs once for every coalesced caller, under whichever
		// context arrived first. Detach it so one cancelled request does not
		// fail all the waiters.
		return r.resolve(context.WithoutCancel(ctx), companyID, employeeID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*LeavePolicy), nil
}

func (r *resolver) resolve(ctx context.Context, companyID, employeeID string) (*LeavePolicy, error) {
	for _, step := range r.chain() {
		targets, err := step.targets(ctx, companyID, employeeID)
		if err != nil {
			return nil, err
		}
		if len(targets) == 0 {
			continue
		}

		p, err := r.repo.FindActiveByLevelAndTargets(ctx, companyID, step.level, targets)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, apperror.DependencyUnavailable(err)
		}

		r.logger.Debug("policy resolved",
			zap.String("company_id", companyID),
			zap.String("employee_id", employeeID),
			zap.String("policy_id", p.ID.String()),
			zap.String("policy_level", p.PolicyLevel),
		)
		return p, nil
	}

	r.logger.Debug("no policy resolved, using default",
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		companyUUID = uuid.Nil
	}
	return DefaultPolicy(companyUUID), nil
}
