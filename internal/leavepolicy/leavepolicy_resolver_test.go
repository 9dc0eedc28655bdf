package leavepolicy_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"go-leave/internal/leavepolicy"
	"go-leave/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakePolicyRepository struct {
	findActiveByLevelAndTargetsFn func(ctx context.Context, companyID, level string, targetIDs []string) (*leavepolicy.LeavePolicy, error)
	hasActiveForTargetFn          func(ctx context.Context, companyID, level, targetID string, excludeID *string) (bool, error)
	createFn                      func(ctx context.Context, p *leavepolicy.LeavePolicy) error
	findAllByCompanyFn            func(ctx context.Context, companyID string) ([]leavepolicy.LeavePolicy, error)
	findByIDAndCompanyFn          func(ctx context.Context, companyID, id string) (*leavepolicy.LeavePolicy, error)
	updateFn                      func(ctx context.Context, p *leavepolicy.LeavePolicy) error
	deleteFn                      func(ctx context.Context, companyID, id string) error
}

func (f *fakePolicyRepository) WithTx(tx *sql.Tx) leavepolicy.Repository { return f }

func (f *fakePolicyRepository) Create(ctx context.Context, p *leavepolicy.LeavePolicy) error {
	if f.createFn != nil {
		return f.createFn(ctx, p)
	}
	return nil
}

func (f *fakePolicyRepository) FindAllByCompany(ctx context.Context, companyID string) ([]leavepolicy.LeavePolicy, error) {
	if f.findAllByCompanyFn != nil {
		return f.findAllByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakePolicyRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*leavepolicy.LeavePolicy, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePolicyRepository) Update(ctx context.Context, p *leavepolicy.LeavePolicy) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, p)
	}
	return nil
}

func (f *fakePolicyRepository) Delete(ctx context.Context, companyID, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, companyID, id)
	}
	return nil
}

func (f *fakePolicyRepository) FindActiveByLevelAndTargets(ctx context.Context, companyID, level string, targetIDs []string) (*leavepolicy.LeavePolicy, error) {
	if f.findActiveByLevelAndTargetsFn != nil {
		return f.findActiveByLevelAndTargetsFn(ctx, companyID, level, targetIDs)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePolicyRepository) HasActiveForTarget(ctx context.Context, companyID, level, targetID string, excludeID *string) (bool, error) {
	if f.hasActiveForTargetFn != nil {
		return f.hasActiveForTargetFn(ctx, companyID, level, targetID, excludeID)
	}
	return false, nil
}

type fakeDirectory struct {
	teamsForEmployeeFn      func(ctx context.Context, companyID, employeeID string) ([]string, error)
	departmentForEmployeeFn func(ctx context.Context, companyID, employeeID string) (string, error)
}

func (f *fakeDirectory) EmployeeBelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error) {
	return true, nil
}

func (f *fakeDirectory) TeamsForEmployee(ctx context.Context, companyID, employeeID string) ([]string, error) {
	if f.teamsForEmployeeFn != nil {
		return f.teamsForEmployeeFn(ctx, companyID, employeeID)
	}
	return nil, nil
}

func (f *fakeDirectory) DepartmentForEmployee(ctx context.Context, companyID, employeeID string) (string, error) {
	if f.departmentForEmployeeFn != nil {
		return f.departmentForEmployeeFn(ctx, companyID, employeeID)
	}
	return "", nil
}

func policyAt(companyID string, level, targetID string) *leavepolicy.LeavePolicy {
	return &leavepolicy.LeavePolicy{
		ID:                uuid.New(),
		CompanyID:         uuid.MustParse(companyID),
		PolicyLevel:       level,
		TargetID:          uuid.MustParse(targetID),
		CasualLeaveQuota:  10,
		MedicalLeaveQuota: 12,
		AnnualLeaveQuota:  15,
		Active:            true,
	}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	employeeID := uuid.New().String()
	teamID := uuid.New().String()
	deptID := uuid.New().String()

	t.Run("employee level wins over everything", func(t *testing.T) {
		repo := &fakePolicyRepository{}
		dir := &fakeDirectory{}
		employeePolicy := policyAt(companyID, leavepolicy.LevelEmployee, employeeID)

		repo.findActiveByLevelAndTargetsFn = func(ctx context.Context, cid, level string, targetIDs []string) (*leavepolicy.LeavePolicy, error) {
			if level == leavepolicy.LevelEmployee {
				assert.Equal(t, []string{employeeID}, targetIDs)
				return employeePolicy, nil
			}
			t.Fatalf("resolution must stop at the employee level, got %s", level)
			return nil, gorm.ErrRecordNotFound
		}

		r := leavepolicy.NewResolver(repo, dir)
		p, err := r.Resolve(ctx, companyID, employeeID)

		assert.NoError(t, err)
		assert.Equal(t, employeePolicy.ID, p.ID)
	})

	t.Run("team level applies when no employee policy", func(t *testing.T) {
		repo := &fakePolicyRepository{}
		dir := &fakeDirectory{
			teamsForEmployeeFn: func(ctx context.Context, cid, eid string) ([]string, error) {
				return []string{teamID}, nil
			},
		}
		teamPolicy := policyAt(companyID, leavepolicy.LevelTeam, teamID)

		repo.findActiveByLevelAndTargetsFn = func(ctx context.Context, cid, level string, targetIDs []string) (*leavepolicy.LeavePolicy, error) {
			if level == leavepolicy.LevelTeam {
				assert.Equal(t, []string{teamID}, targetIDs)
				return teamPolicy, nil
			}
			return nil, gorm.ErrRecordNotFound
		}

		r := leavepolicy.NewResolver(repo, dir)
		p, err := r.Resolve(ctx, companyID, employeeID)

		assert.NoError(t, err)
		assert.Equal(t, teamPolicy.ID, p.ID)
	})

	t.Run("department level applies when no team policy", func(t *testing.T) {
		repo := &fakePolicyRepository{}
		dir := &fakeDirectory{
			departmentForEmployeeFn: func(ctx context.Context, cid, eid string) (string, error) {
				return deptID, nil
			},
		}
		deptPolicy := policyAt(companyID, leavepolicy.LevelDepartment, deptID)

		repo.findActiveByLevelAndTargetsFn = func(ctx context.Context, cid, level string, targetIDs []string) (*leavepolicy.LeavePolicy, error) {
			if level == leavepolicy.LevelDepartment {
				return deptPolicy, nil
			}
			return nil, gorm.ErrRecordNotFound
		}

		r := leavepolicy.NewResolver(repo, dir)
		p, err := r.Resolve(ctx, companyID, employeeID)

		assert.NoError(t, err)
		assert.Equal(t, deptPolicy.ID, p.ID)
	})

	t.Run("organization level is the last stored fallback", func(t *testing.T) {
		repo := &fakePolicyRepository{}
		dir := &fakeDirectory{}
		orgPolicy := policyAt(companyID, leavepolicy.LevelOrganization, companyID)

		repo.findActiveByLevelAndTargetsFn = func(ctx context.Context, cid, level string, targetIDs []string) (*leavepolicy.LeavePolicy, error) {
			if level == leavepolicy.LevelOrganization {
				assert.Equal(t, []string{companyID}, targetIDs)
				return orgPolicy, nil
			}
			return nil, gorm.ErrRecordNotFound
		}

		r := leavepolicy.NewResolver(repo, dir)
		p, err := r.Resolve(ctx, companyID, employeeID)

		assert.NoError(t, err)
		assert.Equal(t, orgPolicy.ID, p.ID)
	})

	t.Run("default policy when nothing matches anywhere", func(t *testing.T) {
		repo := &fakePolicyRepository{}
		dir := &fakeDirectory{}

		r := leavepolicy.NewResolver(repo, dir)
		p, err := r.Resolve(ctx, companyID, employeeID)

		assert.NoError(t, err)
		assert.Equal(t, uuid.Nil, p.ID)
		assert.Equal(t, leavepolicy.DefaultCasualLeaveQuota, p.CasualLeaveQuota)
		assert.Equal(t, leavepolicy.DefaultMedicalLeaveQuota, p.MedicalLeaveQuota)
		assert.Equal(t, leavepolicy.DefaultAnnualLeaveQuota, p.AnnualLeaveQuota)
		assert.True(t, p.Active)
	})

	t.Run("success cancelled caller does not poison coalesced lookups", func(t *testing.T) {
		repo := &fakePolicyRepository{}
		dir := &fakeDirectory{}
		employeePolicy := policyAt(companyID, leavepolicy.LevelEmployee, employeeID)

		repo.findActiveByLevelAndTargetsFn = func(ctx context.Context, cid, level string, targetIDs []string) (*leavepolicy.LeavePolicy, error) {
			assert.NoError(t, ctx.Err())
			return employeePolicy, nil
		}

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		r := leavepolicy.NewResolver(repo, dir)
		p, err := r.Resolve(cancelled, companyID, employeeID)

		assert.NoError(t, err)
		assert.Equal(t, employeePolicy.ID, p.ID)
	})

	t.Run("negative repository failure surfaces as dependency error", func(t *testing.T) {
		repo := &fakePolicyRepository{
			findActiveByLevelAndTargetsFn: func(ctx context.Context, cid, level string, targetIDs []string) (*leavepolicy.LeavePolicy, error) {
				return nil, errors.New("connection reset")
			},
		}
		dir := &fakeDirectory{}

		r := leavepolicy.NewResolver(repo, dir)
		_, err := r.Resolve(ctx, companyID, employeeID)

		assert.Error(t, err)
		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.CodeServiceUnavailable, appErr.Code)
	})

	t.Run("negative directory failure surfaces as dependency error", func(t *testing.T) {
		repo := &fakePolicyRepository{}
		dir := &fakeDirectory{
			teamsForEmployeeFn: func(ctx context.Context, cid, eid string) ([]string, error) {
				return nil, errors.New("connection reset")
			},
		}

		r := leavepolicy.NewResolver(repo, dir)
		_, err := r.Resolve(ctx, companyID, employeeID)

		assert.Error(t, err)
	})
}
