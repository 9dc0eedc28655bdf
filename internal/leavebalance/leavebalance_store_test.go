package leavebalance_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"go-leave/internal/leavebalance"
	leavebalanceerrors "go-leave/internal/leavebalance/errors"
	"go-leave/internal/leavepolicy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeBalanceRepository struct {
	withTxFn                func(tx *sql.Tx) leavebalance.Repository
	createFn                func(ctx context.Context, b *leavebalance.LeaveBalance) (bool, error)
	findByEmployeeAndYearFn func(ctx context.Context, companyID, employeeID string, year int) (*leavebalance.LeaveBalance, error)
	findByIDAndCompanyFn    func(ctx context.Context, companyID, id string) (*leavebalance.LeaveBalance, error)
	applyDeltaFn            func(ctx context.Context, companyID, id, leaveType string, days int) (int64, error)
	saveFn                  func(ctx context.Context, b *leavebalance.LeaveBalance) error
}

func (f *fakeBalanceRepository) WithTx(tx *sql.Tx) leavebalance.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeBalanceRepository) Create(ctx context.Context, b *leavebalance.LeaveBalance) (bool, error) {
	if f.createFn != nil {
		return f.createFn(ctx, b)
	}
	return true, nil
}

func (f *fakeBalanceRepository) FindByEmployeeAndYear(ctx context.Context, companyID, employeeID string, year int) (*leavebalance.LeaveBalance, error) {
	if f.findByEmployeeAndYearFn != nil {
		return f.findByEmployeeAndYearFn(ctx, companyID, employeeID, year)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBalanceRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*leavebalance.LeaveBalance, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBalanceRepository) ApplyDelta(ctx context.Context, companyID, id, leaveType string, days int) (int64, error) {
	if f.applyDeltaFn != nil {
		return f.applyDeltaFn(ctx, companyID, id, leaveType, days)
	}
	return 0, errors.New("unexpected ApplyDelta")
}

func (f *fakeBalanceRepository) Save(ctx context.Context, b *leavebalance.LeaveBalance) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, b)
	}
	return nil
}

type fakeResolver struct {
	resolveFn func(ctx context.Context, companyID, employeeID string) (*leavepolicy.LeavePolicy, error)
}

func (f *fakeResolver) Resolve(ctx context.Context, companyID, employeeID string) (*leavepolicy.LeavePolicy, error) {
	if f.resolveFn != nil {
		return f.resolveFn(ctx, companyID, employeeID)
	}
	return leavepolicy.DefaultPolicy(uuid.Nil), nil
}

func TestBalanceStore_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	employeeID := uuid.New().String()
	year := 2026

	t.Run("success returns existing row without resolving", func(t *testing.T) {
		existing := &leavebalance.LeaveBalance{
			ID:         uuid.New(),
			CompanyID:  uuid.MustParse(companyID),
			EmployeeID: uuid.MustParse(employeeID),
			Year:       year,
		}
		repo := &fakeBalanceRepository{
			findByEmployeeAndYearFn: func(ctx context.Context, cid, eid string, y int) (*leavebalance.LeaveBalance, error) {
				return existing, nil
			},
		}
		resolver := &fakeResolver{
			resolveFn: func(ctx context.Context, cid, eid string) (*leavepolicy.LeavePolicy, error) {
				t.Fatal("existing balance must not trigger resolution")
				return nil, nil
			},
		}

		store := leavebalance.NewStore(repo, resolver)
		b, err := store.GetOrCreate(ctx, companyID, employeeID, year)

		assert.NoError(t, err)
		assert.Equal(t, existing.ID, b.ID)
	})

	t.Run("success seeds new row from resolved policy", func(t *testing.T) {
		policyID := uuid.New()
		repo := &fakeBalanceRepository{}
		resolver := &fakeResolver{
			resolveFn: func(ctx context.Context, cid, eid string) (*leavepolicy.LeavePolicy, error) {
				return &leavepolicy.LeavePolicy{
					ID:                policyID,
					PolicyLevel:       leavepolicy.LevelTeam,
					CasualLeaveQuota:  10,
					MedicalLeaveQuota: 12,
					AnnualLeaveQuota:  15,
					Active:            true,
				}, nil
			},
		}

		var created *leavebalance.LeaveBalance
		repo.createFn = func(ctx context.Context, b *leavebalance.LeaveBalance) (bool, error) {
			created = b
			return true, nil
		}

		store := leavebalance.NewStore(repo, resolver)
		b, err := store.GetOrCreate(ctx, companyID, employeeID, year)

		assert.NoError(t, err)
		assert.NotNil(t, created)
		assert.Equal(t, 10, b.CasualLeaveBalance)
		assert.Equal(t, 12, b.MedicalLeaveBalance)
		assert.Equal(t, 15, b.AnnualLeaveBalance)
		assert.Equal(t, 0, b.CasualLeaveUsed)
		assert.NotNil(t, b.PolicyID)
		assert.Equal(t, policyID, *b.PolicyID)
	})

	t.Run("success default policy seeds 8/8/0 with nil policy id", func(t *testing.T) {
		repo := &fakeBalanceRepository{}
		resolver := &fakeResolver{}

		store := leavebalance.NewStore(repo, resolver)
		b, err := store.GetOrCreate(ctx, companyID, employeeID, year)

		assert.NoError(t, err)
		assert.Equal(t, 8, b.CasualLeaveBalance)
		assert.Equal(t, 8, b.MedicalLeaveBalance)
		assert.Equal(t, 0, b.AnnualLeaveBalance)
		assert.Nil(t, b.PolicyID)
	})

	t.Run("success concurrent insert resolves to the committed row", func(t *testing.T) {
		existing := &leavebalance.LeaveBalance{
			ID:         uuid.New(),
			CompanyID:  uuid.MustParse(companyID),
			EmployeeID: uuid.MustParse(employeeID),
			Year:       year,
		}

		calls := 0
		repo := &fakeBalanceRepository{
			findByEmployeeAndYearFn: func(ctx context.Context, cid, eid string, y int) (*leavebalance.LeaveBalance, error) {
				calls++
				if calls == 1 {
					return nil, gorm.ErrRecordNotFound
				}
				return existing, nil
			},
			createFn: func(ctx context.Context, b *leavebalance.LeaveBalance) (bool, error) {
				// Conflict on the unique index: the insert is a no-op and no
				// error reaches the caller's transaction.
				return false, nil
			},
		}

		store := leavebalance.NewStore(repo, &fakeResolver{})
		b, err := store.GetOrCreate(ctx, companyID, employeeID, year)

		assert.NoError(t, err)
		assert.Equal(t, existing.ID, b.ID)
		assert.Equal(t, 2, calls)
	})
}

func TestBalanceStore_ApplyDelta(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	balanceID := uuid.New().String()

	t.Run("success refetches row after decrement", func(t *testing.T) {
		repo := &fakeBalanceRepository{
			applyDeltaFn: func(ctx context.Context, cid, id, leaveType string, days int) (int64, error) {
				assert.Equal(t, leavebalance.TypeCasual, leaveType)
				assert.Equal(t, 3, days)
				return 1, nil
			},
			findByIDAndCompanyFn: func(ctx context.Context, cid, id string) (*leavebalance.LeaveBalance, error) {
				return &leavebalance.LeaveBalance{
					ID:                 uuid.MustParse(balanceID),
					CasualLeaveUsed:    3,
					CasualLeaveBalance: 5,
				}, nil
			},
		}

		store := leavebalance.NewStore(repo, &fakeResolver{})
		b, err := store.ApplyDelta(ctx, companyID, balanceID, leavebalance.TypeCasual, 3)

		assert.NoError(t, err)
		assert.Equal(t, 3, b.CasualLeaveUsed)
		assert.Equal(t, 5, b.CasualLeaveBalance)
	})

	t.Run("negative guard rejects over-debit", func(t *testing.T) {
		repo := &fakeBalanceRepository{
			applyDeltaFn: func(ctx context.Context, cid, id, leaveType string, days int) (int64, error) {
				return 0, nil
			},
		}

		store := leavebalance.NewStore(repo, &fakeResolver{})
		_, err := store.ApplyDelta(ctx, companyID, balanceID, leavebalance.TypeCasual, 99)

		assert.ErrorIs(t, err, leavebalanceerrors.ErrInsufficientBalance)
	})

	t.Run("negative unknown leave type", func(t *testing.T) {
		store := leavebalance.NewStore(&fakeBalanceRepository{}, &fakeResolver{})
		_, err := store.ApplyDelta(ctx, companyID, balanceID, "SABBATICAL", 1)
		assert.ErrorIs(t, err, leavebalanceerrors.ErrInvalidLeaveType)
	})

	t.Run("negative zero days", func(t *testing.T) {
		store := leavebalance.NewStore(&fakeBalanceRepository{}, &fakeResolver{})
		_, err := store.ApplyDelta(ctx, companyID, balanceID, leavebalance.TypeCasual, 0)
		assert.ErrorIs(t, err, leavebalanceerrors.ErrInvalidDays)
	})
}
