package leavepolicy_test

import (
	"context"
	"database/sql"
	"testing"

	"go-leave/internal/leavepolicy"
	leavepolicyerrors "go-leave/internal/leavepolicy/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type policyServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service leavepolicy.Service
	repo    *fakePolicyRepository
}

func setupPolicyServiceTest(t *testing.T) *policyServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakePolicyRepository{}
	svc := leavepolicy.NewService(db, repo)

	return &policyServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		service: svc,
		repo:    repo,
	}
}

func expectPolicyTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func intPtr(v int) *int { return &v }

func TestLeavePolicyService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	targetID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		deps := setupPolicyServiceTest(t)
		defer deps.db.Close()

		expectPolicyTx(t, deps.sqlMock, true)

		req := leavepolicy.CreatePolicyRequest{
			PolicyLevel:       leavepolicy.LevelTeam,
			TargetID:          targetID,
			CasualLeaveQuota:  intPtr(10),
			MedicalLeaveQuota: intPtr(12),
			AnnualLeaveQuota:  intPtr(15),
		}

		deps.repo.createFn = func(ctx context.Context, p *leavepolicy.LeavePolicy) error {
			assert.Equal(t, uuid.MustParse(companyID), p.CompanyID)
			assert.Equal(t, leavepolicy.LevelTeam, p.PolicyLevel)
			assert.Equal(t, uuid.MustParse(targetID), p.TargetID)
			assert.Equal(t, 10, p.CasualLeaveQuota)
			assert.True(t, p.Active)
			return nil
		}

		resp, err := deps.service.Create(ctx, companyID, actorID, req)

		assert.NoError(t, err)
		assert.Equal(t, leavepolicy.LevelTeam, resp.PolicyLevel)
		assert.Equal(t, 12, resp.MedicalLeaveQuota)
		assert.True(t, resp.Active)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative duplicate active policy for same target", func(t *testing.T) {
		deps := setupPolicyServiceTest(t)
		defer deps.db.Close()

		expectPolicyTx(t, deps.sqlMock, false)

		req := leavepolicy.CreatePolicyRequest{
			PolicyLevel:       leavepolicy.LevelTeam,
			TargetID:          targetID,
			CasualLeaveQuota:  intPtr(10),
			MedicalLeaveQuota: intPtr(12),
			AnnualLeaveQuota:  intPtr(15),
		}

		deps.repo.hasActiveForTargetFn = func(ctx context.Context, cid, level, tid string, excludeID *string) (bool, error) {
			assert.Equal(t, leavepolicy.LevelTeam, level)
			assert.Equal(t, targetID, tid)
			assert.Nil(t, excludeID)
			return true, nil
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req)

		assert.ErrorIs(t, err, leavepolicyerrors.ErrDuplicateActivePolicy)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative racing create loses to the unique index", func(t *testing.T) {
		deps := setupPolicyServiceTest(t)
		defer deps.db.Close()

		expectPolicyTx(t, deps.sqlMock, false)

		req := leavepolicy.CreatePolicyRequest{
			PolicyLevel:       leavepolicy.LevelTeam,
			TargetID:          targetID,
			CasualLeaveQuota:  intPtr(10),
			MedicalLeaveQuota: intPtr(12),
			AnnualLeaveQuota:  intPtr(15),
		}

		// The pre-check saw nothing, but a concurrent writer committed an
		// active policy for the same target before our insert.
		deps.repo.hasActiveForTargetFn = func(ctx context.Context, cid, level, tid string, excludeID *string) (bool, error) {
			return false, nil
		}
		deps.repo.createFn = func(ctx context.Context, p *leavepolicy.LeavePolicy) error {
			return &pgconn.PgError{Code: "23505"}
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req)

		assert.ErrorIs(t, err, leavepolicyerrors.ErrDuplicateActivePolicy)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success inactive policy skips duplicate check", func(t *testing.T) {
		deps := setupPolicyServiceTest(t)
		defer deps.db.Close()

		expectPolicyTx(t, deps.sqlMock, true)

		inactive := false
		req := leavepolicy.CreatePolicyRequest{
			PolicyLevel:       leavepolicy.LevelTeam,
			TargetID:          targetID,
			CasualLeaveQuota:  intPtr(10),
			MedicalLeaveQuota: intPtr(12),
			AnnualLeaveQuota:  intPtr(15),
			Active:            &inactive,
		}

		deps.repo.hasActiveForTargetFn = func(ctx context.Context, cid, level, tid string, excludeID *string) (bool, error) {
			t.Fatal("inactive policies must not run the duplicate check")
			return false, nil
		}

		resp, err := deps.service.Create(ctx, companyID, actorID, req)

		assert.NoError(t, err)
		assert.False(t, resp.Active)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative invalid policy level", func(t *testing.T) {
		deps := setupPolicyServiceTest(t)
		defer deps.db.Close()

		req := leavepolicy.CreatePolicyRequest{
			PolicyLevel:       "SQUAD",
			TargetID:          targetID,
			CasualLeaveQuota:  intPtr(10),
			MedicalLeaveQuota: intPtr(12),
			AnnualLeaveQuota:  intPtr(15),
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req)
		assert.ErrorIs(t, err, leavepolicyerrors.ErrInvalidPolicyLevel)
	})
}

func TestLeavePolicyService_Update(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()

	t.Run("negative policy not found", func(t *testing.T) {
		deps := setupPolicyServiceTest(t)
		defer deps.db.Close()

		expectPolicyTx(t, deps.sqlMock, false)

		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leavepolicy.LeavePolicy, error) {
			return nil, gorm.ErrRecordNotFound
		}

		_, err := deps.service.Update(ctx, companyID, uuid.New().String(), leavepolicy.UpdatePolicyRequest{})
		assert.ErrorIs(t, err, leavepolicyerrors.ErrPolicyNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}
