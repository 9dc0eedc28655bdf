package leavepolicy

import (
	"context"
	"database/sql"

	"go-leave/internal/shared/connection"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leavepolicy_repo.go -destination=mock/leavepolicy_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, p *LeavePolicy) error
	FindAllByCompany(ctx context.Context, companyID string) ([]LeavePolicy, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeavePolicy, error)
	Update(ctx context.Context, p *LeavePolicy) error
	Delete(ctx context.Context, companyID, id string) error
	// FindActiveByLevelAndTargets returns the first active policy matching the
	// level and any of the target ids, or gorm.ErrRecordNotFound.
	FindActiveByLevelAndTargets(ctx context.Context, companyID, level string, targetIDs []string) (*LeavePolicy, error)
	HasActiveForTarget(ctx context.Context, companyID, level, targetID string, excludeID *string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	if tx == nil {
		return r
	}
	txdb, err := connection.GORMFromTx(tx)
	if err != nil {
		return r
	}
	return &repository{db: txdb}
}

func (r *repository) Create(ctx context.Context, p *LeavePolicy) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]LeavePolicy, error) {
	var policies []LeavePolicy
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&policies).Error
	return policies, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeavePolicy, error) {
	var p LeavePolicy
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		First(&p, "id = ?", id).Error
	return &p, err
}

func (r *repository) Update(ctx context.Context, p *LeavePolicy) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *repository) Delete(ctx context.Context, companyID, id string) error {
	return r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Delete(&LeavePolicy{}, "id = ?", id).Error
}

func (r *repository) FindActiveByLevelAndTargets(ctx context.Context, companyID, level string, targetIDs []string) (*LeavePolicy, error) {
	var p LeavePolicy
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("policy_level = ?", level).
		Where("target_id IN ?", targetIDs).
		Where("active = ?", true).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) HasActiveForTarget(ctx context.Context, companyID, level, targetID string, excludeID *string) (bool, error) {
	db := r.db.WithContext(ctx).
		Model(&LeavePolicy{}).
		Where("company_id = ?", companyID).
		Where("policy_level = ?", level).
		Where("target_id = ?", targetID).
		Where("active = ?", true)

	if excludeID != nil && *excludeID != "" {
		db = db.Where("id <> ?", *excludeID)
	}

	var count int64
	err := db.Count(&count).Error
	return count > 0, err
}
