package leaverequest

import (
	"context"
	"database/sql"

	"go-leave/internal/shared/connection"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leaverequest_repo.go -destination=mock/leaverequest_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, lr *LeaveRequest) error
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error)
	FindAllByCompany(ctx context.Context, companyID string, q ListQuery) ([]LeaveRequest, error)
	// UpdateFromPending writes a decision only if the stored row is still
	// PENDING, returning the number of rows updated. Zero means a concurrent
	// transition already committed and nothing changed.
	UpdateFromPending(ctx context.Context, lr *LeaveRequest) (int64, error)
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

func (r *repository) Create(ctx context.Context, lr *LeaveRequest) error {
	return r.db.WithContext(ctx).Create(lr).Error
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error) {
	var lr LeaveRequest
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		First(&lr, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lr, nil
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, q ListQuery) ([]LeaveRequest, error) {
	db := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if q.EmployeeID != "" {
		db = db.Where("employee_id = ?", q.EmployeeID)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}

	var out []LeaveRequest
	if err := db.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) UpdateFromPending(ctx context.Context, lr *LeaveRequest) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&LeaveRequest{}).
		Where("id = ? AND company_id = ? AND status = ?", lr.ID, lr.CompanyID, StatusPending).
		Updates(map[string]any{
			"status":           lr.Status,
			"approved_by":      lr.ApprovedBy,
			"approved_at":      lr.ApprovedAt,
			"rejected_by":      lr.RejectedBy,
			"rejected_at":      lr.RejectedAt,
			"rejection_reason": lr.RejectionReason,
		})
	return res.RowsAffected, res.Error
}
