package leavebalance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go-leave/internal/shared/connection"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// typeColumns maps a leave type to its used/balance column pair. Column
// names come from this fixed table only, never from request input.
var typeColumns = map[string]struct {
	used    string
	balance string
}{
	TypeCasual:  {used: "casual_leave_used", balance: "casual_leave_balance"},
	TypeMedical: {used: "medical_leave_used", balance: "medical_leave_balance"},
	TypeAnnual:  {used: "annual_leave_used", balance: "annual_leave_balance"},
}

//go:generate mockgen -source=leavebalance_repo.go -destination=mock/leavebalance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	// Create inserts the row and reports whether it was inserted. A conflict
	// on the (company, employee, year) unique index is a no-op, not an
	// error, so a surrounding transaction stays usable.
	Create(ctx context.Context, b *LeaveBalance) (bool, error)
	FindByEmployeeAndYear(ctx context.Context, companyID, employeeID string, year int) (*LeaveBalance, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveBalance, error)
	// ApplyDelta performs the conditional decrement as one storage operation:
	// used += days, balance -= days, guarded by balance >= days in the WHERE
	// clause. It returns the number of rows updated; zero means the guard
	// rejected the decrement and nothing changed.
	ApplyDelta(ctx context.Context, companyID, id, leaveType string, days int) (int64, error)
	Save(ctx context.Context, b *LeaveBalance) error
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

func (r *repository) Create(ctx context.Context, b *LeaveBalance) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(b)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindByEmployeeAndYear(ctx context.Context, companyID, employeeID string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("employee_id = ?", employeeID).
		Where("year = ?", year).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ApplyDelta(ctx context.Context, companyID, id, leaveType string, days int) (int64, error) {
	cols, ok := typeColumns[leaveType]
	if !ok {
		return 0, fmt.Errorf("unknown leave type %q", leaveType)
	}

	query := fmt.Sprintf(`
UPDATE leave_balances
SET %s = %s + ?,
    %s = %s - ?,
    last_updated = NOW()
WHERE id = ?
  AND company_id = ?
  AND %s >= ?
`, cols.used, cols.used, cols.balance, cols.balance, cols.balance)

	res := r.db.WithContext(ctx).Exec(query, days, days, id, companyID, days)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) Save(ctx context.Context, b *LeaveBalance) error {
	b.LastUpdated = time.Now().UTC()
	return r.db.WithContext(ctx).Save(b).Error
}
