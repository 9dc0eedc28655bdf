package directory

import (
	"context"

	"gorm.io/gorm"
)

// Directory is the narrow read surface this subsystem consumes from the
// wider HR module. It never writes to the tables it reads.
//
//go:generate mockgen -source=directory.go -destination=mock/directory_mock.go -package=mock
type Directory interface {
	EmployeeBelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error)
	TeamsForEmployee(ctx context.Context, companyID, employeeID string) ([]string, error)
	DepartmentForEmployee(ctx context.Context, companyID, employeeID string) (string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Directory {
	return &repository{db: db}
}

func (r *repository) EmployeeBelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("employees").
		Where("id = ?", employeeID).
		Where("company_id = ?", companyID).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count > 0, err
}

func (r *repository) TeamsForEmployee(ctx context.Context, companyID, employeeID string) ([]string, error) {
	var teamIDs []string
	err := r.db.WithContext(ctx).
		Table("team_members").
		Select("team_members.team_id::text").
		Joins("JOIN teams ON teams.id = team_members.team_id").
		Where("team_members.employee_id = ?", employeeID).
		Where("teams.company_id = ?", companyID).
		Where("teams.deleted_at IS NULL").
		Scan(&teamIDs).Error
	return teamIDs, err
}

func (r *repository) DepartmentForEmployee(ctx context.Context, companyID, employeeID string) (string, error) {
	var departmentID string
	err := r.db.WithContext(ctx).
		Table("employees").
		Select("COALESCE(department_id::text, '')").
		Where("id = ?", employeeID).
		Where("company_id = ?", companyID).
		Where("deleted_at IS NULL").
		Scan(&departmentID).Error
	return departmentID, err
}
