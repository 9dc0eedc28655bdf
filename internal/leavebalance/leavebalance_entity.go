package leavebalance

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeCasual  = "CASUAL"
	TypeMedical = "MEDICAL"
	TypeAnnual  = "ANNUAL"
)

func ValidLeaveType(t string) bool {
	switch t {
	case TypeCasual, TypeMedical, TypeAnnual:
		return true
	default:
		return false
	}
}

// LeaveBalance is one row per (company, employee, year). For each leave type
// the sum used+balance stays at the quota seeded at creation unless an
// authority overrides it, and balance never goes below zero.
type LeaveBalance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_leave_balances_employee_year"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_leave_balances_employee_year"`
	Year       int       `gorm:"type:int;not null;uniqueIndex:idx_leave_balances_employee_year"`

	// PolicyID records which policy seeded this row; nil when the synthetic
	// default applied.
	PolicyID *uuid.UUID `gorm:"type:uuid"`

	CasualLeaveUsed     int `gorm:"type:int;not null;default:0"`
	CasualLeaveBalance  int `gorm:"type:int;not null;default:0"`
	MedicalLeaveUsed    int `gorm:"type:int;not null;default:0"`
	MedicalLeaveBalance int `gorm:"type:int;not null;default:0"`
	AnnualLeaveUsed     int `gorm:"type:int;not null;default:0"`
	AnnualLeaveBalance  int `gorm:"type:int;not null;default:0"`
	CarryForwardUsed    int `gorm:"type:int;not null;default:0"`
	CarryForwardBalance int `gorm:"type:int;not null;default:0"`

	LastUpdated time.Time `gorm:"not null"`
	CreatedAt   time.Time
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}
