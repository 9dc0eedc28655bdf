package leavepolicy

import (
	"time"

	"github.com/google/uuid"
)

const (
	LevelEmployee     = "EMPLOYEE"
	LevelTeam         = "TEAM"
	LevelDepartment   = "DEPARTMENT"
	LevelOrganization = "ORGANIZATION"
)

// Fallback quotas used when no policy resolves at any level. Kept as one
// named value so the numbers exist in exactly one place.
const (
	DefaultCasualLeaveQuota  = 8
	DefaultMedicalLeaveQuota = 8
	DefaultAnnualLeaveQuota  = 0
)

type LeavePolicy struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_policies_company_level;uniqueIndex:idx_leave_policies_one_active"`

	// The partial unique index allows any number of inactive policies per
	// target but at most one active one.
	PolicyLevel string    `gorm:"type:varchar(20);not null;index:idx_leave_policies_company_level;uniqueIndex:idx_leave_policies_one_active,where:active"`
	TargetID    uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_policies_target;uniqueIndex:idx_leave_policies_one_active"`

	CasualLeaveQuota  int  `gorm:"type:int;not null;default:0"`
	MedicalLeaveQuota int  `gorm:"type:int;not null;default:0"`
	AnnualLeaveQuota  int  `gorm:"type:int;not null;default:0"`
	Active            bool `gorm:"not null;default:true"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeavePolicy) TableName() string {
	return "leave_policies"
}

// DefaultPolicy is the synthetic policy returned when resolution finds
// nothing at any level. It carries a nil ID so balances seeded from it can
// record that no stored policy applied.
func DefaultPolicy(companyID uuid.UUID) *LeavePolicy {
	return &LeavePolicy{
		ID:                uuid.Nil,
		CompanyID:         companyID,
		PolicyLevel:       LevelOrganization,
		TargetID:          companyID,
		CasualLeaveQuota:  DefaultCasualLeaveQuota,
		MedicalLeaveQuota: DefaultMedicalLeaveQuota,
		AnnualLeaveQuota:  DefaultAnnualLeaveQuota,
		Active:            true,
	}
}

func ValidLevel(level string) bool {
	switch level {
	case LevelEmployee, LevelTeam, LevelDepartment, LevelOrganization:
		return true
	default:
		return false
	}
}
