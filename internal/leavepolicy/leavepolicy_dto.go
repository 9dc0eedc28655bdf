package leavepolicy

type CreatePolicyRequest struct {
	PolicyLevel       string `json:"policy_level" binding:"required,oneof=EMPLOYEE TEAM DEPARTMENT ORGANIZATION"`
	TargetID          string `json:"target_id" binding:"required,uuid"`
	CasualLeaveQuota  *int   `json:"casual_leave_quota" binding:"required,min=0"`
	MedicalLeaveQuota *int   `json:"medical_leave_quota" binding:"required,min=0"`
	AnnualLeaveQuota  *int   `json:"annual_leave_quota" binding:"required,min=0"`
	Active            *bool  `json:"active"`
}

type UpdatePolicyRequest struct {
	PolicyLevel       *string `json:"policy_level" binding:"omitempty,oneof=EMPLOYEE TEAM DEPARTMENT ORGANIZATION"`
	TargetID          *string `json:"target_id" binding:"omitempty,uuid"`
	CasualLeaveQuota  *int    `json:"casual_leave_quota" binding:"omitempty,min=0"`
	MedicalLeaveQuota *int    `json:"medical_leave_quota" binding:"omitempty,min=0"`
	AnnualLeaveQuota  *int    `json:"annual_leave_quota" binding:"omitempty,min=0"`
	Active            *bool   `json:"active"`
}

type PolicyResponse struct {
	ID                string `json:"id"`
	CompanyID         string `json:"company_id"`
	PolicyLevel       string `json:"policy_level"`
	TargetID          string `json:"target_id"`
	CasualLeaveQuota  int    `json:"casual_leave_quota"`
	MedicalLeaveQuota int    `json:"medical_leave_quota"`
	AnnualLeaveQuota  int    `json:"annual_leave_quota"`
	Active            bool   `json:"active"`
	CreatedBy         string `json:"created_by"`
}
