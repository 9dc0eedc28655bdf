package leavebalance

type OverrideBalanceRequest struct {
	CasualLeaveUsed     *int `json:"casual_leave_used" binding:"omitempty,min=0"`
	CasualLeaveBalance  *int `json:"casual_leave_balance" binding:"omitempty,min=0"`
	MedicalLeaveUsed    *int `json:"medical_leave_used" binding:"omitempty,min=0"`
	MedicalLeaveBalance *int `json:"medical_leave_balance" binding:"omitempty,min=0"`
	AnnualLeaveUsed     *int `json:"annual_leave_used" binding:"omitempty,min=0"`
	AnnualLeaveBalance  *int `json:"annual_leave_balance" binding:"omitempty,min=0"`
	CarryForwardUsed    *int `json:"carry_forward_used" binding:"omitempty,min=0"`
	CarryForwardBalance *int `json:"carry_forward_balance" binding:"omitempty,min=0"`
}

func (r OverrideBalanceRequest) Empty() bool {
	return r.CasualLeaveUsed == nil && r.CasualLeaveBalance == nil &&
		r.MedicalLeaveUsed == nil && r.MedicalLeaveBalance == nil &&
		r.AnnualLeaveUsed == nil && r.AnnualLeaveBalance == nil &&
		r.CarryForwardUsed == nil && r.CarryForwardBalance == nil
}

type BalanceResponse struct {
	ID                  string  `json:"id"`
	CompanyID           string  `json:"company_id"`
	EmployeeID          string  `json:"employee_id"`
	Year                int     `json:"year"`
	PolicyID            *string `json:"policy_id,omitempty"`
	CasualLeaveUsed     int     `json:"casual_leave_used"`
	CasualLeaveBalance  int     `json:"casual_leave_balance"`
	MedicalLeaveUsed    int     `json:"medical_leave_used"`
	MedicalLeaveBalance int     `json:"medical_leave_balance"`
	AnnualLeaveUsed     int     `json:"annual_leave_used"`
	AnnualLeaveBalance  int     `json:"annual_leave_balance"`
	CarryForwardUsed    int     `json:"carry_forward_used"`
	CarryForwardBalance int     `json:"carry_forward_balance"`
	LastUpdated         string  `json:"last_updated"`
}
