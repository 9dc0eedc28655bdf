package events

import "time"

const (
	LeaveRequestTopic = "hr.leave.request.v1"
	LeaveBalanceTopic = "hr.leave.balance.v1"
)

const (
	LeaveRequestApproved   = "leave.request.approved"
	LeaveRequestRejected   = "leave.request.rejected"
	LeaveRequestCancelled  = "leave.request.cancelled"
	LeaveBalanceOverridden = "leave.balance.overridden"
)

type LeaveRequestDecidedEvent struct {
	EventType       string    `json:"event_type"`
	LeaveRequestID  string    `json:"leave_request_id"`
	CompanyID       string    `json:"company_id"`
	EmployeeID      string    `json:"employee_id"`
	LeaveType       string    `json:"leave_type"`
	TotalDays       int       `json:"total_days"`
	Status          string    `json:"status"`
	DecidedBy       string    `json:"decided_by"`
	RejectionReason *string   `json:"rejection_reason,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type LeaveBalanceOverriddenEvent struct {
	EventType    string    `json:"event_type"`
	BalanceID    string    `json:"balance_id"`
	CompanyID    string    `json:"company_id"`
	EmployeeID   string    `json:"employee_id"`
	Year         int       `json:"year"`
	OverriddenBy string    `json:"overridden_by"`
	OccurredAt   time.Time `json:"occurred_at"`
}
