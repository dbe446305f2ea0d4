package leave

import "time"

type Request struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employeeId"`
	EmployeeName string    `json:"employeeName,omitempty"`
	Type         string    `json:"type"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	Days         int       `json:"days"`
	IsPaid       bool      `json:"isPaid"`
	Reason       string    `json:"reason"`
	Status       string    `json:"status"`
	ActionBy     string    `json:"actionBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Balance struct {
	EmployeeID string    `json:"employeeId"`
	Casual     int       `json:"casual"`
	Sick       int       `json:"sick"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type RequestListResult struct {
	Items []Request `json:"items"`
	Total int       `json:"total"`
}
