package core

import "time"

type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	IsActive   bool       `json:"isActive"`
	MFAEnabled bool       `json:"mfaEnabled"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Employee struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	DepartmentID   string     `json:"departmentId,omitempty"`
	DepartmentName string     `json:"departmentName,omitempty"`
	FullName       string     `json:"fullName"`
	Designation    string     `json:"designation"`
	DateOfJoining  *time.Time `json:"dateOfJoining,omitempty"`
	BankAccount    string     `json:"bankAccount,omitempty"`
	IFSCCode       string     `json:"ifscCode,omitempty"`
	IsVerified     bool       `json:"isVerified"`
	PendingUpdate  bool       `json:"pendingUpdate"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type PaymentProfile struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employeeId"`
	BaseSalary   float64   `json:"baseSalary"`
	OvertimeRate float64   `json:"overtimeRate"`
	LastUpdated  time.Time `json:"lastUpdated"`
}
