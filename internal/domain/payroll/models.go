package payroll

import "time"

type Period struct {
	ID        string    `json:"id"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsClosed  bool      `json:"isClosed"`
	CreatedAt time.Time `json:"createdAt"`
}

type Payroll struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName,omitempty"`
	PeriodID     string     `json:"periodId"`
	Gross        float64    `json:"gross"`
	OvertimePay  float64    `json:"overtimePay"`
	Deductions   float64    `json:"deductions"`
	Net          float64    `json:"net"`
	Status       string     `json:"status"`
	IsGenerating bool       `json:"isGenerating"`
	PayslipFile  string     `json:"payslipFile,omitempty"`
	GeneratedAt  *time.Time `json:"generatedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type RunResult struct {
	PeriodID  string `json:"periodId"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
}
