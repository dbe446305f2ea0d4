package attendance

import "time"

type Record struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employeeId"`
	EmployeeName  string     `json:"employeeName,omitempty"`
	Date          time.Time  `json:"date"`
	CheckIn       *time.Time `json:"checkIn"`
	CheckOut      *time.Time `json:"checkOut"`
	Status        string     `json:"status"`
	HoursWorked   float64    `json:"hoursWorked"`
	OvertimeHours float64    `json:"overtimeHours"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type RecordListResult struct {
	Items []Record `json:"items"`
	Total int      `json:"total"`
}
