package payroll

import "math"

// ComputePay derives one payroll line from the employee's payment profile
// and the period's overtime hours. Gross is the base salary alone; overtime
// is paid on top at the profile rate.
func ComputePay(baseSalary, overtimeRate, overtimeHours, deductions float64) (gross, overtimePay, net float64) {
	gross = round2(baseSalary)
	overtimePay = round2(overtimeRate * overtimeHours)
	net = round2(gross + overtimePay - deductions)
	return gross, overtimePay, net
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
