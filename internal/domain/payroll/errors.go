package payroll

import "errors"

var (
	ErrNotFound          = errors.New("payroll not found")
	ErrPeriodNotFound    = errors.New("payroll period not found")
	ErrPeriodClosed      = errors.New("payroll period is closed")
	ErrInvalidRange      = errors.New("end date before start date")
	ErrAlreadyGenerating = errors.New("payslip generation already in progress")
	ErrWorkerBusy        = errors.New("background worker queue is full")
	ErrPayslipNotReady   = errors.New("payslip not generated yet")
	ErrForbidden         = errors.New("forbidden")
)
