package payroll

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type payslipData struct {
	FullName    string
	Email       string
	Designation string
	Gross       float64
	OvertimePay float64
	Deductions  float64
	Net         float64
	StartDate   time.Time
	EndDate     time.Time
}

func (s *Store) payslipData(ctx context.Context, payrollID string) (payslipData, error) {
	var data payslipData
	err := s.DB.QueryRow(ctx, `
    SELECT e.full_name, u.email, e.designation,
           p.gross, p.overtime_pay, p.deductions, p.net,
           pp.start_date, pp.end_date
    FROM payrolls p
    JOIN employees e ON e.id = p.employee_id
    JOIN users u ON u.id = e.user_id
    JOIN payroll_periods pp ON pp.id = p.period_id
    WHERE p.id = $1
  `, payrollID).Scan(&data.FullName, &data.Email, &data.Designation,
		&data.Gross, &data.OvertimePay, &data.Deductions, &data.Net,
		&data.StartDate, &data.EndDate)
	return data, err
}

// RenderPayslip writes the payslip PDF for one payroll row and returns the
// file path.
func (s *Store) RenderPayslip(ctx context.Context, payrollID, dir string) (string, error) {
	data, err := s.payslipData(ctx, payrollID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(dir, payrollID+".pdf")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", data.FullName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", data.Email))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Designation: %s", data.Designation))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", data.StartDate.Format("2006-01-02"), data.EndDate.Format("2006-01-02")))
	pdf.Ln(10)
	pdf.Cell(0, 8, fmt.Sprintf("Gross: %.2f", data.Gross))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Overtime: %.2f", data.OvertimePay))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Deductions: %.2f", data.Deductions))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Net: %.2f", data.Net))

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}
