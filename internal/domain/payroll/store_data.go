package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const payrollColumns = `
    p.id, p.employee_id, COALESCE(e.full_name, ''), p.period_id,
    p.gross, p.overtime_pay, p.deductions, p.net, p.status,
    p.is_generating, p.payslip_file, p.generated_at, p.created_at`

func (s *Store) CreatePeriod(ctx context.Context, start, end time.Time) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_periods (start_date, end_date) VALUES ($1, $2) RETURNING id
  `, start, end).Scan(&id)
	return id, err
}

func (s *Store) GetPeriod(ctx context.Context, periodID string) (*Period, error) {
	var p Period
	err := s.DB.QueryRow(ctx, `
    SELECT id, start_date, end_date, is_closed, created_at
    FROM payroll_periods
    WHERE id = $1
  `, periodID).Scan(&p.ID, &p.StartDate, &p.EndDate, &p.IsClosed, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPeriodNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPeriods(ctx context.Context) ([]Period, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, start_date, end_date, is_closed, created_at
    FROM payroll_periods
    ORDER BY start_date DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.StartDate, &p.EndDate, &p.IsClosed, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ClosePeriod(ctx context.Context, periodID string) error {
	cmd, err := s.DB.Exec(ctx, "UPDATE payroll_periods SET is_closed = true WHERE id = $1", periodID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (s *Store) FinalizeForPeriod(ctx context.Context, periodID string) (int, error) {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE payrolls SET status = $1 WHERE period_id = $2 AND status = $3
  `, StatusFinalized, periodID, StatusDraft)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func (s *Store) Get(ctx context.Context, payrollID string) (*Payroll, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+payrollColumns+`
    FROM payrolls p
    JOIN employees e ON e.id = p.employee_id
    WHERE p.id = $1
  `, payrollID)
	pr, err := scanPayroll(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return pr, err
}

func (s *Store) List(ctx context.Context, employeeID, periodID string, limit, offset int) ([]Payroll, error) {
	query := "SELECT " + payrollColumns + `
    FROM payrolls p
    JOIN employees e ON e.id = p.employee_id
    WHERE true`
	var args []any
	if employeeID != "" {
		query += fmt.Sprintf(" AND p.employee_id = $%d", len(args)+1)
		args = append(args, employeeID)
	}
	if periodID != "" {
		query += fmt.Sprintf(" AND p.period_id = $%d", len(args)+1)
		args = append(args, periodID)
	}
	query += fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payroll
	for rows.Next() {
		pr, err := scanPayroll(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *pr)
	}
	return out, rows.Err()
}

func (s *Store) Upsert(ctx context.Context, pr Payroll) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payrolls (employee_id, period_id, gross, overtime_pay, deductions, net, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (employee_id, period_id) DO UPDATE
      SET gross = EXCLUDED.gross,
          overtime_pay = EXCLUDED.overtime_pay,
          deductions = EXCLUDED.deductions,
          net = EXCLUDED.net,
          status = EXCLUDED.status
    RETURNING id
  `, pr.EmployeeID, pr.PeriodID, pr.Gross, pr.OvertimePay, pr.Deductions, pr.Net, pr.Status).Scan(&id)
	return id, err
}

// AcquireGenerationLock flips the single-flight flag with one conditional
// update. Zero rows affected means another generation currently owns the
// record; a lock older than staleAfter is treated as abandoned and taken
// over.
func (s *Store) AcquireGenerationLock(ctx context.Context, payrollID string, staleAfter time.Duration) (bool, error) {
	cutoff := time.Now().Add(-staleAfter)
	cmd, err := s.DB.Exec(ctx, `
    UPDATE payrolls
    SET is_generating = true, generation_started_at = now()
    WHERE id = $1
      AND (is_generating = false OR generation_started_at < $2)
  `, payrollID, cutoff)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (s *Store) FinishGeneration(ctx context.Context, payrollID, payslipFile string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE payrolls
    SET payslip_file = $1, generated_at = now(), is_generating = false
    WHERE id = $2
  `, payslipFile, payrollID)
	return err
}

// ClearGeneration releases the flag without recording a payslip. Called on
// every render failure so the flag cannot stay stuck.
func (s *Store) ClearGeneration(ctx context.Context, payrollID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE payrolls SET is_generating = false WHERE id = $1", payrollID)
	return err
}

// PayableEmployees lists verified employees with a payment profile, the
// population a payroll run covers.
func (s *Store) PayableEmployees(ctx context.Context) ([]PayableEmployee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.full_name, pp.base_salary, pp.overtime_rate
    FROM employees e
    JOIN payment_profiles pp ON pp.employee_id = e.id
    WHERE e.is_verified = true
    ORDER BY e.full_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PayableEmployee
	for rows.Next() {
		var pe PayableEmployee
		if err := rows.Scan(&pe.EmployeeID, &pe.FullName, &pe.BaseSalary, &pe.OvertimeRate); err != nil {
			return nil, err
		}
		out = append(out, pe)
	}
	return out, rows.Err()
}

type PayableEmployee struct {
	EmployeeID   string
	FullName     string
	BaseSalary   float64
	OvertimeRate float64
}

func scanPayroll(scan func(dest ...any) error) (*Payroll, error) {
	var pr Payroll
	if err := scan(
		&pr.ID, &pr.EmployeeID, &pr.EmployeeName, &pr.PeriodID,
		&pr.Gross, &pr.OvertimePay, &pr.Deductions, &pr.Net, &pr.Status,
		&pr.IsGenerating, &pr.PayslipFile, &pr.GeneratedAt, &pr.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &pr, nil
}
