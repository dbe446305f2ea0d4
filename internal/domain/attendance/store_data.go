package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const recordColumns = `
    a.id, a.employee_id, COALESCE(e.full_name, ''), a.date, a.check_in, a.check_out, a.status, a.created_at`

func (s *Store) GetForDate(ctx context.Context, employeeID string, date time.Time) (*Record, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+recordColumns+`
    FROM attendances a
    JOIN employees e ON e.id = a.employee_id
    WHERE a.employee_id = $1 AND a.date = $2
  `, employeeID, date)
	rec, err := scanRecord(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (s *Store) Get(ctx context.Context, recordID string) (*Record, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+recordColumns+`
    FROM attendances a
    JOIN employees e ON e.id = a.employee_id
    WHERE a.id = $1
  `, recordID)
	rec, err := scanRecord(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// CreateForDate inserts the day's record; a concurrent insert for the same
// (employee, date) loses on the unique constraint and falls back to the
// existing row.
func (s *Store) CreateForDate(ctx context.Context, employeeID string, date time.Time, checkIn time.Time, status string) (*Record, error) {
	var rec Record
	err := s.DB.QueryRow(ctx, `
    INSERT INTO attendances (employee_id, date, check_in, status)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (employee_id, date) DO NOTHING
    RETURNING id, employee_id, date, check_in, check_out, status, created_at
  `, employeeID, date, checkIn, status).Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CheckIn, &rec.CheckOut, &rec.Status, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.GetForDate(ctx, employeeID, date)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) SetCheckIn(ctx context.Context, recordID string, checkIn time.Time, status string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE attendances SET check_in = $1, status = $2 WHERE id = $3
  `, checkIn, status, recordID)
	return err
}

func (s *Store) SetCheckOut(ctx context.Context, recordID string, checkOut time.Time, status string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE attendances SET check_out = $1, status = $2 WHERE id = $3
  `, checkOut, status, recordID)
	return err
}

func (s *Store) List(ctx context.Context, employeeID string, from, to *time.Time, limit, offset int) (RecordListResult, error) {
	where := " FROM attendances a JOIN employees e ON e.id = a.employee_id WHERE true"
	var args []any
	if employeeID != "" {
		where += fmt.Sprintf(" AND a.employee_id = $%d", len(args)+1)
		args = append(args, employeeID)
	}
	if from != nil {
		where += fmt.Sprintf(" AND a.date >= $%d", len(args)+1)
		args = append(args, *from)
	}
	if to != nil {
		where += fmt.Sprintf(" AND a.date <= $%d", len(args)+1)
		args = append(args, *to)
	}

	var result RecordListResult
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+where, args...).Scan(&result.Total); err != nil {
		return result, err
	}

	query := "SELECT " + recordColumns + where +
		fmt.Sprintf(" ORDER BY a.date DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return result, err
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return result, err
		}
		result.Items = append(result.Items, *rec)
	}
	return result, rows.Err()
}

// OvertimeForRange sums overtime hours from completed attendance records in
// the date range, used by payroll runs.
func (s *Store) OvertimeForRange(ctx context.Context, employeeID string, from, to time.Time, standardShift float64) (float64, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT check_in, check_out
    FROM attendances
    WHERE employee_id = $1 AND date BETWEEN $2 AND $3
      AND check_in IS NOT NULL AND check_out IS NOT NULL
  `, employeeID, from, to)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var total float64
	for rows.Next() {
		var checkIn, checkOut time.Time
		if err := rows.Scan(&checkIn, &checkOut); err != nil {
			return 0, err
		}
		total += OvertimeHours(HoursWorked(checkIn, checkOut), standardShift)
	}
	return total, rows.Err()
}

func scanRecord(scan func(dest ...any) error) (*Record, error) {
	var rec Record
	if err := scan(
		&rec.ID, &rec.EmployeeID, &rec.EmployeeName, &rec.Date,
		&rec.CheckIn, &rec.CheckOut, &rec.Status, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}
