package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const requestColumns = `
    r.id, r.employee_id, COALESCE(e.full_name, ''), r.type, r.start_date, r.end_date,
    r.days, r.is_paid, r.reason, r.status, COALESCE(r.action_by::text, ''), r.created_at`

func (s *Store) CreateRequest(ctx context.Context, req Request) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, type, start_date, end_date, days, is_paid, reason)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, req.EmployeeID, req.Type, req.StartDate, req.EndDate, req.Days, req.IsPaid, req.Reason).Scan(&id)
	return id, err
}

// HasBlockingDuplicate reports whether a request for the same employee and
// exact date range already exists in a status that blocks resubmission.
func (s *Store) HasBlockingDuplicate(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM leave_requests
    WHERE employee_id = $1 AND start_date = $2 AND end_date = $3
      AND status IN ($4, $5, $6)
  `, employeeID, start, end, StatusPending, StatusApproved, StatusRejected).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) GetRequest(ctx context.Context, requestID string) (*Request, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+requestColumns+`
    FROM leave_requests r
    JOIN employees e ON e.id = r.employee_id
    WHERE r.id = $1
  `, requestID)
	req, err := scanRequest(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return req, err
}

func (s *Store) ListRequests(ctx context.Context, employeeID, status string, limit, offset int) (RequestListResult, error) {
	where := " FROM leave_requests r JOIN employees e ON e.id = r.employee_id WHERE true"
	var args []any
	if employeeID != "" {
		where += fmt.Sprintf(" AND r.employee_id = $%d", len(args)+1)
		args = append(args, employeeID)
	}
	if status != "" {
		where += fmt.Sprintf(" AND r.status = $%d", len(args)+1)
		args = append(args, status)
	}

	var result RequestListResult
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+where, args...).Scan(&result.Total); err != nil {
		return result, err
	}

	query := "SELECT " + requestColumns + where +
		fmt.Sprintf(" ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return result, err
	}
	defer rows.Close()

	for rows.Next() {
		req, err := scanRequest(rows.Scan)
		if err != nil {
			return result, err
		}
		result.Items = append(result.Items, *req)
	}
	return result, rows.Err()
}

// GetRequestForUpdateTx locks the request row for the duration of the
// transaction so concurrent approvals serialize.
func (s *Store) GetRequestForUpdateTx(ctx context.Context, tx pgx.Tx, requestID string) (*Request, error) {
	row := tx.QueryRow(ctx, `
    SELECT id, employee_id, type, start_date, end_date, days, is_paid, reason, status, COALESCE(action_by::text, ''), created_at
    FROM leave_requests
    WHERE id = $1
    FOR UPDATE
  `, requestID)
	var req Request
	err := row.Scan(&req.ID, &req.EmployeeID, &req.Type, &req.StartDate, &req.EndDate,
		&req.Days, &req.IsPaid, &req.Reason, &req.Status, &req.ActionBy, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// LockBalanceTx returns the employee's balance row locked FOR UPDATE,
// creating a zero-default row first if none exists yet.
func (s *Store) LockBalanceTx(ctx context.Context, tx pgx.Tx, employeeID string) (*Balance, error) {
	if _, err := tx.Exec(ctx, `
    INSERT INTO leave_balances (employee_id) VALUES ($1)
    ON CONFLICT (employee_id) DO NOTHING
  `, employeeID); err != nil {
		return nil, err
	}

	var bal Balance
	err := tx.QueryRow(ctx, `
    SELECT employee_id, casual, sick, updated_at
    FROM leave_balances
    WHERE employee_id = $1
    FOR UPDATE
  `, employeeID).Scan(&bal.EmployeeID, &bal.Casual, &bal.Sick, &bal.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &bal, nil
}

func (s *Store) DebitBalanceTx(ctx context.Context, tx pgx.Tx, employeeID, leaveType string, days int) error {
	column := "casual"
	if leaveType == TypeSick {
		column = "sick"
	}
	_, err := tx.Exec(ctx, fmt.Sprintf(`
    UPDATE leave_balances
    SET %s = %s - $1, updated_at = now()
    WHERE employee_id = $2
  `, column, column), days, employeeID)
	return err
}

func (s *Store) UpdateRequestStatusTx(ctx context.Context, tx pgx.Tx, requestID, status, actionBy string) error {
	_, err := tx.Exec(ctx, `
    UPDATE leave_requests SET status = $1, action_by = $2 WHERE id = $3
  `, status, actionBy, requestID)
	return err
}

func (s *Store) GetBalance(ctx context.Context, employeeID string) (*Balance, error) {
	var bal Balance
	err := s.DB.QueryRow(ctx, `
    SELECT employee_id, casual, sick, updated_at
    FROM leave_balances
    WHERE employee_id = $1
  `, employeeID).Scan(&bal.EmployeeID, &bal.Casual, &bal.Sick, &bal.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &Balance{EmployeeID: employeeID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &bal, nil
}

func (s *Store) AdjustBalance(ctx context.Context, employeeID string, casualDelta, sickDelta int) (*Balance, error) {
	var bal Balance
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_balances (employee_id, casual, sick)
    VALUES ($1, GREATEST($2, 0), GREATEST($3, 0))
    ON CONFLICT (employee_id) DO UPDATE
      SET casual = leave_balances.casual + $2,
          sick = leave_balances.sick + $3,
          updated_at = now()
    RETURNING employee_id, casual, sick, updated_at
  `, employeeID, casualDelta, sickDelta).Scan(&bal.EmployeeID, &bal.Casual, &bal.Sick, &bal.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &bal, nil
}

func scanRequest(scan func(dest ...any) error) (*Request, error) {
	var req Request
	if err := scan(
		&req.ID, &req.EmployeeID, &req.EmployeeName, &req.Type, &req.StartDate, &req.EndDate,
		&req.Days, &req.IsPaid, &req.Reason, &req.Status, &req.ActionBy, &req.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
