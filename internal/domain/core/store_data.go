package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const employeeColumns = `
    e.id,
    e.user_id,
    COALESCE(e.department_id::text, ''),
    COALESCE(d.name, ''),
    e.full_name,
    e.designation,
    e.date_of_joining,
    e.bank_account,
    e.bank_account_enc,
    e.ifsc_code,
    e.is_verified,
    e.pending_update,
    e.created_at`

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name, created_at FROM departments ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var dep Department
		if err := rows.Scan(&dep.ID, &dep.Name, &dep.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, dep)
	}
	return out, rows.Err()
}

func (s *Store) CreateDepartment(ctx context.Context, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "INSERT INTO departments (name) VALUES ($1) RETURNING id", name).Scan(&id)
	return id, err
}

func (s *Store) UpdateDepartment(ctx context.Context, departmentID, name string) error {
	cmd, err := s.DB.Exec(ctx, "UPDATE departments SET name = $1 WHERE id = $2", name, departmentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DepartmentHasEmployees(ctx context.Context, departmentID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE department_id = $1", departmentID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) DeleteDepartment(ctx context.Context, departmentID string) error {
	cmd, err := s.DB.Exec(ctx, "DELETE FROM departments WHERE id = $1", departmentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountEmployees(ctx context.Context, departmentID string) (int, error) {
	query := "SELECT COUNT(1) FROM employees e WHERE true"
	var args []any
	if departmentID != "" {
		query += " AND e.department_id = $1"
		args = append(args, departmentID)
	}
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListEmployees(ctx context.Context, departmentID string, limit, offset int) ([]Employee, error) {
	query := "SELECT " + employeeColumns + `
    FROM employees e
    LEFT JOIN departments d ON d.id = e.department_id
    WHERE true`
	var args []any
	if departmentID != "" {
		query += fmt.Sprintf(" AND e.department_id = $%d", len(args)+1)
		args = append(args, departmentID)
	}
	query += fmt.Sprintf(" ORDER BY e.full_name LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows.Scan, s)
		if err != nil {
			return nil, err
		}
		out = append(out, *emp)
	}
	return out, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+employeeColumns+`
    FROM employees e
    LEFT JOIN departments d ON d.id = e.department_id
    WHERE e.id = $1
  `, employeeID)
	emp, err := scanEmployee(row.Scan, s)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return emp, err
}

func (s *Store) GetEmployeeByUserID(ctx context.Context, userID string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+employeeColumns+`
    FROM employees e
    LEFT JOIN departments d ON d.id = e.department_id
    WHERE e.user_id = $1
  `, userID)
	emp, err := scanEmployee(row.Scan, s)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoEmployeeProfile
	}
	return emp, err
}

func (s *Store) EmployeeIDByUserID(ctx context.Context, userID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM employees WHERE user_id = $1", userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoEmployeeProfile
	}
	return id, err
}

func (s *Store) UserIDByEmployeeID(ctx context.Context, employeeID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT user_id FROM employees WHERE id = $1", employeeID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}

func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (string, error) {
	bankPlain, bankEnc := s.encryptBankAccount(emp.BankAccount)
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (user_id, department_id, full_name, designation, date_of_joining,
      bank_account, bank_account_enc, ifsc_code, is_verified)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id
  `,
		emp.UserID, nullIfEmpty(emp.DepartmentID), emp.FullName, emp.Designation, emp.DateOfJoining,
		bankPlain, bankEnc, emp.IFSCCode, emp.IsVerified,
	).Scan(&id)
	return id, err
}

func (s *Store) UpdateEmployee(ctx context.Context, employeeID string, emp Employee, markPending bool) error {
	bankPlain, bankEnc := s.encryptBankAccount(emp.BankAccount)
	query := `
    UPDATE employees
    SET department_id = $1,
        full_name = $2,
        designation = $3,
        date_of_joining = $4,
        bank_account = $5,
        bank_account_enc = $6,
        ifsc_code = $7`
	if markPending {
		query += ", pending_update = true, is_verified = false"
	}
	query += " WHERE id = $8"
	cmd, err := s.DB.Exec(ctx, query,
		nullIfEmpty(emp.DepartmentID), emp.FullName, emp.Designation, emp.DateOfJoining,
		bankPlain, bankEnc, emp.IFSCCode, employeeID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) VerifyEmployee(ctx context.Context, employeeID string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE employees SET is_verified = true, pending_update = false WHERE id = $1
  `, employeeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetPaymentProfile(ctx context.Context, employeeID string) (*PaymentProfile, error) {
	var p PaymentProfile
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, base_salary, overtime_rate, last_updated
    FROM payment_profiles
    WHERE employee_id = $1
  `, employeeID).Scan(&p.ID, &p.EmployeeID, &p.BaseSalary, &p.OvertimeRate, &p.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpsertPaymentProfile(ctx context.Context, employeeID string, baseSalary, overtimeRate float64) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO payment_profiles (employee_id, base_salary, overtime_rate)
    VALUES ($1,$2,$3)
    ON CONFLICT (employee_id) DO UPDATE
      SET base_salary = EXCLUDED.base_salary,
          overtime_rate = EXCLUDED.overtime_rate,
          last_updated = now()
  `, employeeID, baseSalary, overtimeRate)
	return err
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, email, role, is_active, mfa_enabled, last_login, created_at
    FROM users
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Role, &u.IsActive, &u.MFAEnabled, &u.LastLogin, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users").Scan(&total)
	return total, err
}

func (s *Store) SetUserActive(ctx context.Context, userID string, active bool) error {
	cmd, err := s.DB.Exec(ctx, "UPDATE users SET is_active = $1 WHERE id = $2", active, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEmployee(scan func(dest ...any) error, s *Store) (*Employee, error) {
	var emp Employee
	var bankPlain string
	var bankEnc []byte
	if err := scan(
		&emp.ID, &emp.UserID, &emp.DepartmentID, &emp.DepartmentName,
		&emp.FullName, &emp.Designation, &emp.DateOfJoining,
		&bankPlain, &bankEnc, &emp.IFSCCode,
		&emp.IsVerified, &emp.PendingUpdate, &emp.CreatedAt,
	); err != nil {
		return nil, err
	}
	emp.BankAccount = s.decryptBankAccount(bankEnc, bankPlain)
	return &emp, nil
}

func (s *Store) encryptBankAccount(value string) (plain any, enc []byte) {
	if s.Crypto == nil || !s.Crypto.Configured() {
		return value, nil
	}
	enc, _ = s.Crypto.EncryptString(value)
	return "", enc
}

func (s *Store) decryptBankAccount(enc []byte, plain string) string {
	if s.Crypto == nil || !s.Crypto.Configured() || len(enc) == 0 {
		return plain
	}
	decrypted, err := s.Crypto.DecryptString(enc)
	if err != nil {
		return plain
	}
	return decrypted
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
