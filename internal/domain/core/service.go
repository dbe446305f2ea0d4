package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	return s.store.ListDepartments(ctx)
}

func (s *Service) CreateDepartment(ctx context.Context, name string) (string, error) {
	id, err := s.store.CreateDepartment(ctx, name)
	if isUniqueViolation(err) {
		return "", ErrDuplicateName
	}
	return id, err
}

func (s *Service) UpdateDepartment(ctx context.Context, departmentID, name string) error {
	err := s.store.UpdateDepartment(ctx, departmentID, name)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

// DeleteDepartment refuses to remove a department that still has employees
// assigned to it.
func (s *Service) DeleteDepartment(ctx context.Context, departmentID string) error {
	inUse, err := s.store.DepartmentHasEmployees(ctx, departmentID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrDepartmentInUse
	}
	return s.store.DeleteDepartment(ctx, departmentID)
}

func (s *Service) CountEmployees(ctx context.Context, departmentID string) (int, error) {
	return s.store.CountEmployees(ctx, departmentID)
}

func (s *Service) ListEmployees(ctx context.Context, departmentID string, limit, offset int) ([]Employee, error) {
	return s.store.ListEmployees(ctx, departmentID, limit, offset)
}

func (s *Service) GetEmployee(ctx context.Context, employeeID string) (*Employee, error) {
	return s.store.GetEmployee(ctx, employeeID)
}

func (s *Service) GetEmployeeByUserID(ctx context.Context, userID string) (*Employee, error) {
	return s.store.GetEmployeeByUserID(ctx, userID)
}

func (s *Service) EmployeeIDByUserID(ctx context.Context, userID string) (string, error) {
	return s.store.EmployeeIDByUserID(ctx, userID)
}

func (s *Service) UserIDByEmployeeID(ctx context.Context, employeeID string) (string, error) {
	return s.store.UserIDByEmployeeID(ctx, employeeID)
}

func (s *Service) CreateEmployee(ctx context.Context, emp Employee) (string, error) {
	if _, err := s.store.EmployeeIDByUserID(ctx, emp.UserID); err == nil {
		return "", ErrUserAlreadyLinked
	} else if !errors.Is(err, ErrNoEmployeeProfile) {
		return "", err
	}
	id, err := s.store.CreateEmployee(ctx, emp)
	if isUniqueViolation(err) {
		return "", ErrUserAlreadyLinked
	}
	if isForeignKeyViolation(err) {
		return "", ErrNotFound
	}
	return id, err
}

// UpdateEmployee applies an HR edit; the record stays verified.
func (s *Service) UpdateEmployee(ctx context.Context, employeeID string, emp Employee) error {
	return s.store.UpdateEmployee(ctx, employeeID, emp, false)
}

// SelfUpdate applies an employee's own edit. The profile drops back to
// unverified with pending_update set until HR signs it off.
func (s *Service) SelfUpdate(ctx context.Context, employeeID string, emp Employee) error {
	return s.store.UpdateEmployee(ctx, employeeID, emp, true)
}

func (s *Service) VerifyEmployee(ctx context.Context, employeeID string) error {
	return s.store.VerifyEmployee(ctx, employeeID)
}

func (s *Service) GetPaymentProfile(ctx context.Context, employeeID string) (*PaymentProfile, error) {
	return s.store.GetPaymentProfile(ctx, employeeID)
}

func (s *Service) UpsertPaymentProfile(ctx context.Context, employeeID string, baseSalary, overtimeRate float64) error {
	err := s.store.UpsertPaymentProfile(ctx, employeeID, baseSalary, overtimeRate)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	return s.store.ListUsers(ctx, limit, offset)
}

func (s *Service) CountUsers(ctx context.Context) (int, error) {
	return s.store.CountUsers(ctx)
}

func (s *Service) SetUserActive(ctx context.Context, userID string, active bool) error {
	return s.store.SetUserActive(ctx, userID, active)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
