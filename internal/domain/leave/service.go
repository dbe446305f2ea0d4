package leave

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"hrms/internal/domain/core"
)

type Service struct {
	Store *Store
	Core  *core.Store
}

func NewService(store *Store, coreStore *core.Store) *Service {
	return &Service{Store: store, Core: coreStore}
}

func (s *Service) EmployeeIDByUserID(ctx context.Context, userID string) (string, error) {
	return s.Core.EmployeeIDByUserID(ctx, userID)
}

// Create validates and files a new request. Days, is_paid and status are
// always derived server-side; callers cannot set them.
func (s *Service) Create(ctx context.Context, employeeID, leaveType, reason string, start, end time.Time) (*Request, error) {
	if !ValidType(leaveType) {
		return nil, ErrInvalidType
	}
	days, err := CalculateDays(start, end)
	if err != nil {
		return nil, err
	}

	duplicate, err := s.Store.HasBlockingDuplicate(ctx, employeeID, start, end)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, ErrDuplicateRequest
	}

	req := Request{
		EmployeeID: employeeID,
		Type:       leaveType,
		StartDate:  start,
		EndDate:    end,
		Days:       days,
		IsPaid:     IsPaidType(leaveType),
		Reason:     reason,
		Status:     StatusPending,
	}
	id, err := s.Store.CreateRequest(ctx, req)
	if err != nil {
		// A concurrent create for the same range can slip past the read
		// above; the partial unique index catches it on insert.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}
	req.ID = id
	return &req, nil
}

// Approve moves a pending request to APPROVED and, for paid casual or sick
// leave, debits the employee's balance. The status flip and the debit happen
// in one transaction: an insufficient balance leaves both untouched.
func (s *Service) Approve(ctx context.Context, requestID, actorUserID string) (*Request, error) {
	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	req, err := s.Store.GetRequestForUpdateTx(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if !Actionable(req.Status) {
		return nil, ErrInvalidState
	}

	if req.IsPaid && DebitsBalance(req.Type) {
		bal, err := s.Store.LockBalanceTx(ctx, tx, req.EmployeeID)
		if err != nil {
			return nil, err
		}
		available := bal.Casual
		if req.Type == TypeSick {
			available = bal.Sick
		}
		if available < req.Days {
			return nil, ErrInsufficientBalance
		}
		if err := s.Store.DebitBalanceTx(ctx, tx, req.EmployeeID, req.Type, req.Days); err != nil {
			return nil, err
		}
	}

	if err := s.Store.UpdateRequestStatusTx(ctx, tx, requestID, StatusApproved, actorUserID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	req.Status = StatusApproved
	req.ActionBy = actorUserID
	return req, nil
}

func (s *Service) Reject(ctx context.Context, requestID, actorUserID string) (*Request, error) {
	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	req, err := s.Store.GetRequestForUpdateTx(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if !Actionable(req.Status) {
		return nil, ErrInvalidState
	}
	if err := s.Store.UpdateRequestStatusTx(ctx, tx, requestID, StatusRejected, actorUserID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	req.Status = StatusRejected
	req.ActionBy = actorUserID
	return req, nil
}

// Cancel is reserved for the request's owner and only while still pending.
func (s *Service) Cancel(ctx context.Context, requestID, actorUserID string) (*Request, error) {
	actorEmployeeID, err := s.Core.EmployeeIDByUserID(ctx, actorUserID)
	if err != nil {
		return nil, err
	}

	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	req, err := s.Store.GetRequestForUpdateTx(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if req.EmployeeID != actorEmployeeID {
		return nil, ErrForbidden
	}
	if !Actionable(req.Status) {
		return nil, ErrInvalidState
	}
	if err := s.Store.UpdateRequestStatusTx(ctx, tx, requestID, StatusCancelled, actorUserID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	req.Status = StatusCancelled
	req.ActionBy = actorUserID
	return req, nil
}

func (s *Service) Get(ctx context.Context, requestID string) (*Request, error) {
	return s.Store.GetRequest(ctx, requestID)
}

func (s *Service) List(ctx context.Context, employeeID, status string, limit, offset int) (RequestListResult, error) {
	return s.Store.ListRequests(ctx, employeeID, status, limit, offset)
}

func (s *Service) Balance(ctx context.Context, employeeID string) (*Balance, error) {
	return s.Store.GetBalance(ctx, employeeID)
}

// AdjustBalance applies HR entitlement grants or corrections. Deltas that
// would push a counter below zero are rejected by the database constraint.
func (s *Service) AdjustBalance(ctx context.Context, employeeID string, casualDelta, sickDelta int) (*Balance, error) {
	bal, err := s.Store.AdjustBalance(ctx, employeeID, casualDelta, sickDelta)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23514":
				return nil, ErrNegativeBalance
			case "23503":
				return nil, core.ErrNotFound
			}
		}
		return nil, err
	}
	return bal, nil
}
