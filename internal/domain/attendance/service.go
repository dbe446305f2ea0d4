package attendance

import (
	"context"
	"errors"
	"time"

	"hrms/internal/domain/core"
)

type Service struct {
	Store  *Store
	Core   *core.Store
	Policy Policy
}

func NewService(store *Store, coreStore *core.Store, policy Policy) *Service {
	return &Service{Store: store, Core: coreStore, Policy: policy}
}

func (s *Service) EmployeeIDByUserID(ctx context.Context, userID string) (string, error) {
	return s.Core.EmployeeIDByUserID(ctx, userID)
}

// CheckIn records the start of today's working day. The day's record is
// fetched or created; a record that already carries a check-in is a conflict,
// one created without a check-in (HR correction) gets it back-filled.
func (s *Service) CheckIn(ctx context.Context, employeeID string, now time.Time) (*Record, error) {
	today := dateOf(now)
	rec, err := s.Store.GetForDate(ctx, employeeID, today)
	if err == nil {
		if rec.CheckIn != nil {
			return nil, ErrAlreadyCheckedIn
		}
		if err := s.Store.SetCheckIn(ctx, rec.ID, now, StatusPresent); err != nil {
			return nil, err
		}
		rec.CheckIn = &now
		rec.Status = StatusPresent
		return s.withDerived(rec), nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	rec, err = s.Store.CreateForDate(ctx, employeeID, today, now, StatusPresent)
	if err != nil {
		return nil, err
	}
	if rec.CheckIn == nil {
		// Lost the insert race to a record without a check-in.
		if err := s.Store.SetCheckIn(ctx, rec.ID, now, StatusPresent); err != nil {
			return nil, err
		}
		rec.CheckIn = &now
		rec.Status = StatusPresent
	} else if !rec.CheckIn.Equal(now) {
		return nil, ErrAlreadyCheckedIn
	}
	return s.withDerived(rec), nil
}

// CheckOut closes today's record. Status is derived from the check-in time
// of day: past work start plus grace means late, regardless of when the
// employee leaves.
func (s *Service) CheckOut(ctx context.Context, employeeID string, now time.Time) (*Record, error) {
	rec, err := s.Store.GetForDate(ctx, employeeID, dateOf(now))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotCheckedIn
		}
		return nil, err
	}
	if rec.CheckIn == nil {
		return nil, ErrNotCheckedIn
	}
	if rec.CheckOut != nil {
		return nil, ErrAlreadyCheckedOut
	}
	if rec.CheckIn.After(now) {
		return nil, ErrCheckInInFuture
	}

	status := DeriveStatus(*rec.CheckIn, s.Policy)
	if err := s.Store.SetCheckOut(ctx, rec.ID, now, status); err != nil {
		return nil, err
	}
	rec.CheckOut = &now
	rec.Status = status
	return s.withDerived(rec), nil
}

// ManualCheckout lets HR close any existing record outright. It skips the
// ordering checks and the late derivation and marks the day present.
func (s *Service) ManualCheckout(ctx context.Context, recordID string, now time.Time) (*Record, error) {
	rec, err := s.Store.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.Store.SetCheckOut(ctx, rec.ID, now, StatusPresent); err != nil {
		return nil, err
	}
	rec.CheckOut = &now
	rec.Status = StatusPresent
	return s.withDerived(rec), nil
}

func (s *Service) List(ctx context.Context, employeeID string, from, to *time.Time, limit, offset int) (RecordListResult, error) {
	result, err := s.Store.List(ctx, employeeID, from, to, limit, offset)
	if err != nil {
		return result, err
	}
	for i := range result.Items {
		s.withDerived(&result.Items[i])
	}
	return result, nil
}

func (s *Service) OvertimeForRange(ctx context.Context, employeeID string, from, to time.Time) (float64, error) {
	return s.Store.OvertimeForRange(ctx, employeeID, from, to, s.Policy.StandardShift)
}

func (s *Service) withDerived(rec *Record) *Record {
	if rec.CheckIn != nil && rec.CheckOut != nil {
		rec.HoursWorked = HoursWorked(*rec.CheckIn, *rec.CheckOut)
		rec.OvertimeHours = OvertimeHours(rec.HoursWorked, s.Policy.StandardShift)
	}
	return rec
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
