package leave

import "time"

// CalculateDays returns the inclusive calendar day count between start and
// end. The count follows each endpoint's wall-clock date, so inputs carrying
// different zone offsets still cover the same days the stored dates do.
// A request for a single day is one day, not zero.
func CalculateDays(start, end time.Time) (int, error) {
	startDay := calendarDay(start)
	endDay := calendarDay(end)
	if endDay.Before(startDay) {
		return 0, ErrInvalidRange
	}
	return int(endDay.Sub(startDay).Hours()/24) + 1, nil
}

func ValidType(leaveType string) bool {
	switch leaveType {
	case TypeCasual, TypeSick, TypeUnpaid:
		return true
	}
	return false
}

// IsPaidType is derived from the type alone: only unpaid leave is unpaid.
func IsPaidType(leaveType string) bool {
	return leaveType != TypeUnpaid
}

// DebitsBalance reports whether approving a request of this type consumes
// a balance counter. Unpaid leave never touches balances.
func DebitsBalance(leaveType string) bool {
	return leaveType == TypeCasual || leaveType == TypeSick
}

// BlocksDuplicate reports whether an existing request with this status
// prevents a new request for the same employee and date range. A cancelled
// request frees the range for resubmission.
func BlocksDuplicate(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Actionable reports whether a request can still be approved, rejected or
// cancelled. Every status other than PENDING is terminal.
func Actionable(status string) bool {
	return status == StatusPending
}

// calendarDay rebuilds the wall-clock date in UTC so the subtraction in
// CalculateDays measures whole days regardless of the original offset.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
