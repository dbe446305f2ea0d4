package attendance

import "errors"

var (
	ErrNotFound          = errors.New("attendance record not found")
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrNotCheckedIn      = errors.New("no check-in recorded today")
	ErrAlreadyCheckedOut = errors.New("already checked out")
	ErrCheckInInFuture   = errors.New("check-in is after checkout time")
)
