package leave

import "errors"

var (
	ErrNotFound            = errors.New("leave request not found")
	ErrInvalidRange        = errors.New("end date before start date")
	ErrInvalidType         = errors.New("unknown leave type")
	ErrDuplicateRequest    = errors.New("duplicate leave request")
	ErrInvalidState        = errors.New("request not pending")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrForbidden           = errors.New("forbidden")
	ErrNegativeBalance     = errors.New("balance would go negative")
)
