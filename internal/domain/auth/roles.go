package auth

const (
	RoleHR       = "hr"
	RoleEmployee = "employee"
)

// UserContext is the authenticated caller as seen by handlers and services.
type UserContext struct {
	UserID    string
	Role      string
	SessionID string
}

func (u UserContext) IsHR() bool {
	return u.Role == RoleHR
}
