package notifications

const (
	TypeLeaveSubmitted    = "leave_submitted"
	TypeLeaveApproved     = "leave_approved"
	TypeLeaveRejected     = "leave_rejected"
	TypeLeaveCancelled    = "leave_cancelled"
	TypePayslipReady      = "payslip_ready"
	TypeProfileVerified   = "profile_verified"
	TypeSignupCode        = "signup_code"
	TypeAccountActivated  = "account_activated"
)
