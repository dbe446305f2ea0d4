package leave

const (
	TypeCasual = "CASUAL"
	TypeSick   = "SICK"
	TypeUnpaid = "UNPAID"
)

// Types lists every accepted leave type, for validation surfaces.
var Types = []string{TypeCasual, TypeSick, TypeUnpaid}

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)
