package payroll

const (
	StatusDraft     = "draft"
	StatusFinalized = "finalized"
)
