package attendance

const (
	StatusPresent = "present"
	StatusLate    = "late"
	StatusAbsent  = "absent"
)
