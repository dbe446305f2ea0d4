package auth

// Action identifies one exposed operation as (resource, verb).
type Action struct {
	Resource string
	Verb     string
}

const (
	ResourceUsers       = "users"
	ResourceDepartments = "departments"
	ResourceEmployees   = "employees"
	ResourcePayment     = "payment_profiles"
	ResourceAttendance  = "attendance"
	ResourceLeave       = "leave"
	ResourcePayroll     = "payroll"
	ResourceAudit       = "audit"
)

// policy is the single authorization table: every routed action maps to the
// set of roles allowed to invoke it. Owner-only constraints (an employee
// cancelling their own request, downloading their own payslip) are enforced
// by the services on top of this table, never instead of it.
var policy = map[Action][]string{
	{ResourceUsers, "manage"}: {RoleHR},

	{ResourceDepartments, "read"}:  {RoleHR},
	{ResourceDepartments, "write"}: {RoleHR},

	{ResourceEmployees, "read"}:    {RoleHR},
	{ResourceEmployees, "write"}:   {RoleHR},
	{ResourceEmployees, "approve"}: {RoleHR},
	{ResourceEmployees, "me"}:      {RoleEmployee},

	{ResourcePayment, "read"}:  {RoleHR},
	{ResourcePayment, "write"}: {RoleHR},
	{ResourcePayment, "mine"}:  {RoleEmployee},

	{ResourceAttendance, "read"}:            {RoleHR, RoleEmployee},
	{ResourceAttendance, "check_in"}:        {RoleHR, RoleEmployee},
	{ResourceAttendance, "check_out"}:       {RoleHR, RoleEmployee},
	{ResourceAttendance, "manual_checkout"}: {RoleHR},

	{ResourceLeave, "read"}:    {RoleHR, RoleEmployee},
	{ResourceLeave, "create"}:  {RoleHR, RoleEmployee},
	{ResourceLeave, "approve"}: {RoleHR},
	{ResourceLeave, "reject"}:  {RoleHR},
	{ResourceLeave, "cancel"}:  {RoleEmployee},
	{ResourceLeave, "adjust"}:  {RoleHR},

	{ResourcePayroll, "read"}:             {RoleHR, RoleEmployee},
	{ResourcePayroll, "periods"}:          {RoleHR},
	{ResourcePayroll, "run"}:              {RoleHR},
	{ResourcePayroll, "generate_payslip"}: {RoleHR, RoleEmployee},
	{ResourcePayroll, "download_payslip"}: {RoleHR, RoleEmployee},

	{ResourceAudit, "read"}: {RoleHR},
}

// Allowed reports whether role may perform verb on resource. Unknown actions
// are denied.
func Allowed(role, resource, verb string) bool {
	roles, ok := policy[Action{Resource: resource, Verb: verb}]
	if !ok {
		return false
	}
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}
