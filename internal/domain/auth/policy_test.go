package auth

import "testing"

func TestAllowedKnownActions(t *testing.T) {
	cases := []struct {
		role     string
		resource string
		verb     string
		want     bool
	}{
		{RoleHR, ResourceLeave, "approve", true},
		{RoleEmployee, ResourceLeave, "approve", false},
		{RoleEmployee, ResourceLeave, "cancel", true},
		{RoleHR, ResourceLeave, "cancel", false},
		{RoleEmployee, ResourceLeave, "create", true},
		{RoleEmployee, ResourceAttendance, "check_in", true},
		{RoleEmployee, ResourceAttendance, "manual_checkout", false},
		{RoleHR, ResourceAttendance, "manual_checkout", true},
		{RoleEmployee, ResourcePayroll, "generate_payslip", true},
		{RoleHR, ResourcePayroll, "generate_payslip", true},
		{RoleEmployee, ResourcePayroll, "run", false},
		{RoleEmployee, ResourceEmployees, "read", false},
		{RoleEmployee, ResourceEmployees, "me", true},
		{RoleHR, ResourceEmployees, "me", false},
	}

	for _, tc := range cases {
		if got := Allowed(tc.role, tc.resource, tc.verb); got != tc.want {
			t.Errorf("Allowed(%s, %s, %s) = %v, want %v", tc.role, tc.resource, tc.verb, got, tc.want)
		}
	}
}

func TestAllowedUnknownActionDenied(t *testing.T) {
	if Allowed(RoleHR, ResourceLeave, "delete") {
		t.Fatal("unmapped action must be denied")
	}
	if Allowed("auditor", ResourceLeave, "approve") {
		t.Fatal("unknown role must be denied")
	}
}
