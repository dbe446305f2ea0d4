package payroll

import "testing"

func TestComputePay(t *testing.T) {
	gross, overtimePay, net := ComputePay(3000, 20, 5.5, 150)
	if gross != 3000 {
		t.Fatalf("expected gross 3000, got %v", gross)
	}
	if overtimePay != 110 {
		t.Fatalf("expected overtime pay 110, got %v", overtimePay)
	}
	if net != 2960 {
		t.Fatalf("expected net 2960, got %v", net)
	}
}

func TestComputePayNoOvertime(t *testing.T) {
	gross, overtimePay, net := ComputePay(2500, 20, 0, 0)
	if gross != 2500 || overtimePay != 0 || net != 2500 {
		t.Fatalf("unexpected result: gross=%v overtime=%v net=%v", gross, overtimePay, net)
	}
}

func TestComputePayRounding(t *testing.T) {
	_, overtimePay, _ := ComputePay(1000, 10.555, 3, 0)
	if overtimePay != 31.67 {
		t.Fatalf("expected overtime pay 31.67, got %v", overtimePay)
	}
}
