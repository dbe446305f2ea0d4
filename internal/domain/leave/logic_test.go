package leave

import (
	"errors"
	"testing"
	"time"
)

func TestCalculateDays(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	days, err := CalculateDays(start, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 1 {
		t.Fatalf("single day range: expected 1, got %d", days)
	}

	end := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	days, err = CalculateDays(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 3 {
		t.Fatalf("expected 3 days, got %d", days)
	}
}

func TestCalculateDaysIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	end := time.Date(2025, 3, 2, 0, 15, 0, 0, time.UTC)
	days, err := CalculateDays(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 2 {
		t.Fatalf("expected 2 days, got %d", days)
	}
}

func TestCalculateDaysAcrossZoneOffsets(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 3, 9, 0, 0, 0, time.FixedZone("", 5*3600))
	days, err := CalculateDays(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 3 {
		t.Fatalf("Apr 1 through Apr 3 must count 3 days, got %d", days)
	}

	// The reverse skew must not inflate the count either.
	start = time.Date(2026, 4, 1, 9, 0, 0, 0, time.FixedZone("", -10*3600))
	end = time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC)
	days, err = CalculateDays(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 3 {
		t.Fatalf("expected 3 days, got %d", days)
	}
}

func TestCalculateDaysInvalidRange(t *testing.T) {
	start := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC)
	if _, err := CalculateDays(start, end); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestIsPaidType(t *testing.T) {
	cases := []struct {
		leaveType string
		want      bool
	}{
		{TypeCasual, true},
		{TypeSick, true},
		{TypeUnpaid, false},
	}
	for _, tc := range cases {
		if got := IsPaidType(tc.leaveType); got != tc.want {
			t.Errorf("IsPaidType(%s) = %v, want %v", tc.leaveType, got, tc.want)
		}
	}
}

func TestDebitsBalance(t *testing.T) {
	if !DebitsBalance(TypeCasual) || !DebitsBalance(TypeSick) {
		t.Fatal("casual and sick leave must debit a balance")
	}
	if DebitsBalance(TypeUnpaid) {
		t.Fatal("unpaid leave must not debit a balance")
	}
}

func TestBlocksDuplicate(t *testing.T) {
	blocking := []string{StatusPending, StatusApproved, StatusRejected}
	for _, status := range blocking {
		if !BlocksDuplicate(status) {
			t.Errorf("%s must block duplicates", status)
		}
	}
	if BlocksDuplicate(StatusCancelled) {
		t.Error("cancelled requests must not block resubmission")
	}
}

func TestActionable(t *testing.T) {
	if !Actionable(StatusPending) {
		t.Fatal("pending requests must be actionable")
	}
	for _, status := range []string{StatusApproved, StatusRejected, StatusCancelled} {
		if Actionable(status) {
			t.Errorf("%s must be terminal", status)
		}
	}
}
