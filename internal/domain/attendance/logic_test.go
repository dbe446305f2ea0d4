package attendance

import (
	"testing"
	"time"
)

func standardPolicy() Policy {
	return Policy{
		WorkStart:     9 * time.Hour,
		Grace:         15 * time.Minute,
		StandardShift: 8,
	}
}

func TestDeriveStatus(t *testing.T) {
	policy := standardPolicy()
	cases := []struct {
		name    string
		checkIn time.Time
		want    string
	}{
		{"on time", time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), StatusPresent},
		{"inside grace", time.Date(2025, 6, 2, 9, 10, 0, 0, time.UTC), StatusPresent},
		{"at grace boundary", time.Date(2025, 6, 2, 9, 15, 0, 0, time.UTC), StatusPresent},
		{"one second past grace", time.Date(2025, 6, 2, 9, 15, 1, 0, time.UTC), StatusLate},
		{"clearly late", time.Date(2025, 6, 2, 9, 20, 0, 0, time.UTC), StatusLate},
		{"early bird", time.Date(2025, 6, 2, 7, 45, 0, 0, time.UTC), StatusPresent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveStatus(tc.checkIn, policy); got != tc.want {
				t.Fatalf("DeriveStatus(%v) = %s, want %s", tc.checkIn, got, tc.want)
			}
		})
	}
}

func TestParseWorkStart(t *testing.T) {
	offset, err := ParseWorkStart("09:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offset != 9*time.Hour+30*time.Minute {
		t.Fatalf("unexpected offset: %v", offset)
	}
	if _, err := ParseWorkStart("half past nine"); err == nil {
		t.Fatal("expected error for malformed value")
	}
}

func TestHoursWorked(t *testing.T) {
	in := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	out := time.Date(2025, 6, 2, 17, 30, 0, 0, time.UTC)
	if got := HoursWorked(in, out); got != 8.5 {
		t.Fatalf("HoursWorked = %v, want 8.5", got)
	}
	if got := HoursWorked(out, in); got != 0 {
		t.Fatalf("reversed range must yield 0, got %v", got)
	}
}

func TestOvertimeHours(t *testing.T) {
	if got := OvertimeHours(10, 8); got != 2 {
		t.Fatalf("OvertimeHours(10, 8) = %v, want 2", got)
	}
	if got := OvertimeHours(7.5, 8); got != 0 {
		t.Fatalf("overtime must not go negative, got %v", got)
	}
	if got := OvertimeHours(8, 8); got != 0 {
		t.Fatalf("exactly the shift length yields no overtime, got %v", got)
	}
}
