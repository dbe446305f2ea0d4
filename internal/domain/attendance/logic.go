package attendance

import (
	"fmt"
	"time"
)

// Policy holds the working-day parameters status derivation depends on.
type Policy struct {
	WorkStart     time.Duration // offset from local midnight
	Grace         time.Duration
	StandardShift float64 // hours
}

// ParseWorkStart converts an HH:MM string to an offset from midnight.
func ParseWorkStart(value string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("work start must be HH:MM: %w", err)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

// DeriveStatus classifies a day from its check-in moment. Lateness compares
// the check-in's local time of day against work start plus the grace period;
// the calendar date and the checkout time play no part.
func DeriveStatus(checkIn time.Time, policy Policy) string {
	sinceMidnight := time.Duration(checkIn.Hour())*time.Hour +
		time.Duration(checkIn.Minute())*time.Minute +
		time.Duration(checkIn.Second())*time.Second
	if sinceMidnight > policy.WorkStart+policy.Grace {
		return StatusLate
	}
	return StatusPresent
}

func HoursWorked(checkIn, checkOut time.Time) float64 {
	if checkOut.Before(checkIn) {
		return 0
	}
	return checkOut.Sub(checkIn).Hours()
}

func OvertimeHours(hoursWorked, standardShift float64) float64 {
	if hoursWorked <= standardShift {
		return 0
	}
	return hoursWorked - standardShift
}
