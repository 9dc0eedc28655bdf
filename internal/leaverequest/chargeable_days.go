package leaverequest

import (
	"time"

	leaverequesterrors "go-leave/internal/leaverequest/errors"
)

// CountChargeableDays counts the weekdays in the inclusive range
// [start, end]. Saturdays and Sundays are never chargeable; public holidays
// are not considered.
func CountChargeableDays(start, end time.Time) (int, error) {
	if start.After(end) {
		return 0, leaverequesterrors.ErrInvalidDateRange
	}

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days, nil
}
