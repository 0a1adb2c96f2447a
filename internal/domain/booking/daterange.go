package booking

import (
	"time"

	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
)

var ErrCheckInInPast = errs.New(errs.ErrValidation, "booking: check-in date is in the past")

// ValidateDateRange rejects stays starting before today (UTC).
func ValidateDateRange(dr daterange.DateRange, now time.Time) error {
	if dr.CheckIn.Before(daterange.Truncate(now)) {
		return ErrCheckInInPast
	}
	return nil
}
