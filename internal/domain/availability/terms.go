package availability

import (
	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/money"
)

// Terms are the per-day adjustments that apply to one booking request.
type Terms struct {
	// Overrides holds nightly prices by day key.
	Overrides map[string]money.Money
	// MinNights is the check-in day's override, 0 when unset.
	MinNights int
	// Spots is the departure day's seat override, nil when unset.
	Spots *int
}

// TermsFor reads the entries covering dr. A closed day inside dr fails with
// ErrDatesUnavailable.
func TermsFor(entries []Entry, dr daterange.DateRange) (Terms, error) {
	terms := Terms{Overrides: map[string]money.Money{}}
	byDay := Index(entries)
	for _, night := range dr.Days() {
		e, ok := byDay[daterange.DayKey(night)]
		if !ok {
			continue
		}
		if !e.IsAvailable {
			return Terms{}, errs.Wrapf(ErrDatesUnavailable, "%s is closed", e.Key())
		}
		if e.PriceOverride != nil {
			terms.Overrides[e.Key()] = *e.PriceOverride
		}
	}
	if first, ok := byDay[daterange.DayKey(dr.CheckIn)]; ok {
		if first.MinNightsOverride != nil {
			terms.MinNights = *first.MinNightsOverride
		}
		if first.AvailableSpots != nil {
			spots := *first.AvailableSpots
			terms.Spots = &spots
		}
	}
	return terms, nil
}
