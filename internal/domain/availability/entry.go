package availability

import (
	"context"
	"strings"
	"time"

	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/money"
)

var (
	ErrTargetNotFound    = errs.New(errs.ErrNotFound, "availability: target not found")
	ErrTargetRequired    = errs.New(errs.ErrValidation, "availability: target id required")
	ErrDateRequired      = errs.New(errs.ErrValidation, "availability: date required")
	ErrNoEntries         = errs.New(errs.ErrValidation, "availability: at least one entry required")
	ErrNegativePrice     = errs.New(errs.ErrValidation, "availability: price override must be non-negative")
	ErrMinNightsOverride = errs.New(errs.ErrValidation, "availability: min nights override must be at least 1")
	ErrAvailableSpots    = errs.New(errs.ErrValidation, "availability: available spots must be non-negative")
	ErrDatesUnavailable  = errs.New(errs.ErrConflict, "availability: requested dates are closed")
	ErrDateOccupied      = errs.New(errs.ErrConflict, "availability: cannot close a date held by a booking")
)

// Entry overrides the defaults of one target on one day. At most one entry
// exists per (TargetID, Date).
type Entry struct {
	TargetID          string
	Date              time.Time
	IsAvailable       bool
	PriceOverride     *money.Money
	MinNightsOverride *int // rentals
	AvailableSpots    *int // tours
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Repository stores entries. Range is inclusive on both ends; Upsert writes
// each entry by key.
type Repository interface {
	Range(ctx context.Context, targetID string, from, to time.Time) ([]Entry, error)
	Upsert(ctx context.Context, entries []Entry) error
}

func (e Entry) Key() string {
	return daterange.DayKey(e.Date)
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.TargetID) == "" {
		return ErrTargetRequired
	}
	if e.Date.IsZero() {
		return ErrDateRequired
	}
	if e.PriceOverride != nil && (e.PriceOverride.IsNegative() || e.PriceOverride.Currency == "") {
		return errs.Wrapf(ErrNegativePrice, "on %s", e.Key())
	}
	if e.MinNightsOverride != nil && *e.MinNightsOverride < 1 {
		return errs.Wrapf(ErrMinNightsOverride, "on %s", e.Key())
	}
	if e.AvailableSpots != nil && *e.AvailableSpots < 0 {
		return errs.Wrapf(ErrAvailableSpots, "on %s", e.Key())
	}
	return nil
}

// Span returns the first and last date covered by entries.
func Span(entries []Entry) (from, to time.Time, ok bool) {
	for i, e := range entries {
		d := daterange.Truncate(e.Date)
		if i == 0 || d.Before(from) {
			from = d
		}
		if i == 0 || d.After(to) {
			to = d
		}
	}
	return from, to, len(entries) > 0
}

// Index keys entries by day.
func Index(entries []Entry) map[string]Entry {
	out := make(map[string]Entry, len(entries))
	for _, e := range entries {
		out[e.Key()] = e
	}
	return out
}
