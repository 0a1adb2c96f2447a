package booking

import (
	"context"

	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
)

var ErrSeatsTaken = errs.New(errs.ErrConflict, "booking: not enough seats left on departure")

// Checker answers occupancy questions for a single target. Only PENDING and
// CONFIRMED bookings occupy the calendar. Callers hold the target lock while
// they act on the answer.
type Checker struct {
	Bookings Repository
}

// HasConflict reports whether any occupying booking other than exclude overlaps dr.
func (c Checker) HasConflict(ctx context.Context, targetID string, dr daterange.DateRange, exclude BookingID) (bool, error) {
	found := false
	err := c.scan(ctx, targetID, dr, exclude, func(*Booking) bool {
		found = true
		return false
	})
	return found, err
}

// Overlapping lists the occupying bookings other than exclude that overlap dr.
func (c Checker) Overlapping(ctx context.Context, targetID string, dr daterange.DateRange, exclude BookingID) ([]*Booking, error) {
	var out []*Booking
	err := c.scan(ctx, targetID, dr, exclude, func(b *Booking) bool {
		out = append(out, b)
		return true
	})
	return out, err
}

// SeatsTaken sums participants of occupying bookings overlapping dr.
func (c Checker) SeatsTaken(ctx context.Context, targetID string, dr daterange.DateRange, exclude BookingID) (int, error) {
	taken := 0
	err := c.scan(ctx, targetID, dr, exclude, func(b *Booking) bool {
		taken += b.Guests
		return true
	})
	return taken, err
}

// EnsureStayFree fails with ErrDatesTaken when dr overlaps an occupying booking.
func (c Checker) EnsureStayFree(ctx context.Context, targetID string, dr daterange.DateRange, exclude BookingID) error {
	conflict, err := c.HasConflict(ctx, targetID, dr, exclude)
	if err != nil {
		return err
	}
	if conflict {
		return ErrDatesTaken
	}
	return nil
}

// EnsureSeats fails with ErrSeatsTaken when requested seats do not fit into capacity.
func (c Checker) EnsureSeats(ctx context.Context, targetID string, dr daterange.DateRange, requested, capacity int, exclude BookingID) error {
	taken, err := c.SeatsTaken(ctx, targetID, dr, exclude)
	if err != nil {
		return err
	}
	if taken+requested > capacity {
		return errs.Wrapf(ErrSeatsTaken, "%d taken, %d requested, capacity %d", taken, requested, capacity)
	}
	return nil
}

func (c Checker) scan(ctx context.Context, targetID string, dr daterange.DateRange, exclude BookingID, visit func(*Booking) bool) error {
	if err := dr.Validate(); err != nil {
		return err
	}
	existing, err := c.Bookings.ListByTarget(ctx, targetID, OccupyingStatuses...)
	if err != nil {
		return errs.Unavailable(err)
	}
	for _, b := range existing {
		if exclude != "" && b.ID == exclude {
			continue
		}
		if !b.Status.Occupying() || !b.Range.Overlaps(dr) {
			continue
		}
		if !visit(b) {
			return nil
		}
	}
	return nil
}
