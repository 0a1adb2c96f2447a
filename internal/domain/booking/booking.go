package booking

import (
	"context"
	"strings"
	"time"

	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/events"
	"buckler/internal/domain/shared/money"
)

var (
	ErrBookingNotFound  = errs.New(errs.ErrNotFound, "booking: not found")
	ErrInvalidGuests    = errs.New(errs.ErrValidation, "booking: guests count must be positive")
	ErrGuestRequired    = errs.New(errs.ErrValidation, "booking: guest id required")
	ErrTargetRequired   = errs.New(errs.ErrValidation, "booking: target id required")
	ErrInvalidVertical  = errs.New(errs.ErrValidation, "booking: unknown vertical")
	ErrNegativeTotal    = errs.New(errs.ErrValidation, "booking: total must not be negative")
	ErrReasonRequired   = errs.New(errs.ErrValidation, "booking: reason required")
	ErrDatesTaken       = errs.New(errs.ErrConflict, "booking: dates overlap an existing booking")
	ErrConcurrentUpdate = errs.New(errs.ErrConflict, "booking: concurrent update detected")
	ErrDuplicateBooking = errs.New(errs.ErrConflict, "booking: booking id already exists")
)

type BookingID string

// Vertical tells which catalogue the target belongs to.
type Vertical string

const (
	VerticalRental Vertical = "rental"
	VerticalTour   Vertical = "tour"
)

func ParseVertical(v string) (Vertical, error) {
	switch Vertical(strings.ToLower(strings.TrimSpace(v))) {
	case "", VerticalRental:
		return VerticalRental, nil
	case VerticalTour:
		return VerticalTour, nil
	}
	return "", errs.Wrapf(ErrInvalidVertical, "%q", v)
}

// Booking is a reservation of a listing (Range = stay) or a tour departure
// (Range = departure date plus tour duration).
type Booking struct {
	ID              BookingID
	Vertical        Vertical
	TargetID        string
	GuestID         string
	Range           daterange.DateRange
	Guests          int
	Total           money.Money
	SecurityDeposit *money.Money
	Status          Status
	Reason          string
	Policy          CancellationPolicySnapshot
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

// Repository persists bookings. Bookings are never deleted.
type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Update stores the booking if its Version still matches and bumps it.
	Update(ctx context.Context, booking *Booking) error
	// ListByTarget returns bookings of the target, restricted to statuses when given.
	ListByTarget(ctx context.Context, targetID string, statuses ...Status) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	ListByStatus(ctx context.Context, status Status) ([]*Booking, error)
}

type CreateParams struct {
	ID              BookingID
	Vertical        Vertical
	TargetID        string
	GuestID         string
	Range           daterange.DateRange
	Guests          int
	Total           money.Money
	SecurityDeposit *money.Money
	Policy          CancellationPolicySnapshot
	CreatedAt       time.Time
}

// NewBooking opens a PENDING booking.
func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.TargetID) == "" {
		return nil, ErrTargetRequired
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if params.Vertical != VerticalRental && params.Vertical != VerticalTour {
		return nil, errs.Wrapf(ErrInvalidVertical, "%q", params.Vertical)
	}
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if params.Total.Currency == "" || params.Total.IsNegative() {
		return nil, ErrNegativeTotal
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:              params.ID,
		Vertical:        params.Vertical,
		TargetID:        params.TargetID,
		GuestID:         params.GuestID,
		Range:           params.Range,
		Guests:          params.Guests,
		Total:           params.Total,
		SecurityDeposit: params.SecurityDeposit,
		Policy:          params.Policy,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingRequested{
		BookingID: b.ID,
		Vertical:  b.Vertical,
		TargetID:  b.TargetID,
		GuestID:   b.GuestID,
		Range:     b.Range,
		Guests:    b.Guests,
		Total:     b.Total,
		At:        now,
	})
	return b, nil
}

// Approve confirms a pending booking.
func (b *Booking) Approve(now time.Time) error {
	if err := b.transition(OpApprove, now); err != nil {
		return err
	}
	b.Record(BookingApproved{BookingID: b.ID, TargetID: b.TargetID, Range: b.Range, Total: b.Total, At: b.UpdatedAt})
	return nil
}

// Reject declines a pending or confirmed booking with a reason for the guest.
func (b *Booking) Reject(reason string, now time.Time) error {
	if _, err := b.Status.Next(OpReject); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	if err := b.transition(OpReject, now); err != nil {
		return err
	}
	b.Reason = reason
	b.Record(BookingRejected{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}

// Cancel withdraws the booking when the cancellation policy allows it.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if _, err := b.Status.Next(OpCancel); err != nil {
		return err
	}
	if err := b.Policy.Check(now.UTC(), b.Range.CheckIn); err != nil {
		return err
	}
	if err := b.transition(OpCancel, now); err != nil {
		return err
	}
	b.Reason = strings.TrimSpace(reason)
	b.Record(BookingCancelled{BookingID: b.ID, Reason: b.Reason, At: b.UpdatedAt})
	return nil
}

// Complete closes a confirmed booking.
func (b *Booking) Complete(now time.Time) error {
	if err := b.transition(OpComplete, now); err != nil {
		return err
	}
	b.Record(BookingCompleted{BookingID: b.ID, TargetID: b.TargetID, Total: b.Total, At: b.UpdatedAt})
	return nil
}

// Finished reports whether the stay or tour has ended by now.
func (b *Booking) Finished(now time.Time) bool {
	return !now.Before(b.Range.CheckOut)
}

// EndDate is the last occupied moment used for payout timing.
func (b *Booking) EndDate() time.Time {
	return b.Range.CheckOut
}

func (b *Booking) transition(op Operation, now time.Time) error {
	next, err := b.Status.Next(op)
	if err != nil {
		return err
	}
	b.Status = next
	b.UpdatedAt = now.UTC()
	return nil
}
