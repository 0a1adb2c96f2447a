package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"buckler/internal/app/dto"
	handlersupport "buckler/internal/app/handlers/support"
	"buckler/internal/app/outbox"
	"buckler/internal/app/uow"
	domainbooking "buckler/internal/domain/booking"
	"buckler/internal/domain/shared/errs"
)

const (
	approveBookingKey  = "booking.approve"
	rejectBookingKey   = "booking.reject"
	cancelBookingKey   = "booking.cancel"
	completeBookingKey = "booking.complete"
)

// ActorID on lifecycle commands is optional. When set, bookings the actor may
// not act on are reported as not found.

type ApproveBookingCommand struct {
	BookingID string `validate:"required"`
	ActorID   string
}

func (c ApproveBookingCommand) Key() string { return approveBookingKey }

type RejectBookingCommand struct {
	BookingID string `validate:"required"`
	ActorID   string
	Reason    string
}

func (c RejectBookingCommand) Key() string { return rejectBookingKey }

type CancelBookingCommand struct {
	BookingID string `validate:"required"`
	ActorID   string
	Reason    string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CompleteBookingCommand struct {
	BookingID string `validate:"required"`
	ActorID   string
}

func (c CompleteBookingCommand) Key() string { return completeBookingKey }

// LifecycleHandler moves one booking through the state machine per command.
type LifecycleHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

type actorRule int

const (
	providerOnly actorRule = iota
	guestOrProvider
)

func (h *LifecycleHandler) Approve(ctx context.Context, cmd ApproveBookingCommand) (*dto.Booking, error) {
	return h.apply(ctx, cmd.BookingID, cmd.ActorID, providerOnly, domainbooking.OpApprove, func(b *domainbooking.Booking, now time.Time) error {
		return b.Approve(now)
	})
}

func (h *LifecycleHandler) Reject(ctx context.Context, cmd RejectBookingCommand) (*dto.Booking, error) {
	return h.apply(ctx, cmd.BookingID, cmd.ActorID, providerOnly, domainbooking.OpReject, func(b *domainbooking.Booking, now time.Time) error {
		return b.Reject(cmd.Reason, now)
	})
}

func (h *LifecycleHandler) Cancel(ctx context.Context, cmd CancelBookingCommand) (*dto.Booking, error) {
	return h.apply(ctx, cmd.BookingID, cmd.ActorID, guestOrProvider, domainbooking.OpCancel, func(b *domainbooking.Booking, now time.Time) error {
		return b.Cancel(cmd.Reason, now)
	})
}

func (h *LifecycleHandler) Complete(ctx context.Context, cmd CompleteBookingCommand) (*dto.Booking, error) {
	return h.apply(ctx, cmd.BookingID, cmd.ActorID, providerOnly, domainbooking.OpComplete, func(b *domainbooking.Booking, now time.Time) error {
		return b.Complete(now)
	})
}

func (h *LifecycleHandler) apply(
	ctx context.Context,
	bookingID, actorID string,
	rule actorRule,
	op domainbooking.Operation,
	mutate func(*domainbooking.Booking, time.Time) error,
) (*dto.Booking, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return nil, domainbooking.ErrBookingNotFound
	}
	now := handlersupport.Clock(h.Now)

	var result *dto.Booking
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		booking, err := loadBooking(ctx, unit, bookingID)
		if err != nil {
			return err
		}
		if err := authorize(ctx, unit, booking, strings.TrimSpace(actorID), rule); err != nil {
			return err
		}
		if err := mutate(booking, now); err != nil {
			return err
		}
		if err := unit.Bookings().Update(ctx, booking); err != nil {
			return errs.Unavailable(err)
		}
		if err := outbox.RecordPulled(ctx, h.Outbox, h.Encoder, booking); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.Info("booking transitioned",
				"booking_id", booking.ID,
				"operation", op,
				"status", booking.Status,
				"actor_id", actorID)
		}
		mapped := dto.MapBooking(booking)
		result = &mapped
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func loadBooking(ctx context.Context, unit uow.UnitOfWork, id string) (*domainbooking.Booking, error) {
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	return booking, nil
}

func authorize(ctx context.Context, unit uow.UnitOfWork, booking *domainbooking.Booking, actorID string, rule actorRule) error {
	if actorID == "" {
		return nil
	}
	if rule == guestOrProvider && booking.GuestID == actorID {
		return nil
	}
	target, err := handlersupport.LoadTarget(ctx, unit, booking.Vertical, booking.TargetID)
	if err != nil {
		if errs.KindOf(err) == errs.ErrNotFound {
			return domainbooking.ErrBookingNotFound
		}
		return err
	}
	if target.ProviderID != actorID {
		return domainbooking.ErrBookingNotFound
	}
	return nil
}
