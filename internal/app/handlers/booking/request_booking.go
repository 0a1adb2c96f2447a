package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"buckler/internal/app/commands"
	"buckler/internal/app/dto"
	handlersupport "buckler/internal/app/handlers/support"
	"buckler/internal/app/middleware"
	"buckler/internal/app/outbox"
	"buckler/internal/app/policies"
	"buckler/internal/app/uow"
	domainavailability "buckler/internal/domain/availability"
	domainbooking "buckler/internal/domain/booking"
	domainpricing "buckler/internal/domain/pricing"
	domainrange "buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	BookingID string
	Vertical  string    `validate:"omitempty,oneof=rental tour"`
	TargetID  string    `validate:"required"`
	GuestID   string    `validate:"required"`
	CheckIn   time.Time `validate:"required"`
	// CheckOut is ignored for tours; the tour duration decides it.
	CheckOut   time.Time
	Guests     int `validate:"min=1"`
	RequestKey string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.RequestKey }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	Booking dto.Booking        `json:"booking"`
	Price   dto.PriceBreakdown `json:"price"`
}

// RequestBookingHandler checks the calendar, prices the request and stores a
// PENDING booking, approving it on the spot for instant-book targets. The
// target lock is held from the first read until commit.
type RequestBookingHandler struct {
	UoWFactory  uow.UoWFactory
	Pricing     policies.PricingPort
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Logger      *slog.Logger
	Now         func() time.Time
	IDGenerator func() string
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	vertical, err := domainbooking.ParseVertical(cmd.Vertical)
	if err != nil {
		return nil, err
	}
	now := handlersupport.Clock(h.Now)

	var result *RequestBookingResult
	err = handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		target, err := handlersupport.LoadTarget(ctx, unit, vertical, cmd.TargetID)
		if err != nil {
			return err
		}
		dr, err := h.stayRange(target, cmd)
		if err != nil {
			return err
		}
		if err := domainbooking.ValidateDateRange(dr, now); err != nil {
			return err
		}
		if err := unit.LockTarget(ctx, target.ID); err != nil {
			return errs.Unavailable(err)
		}
		entries, err := unit.Availability().Range(ctx, target.ID, dr.CheckIn, dr.CheckOut.AddDate(0, 0, -1))
		if err != nil {
			return errs.Unavailable(err)
		}
		terms, err := domainavailability.TermsFor(entries, dr)
		if err != nil {
			return err
		}

		price, err := h.admit(ctx, unit, target, dr, cmd.Guests, terms)
		if err != nil {
			return err
		}
		policy, err := domainbooking.PolicyByName(target.Policy())
		if err != nil {
			return err
		}
		booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
			ID:              domainbooking.BookingID(h.bookingID(cmd)),
			Vertical:        target.Vertical,
			TargetID:        target.ID,
			GuestID:         cmd.GuestID,
			Range:           dr,
			Guests:          cmd.Guests,
			Total:           price.Total,
			SecurityDeposit: price.SecurityDeposit,
			Policy:          policy,
			CreatedAt:       now,
		})
		if err != nil {
			return err
		}
		if target.InstantBook() {
			if err := booking.Approve(now); err != nil {
				return err
			}
		}
		if err := unit.Bookings().Create(ctx, booking); err != nil {
			return errs.Unavailable(err)
		}
		if err := outbox.RecordPulled(ctx, h.Outbox, h.Encoder, booking); err != nil {
			return err
		}

		if h.Logger != nil {
			h.Logger.Info("booking requested",
				"booking_id", booking.ID,
				"target_id", target.ID,
				"vertical", target.Vertical,
				"status", booking.Status,
				"total", booking.Total.String())
		}
		result = &RequestBookingResult{Booking: dto.MapBooking(booking), Price: dto.MapBreakdown(price)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *RequestBookingHandler) stayRange(target handlersupport.Target, cmd RequestBookingCommand) (domainrange.DateRange, error) {
	if target.Tour != nil {
		return target.Tour.Range(cmd.CheckIn)
	}
	return domainrange.New(cmd.CheckIn, cmd.CheckOut)
}

// admit enforces the target's limits and the occupancy rule, then prices the request.
func (h *RequestBookingHandler) admit(ctx context.Context, unit uow.UnitOfWork, target handlersupport.Target, dr domainrange.DateRange, guests int, terms domainavailability.Terms) (domainpricing.Breakdown, error) {
	checker := domainbooking.Checker{Bookings: unit.Bookings()}
	if target.Tour != nil {
		if err := target.Tour.CheckParticipants(guests); err != nil {
			return domainpricing.Breakdown{}, err
		}
		capacity := target.Tour.MaxParticipants
		if terms.Spots != nil {
			capacity = *terms.Spots
		}
		if err := checker.EnsureSeats(ctx, target.ID, dr, guests, capacity, ""); err != nil {
			return domainpricing.Breakdown{}, err
		}
		return h.pricing().Tour(target.Tour, guests)
	}
	if err := target.Listing.CheckStay(dr.Nights(), guests, terms.MinNights); err != nil {
		return domainpricing.Breakdown{}, err
	}
	if err := checker.EnsureStayFree(ctx, target.ID, dr, ""); err != nil {
		return domainpricing.Breakdown{}, err
	}
	return h.pricing().Stay(target.Listing, dr, terms.Overrides)
}

func (h *RequestBookingHandler) pricing() policies.PricingPort {
	if h.Pricing != nil {
		return h.Pricing
	}
	return domainpricing.Calculator{}
}

func (h *RequestBookingHandler) bookingID(cmd RequestBookingCommand) string {
	if cmd.BookingID != "" {
		return cmd.BookingID
	}
	if h.IDGenerator != nil {
		return h.IDGenerator()
	}
	return uuid.NewString()
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
