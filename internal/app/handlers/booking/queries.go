package booking

import (
	"context"
	"log/slog"
	"strings"

	"buckler/internal/app/dto"
	handlersupport "buckler/internal/app/handlers/support"
	"buckler/internal/app/queries"
	"buckler/internal/app/uow"
	domainbooking "buckler/internal/domain/booking"
	"buckler/internal/domain/shared/errs"
)

const (
	getBookingKey           = "booking.get"
	listGuestBookingsKey    = "me.bookings.list"
	listProviderBookingsKey = "provider.bookings.list"

	allStatusesFilterValue = "ALL"
)

var (
	ErrGuestRequired    = errs.New(errs.ErrValidation, "booking: guest id is required")
	ErrProviderRequired = errs.New(errs.ErrValidation, "booking: provider id is required")
	ErrStatusFilter     = errs.New(errs.ErrValidation, "booking: unknown status filter")
)

type GetBookingQuery struct {
	BookingID string
	ActorID   string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, errs.Unavailable(err)
	}
	if cleanup != nil {
		defer cleanup()
	}
	booking, err := loadBooking(execCtx, unit, strings.TrimSpace(q.BookingID))
	if err != nil {
		return dto.Booking{}, err
	}
	if err := authorize(execCtx, unit, booking, strings.TrimSpace(q.ActorID), guestOrProvider); err != nil {
		return dto.Booking{}, err
	}
	return dto.MapBooking(booking), nil
}

type ListGuestBookingsQuery struct {
	GuestID string
	Status  string
}

func (q ListGuestBookingsQuery) Key() string { return listGuestBookingsKey }

type ListGuestBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookingsQuery) (dto.BookingCollection, error) {
	guestID := strings.TrimSpace(q.GuestID)
	if guestID == "" {
		return dto.BookingCollection{}, ErrGuestRequired
	}
	keep, err := statusFilter(q.Status, "")
	if err != nil {
		return dto.BookingCollection{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, errs.Unavailable(err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByGuest(execCtx, guestID)
	if err != nil {
		return dto.BookingCollection{}, errs.Unavailable(err)
	}
	out := filterBookings(bookings, keep)
	if h.Logger != nil {
		h.Logger.Debug("guest bookings listed", "guest_id", guestID, "count", len(out))
	}
	return dto.MapBookings(out), nil
}

// ListProviderBookingsQuery lists bookings on every target of the provider.
// Status defaults to PENDING, the approval inbox; "ALL" disables the filter.
type ListProviderBookingsQuery struct {
	ProviderID string
	Vertical   string
	Status     string
}

func (q ListProviderBookingsQuery) Key() string { return listProviderBookingsKey }

type ListProviderBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListProviderBookingsHandler) Handle(ctx context.Context, q ListProviderBookingsQuery) (dto.BookingCollection, error) {
	providerID := strings.TrimSpace(q.ProviderID)
	if providerID == "" {
		return dto.BookingCollection{}, ErrProviderRequired
	}
	vertical, err := domainbooking.ParseVertical(q.Vertical)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	keep, err := statusFilter(q.Status, domainbooking.StatusPending)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, errs.Unavailable(err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	targets, err := handlersupport.ProviderTargets(execCtx, unit, vertical, providerID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	var all []*domainbooking.Booking
	for _, id := range targets {
		bookings, err := unit.Bookings().ListByTarget(execCtx, id)
		if err != nil {
			return dto.BookingCollection{}, errs.Unavailable(err)
		}
		all = append(all, filterBookings(bookings, keep)...)
	}
	if h.Logger != nil {
		h.Logger.Debug("provider bookings listed", "provider_id", providerID, "vertical", vertical, "count", len(all))
	}
	return dto.MapBookings(all), nil
}

// statusFilter parses raw; an empty value falls back to def, where an empty
// def means no filtering.
func statusFilter(raw string, def domainbooking.Status) (domainbooking.Status, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	switch value {
	case "":
		return def, nil
	case allStatusesFilterValue:
		return "", nil
	}
	status, ok := domainbooking.ParseStatus(value)
	if !ok {
		return "", errs.Wrapf(ErrStatusFilter, "%q", raw)
	}
	return status, nil
}

func filterBookings(bookings []*domainbooking.Booking, keep domainbooking.Status) []*domainbooking.Booking {
	if keep == "" {
		return bookings
	}
	out := make([]*domainbooking.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == keep {
			out = append(out, b)
		}
	}
	return out
}

var (
	_ queries.Handler[GetBookingQuery, dto.Booking]                     = (*GetBookingHandler)(nil)
	_ queries.Handler[ListGuestBookingsQuery, dto.BookingCollection]    = (*ListGuestBookingsHandler)(nil)
	_ queries.Handler[ListProviderBookingsQuery, dto.BookingCollection] = (*ListProviderBookingsHandler)(nil)
)
