package availability

import (
	"context"
	"strings"
	"time"

	"buckler/internal/app/dto"
	handlersupport "buckler/internal/app/handlers/support"
	"buckler/internal/app/queries"
	"buckler/internal/app/uow"
	domainavailability "buckler/internal/domain/availability"
	domainbooking "buckler/internal/domain/booking"
	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
)

const (
	getCalendarKey = "availability.calendar"

	defaultCalendarDays = 60
	maxCalendarDays     = 366
)

var ErrCalendarWindow = errs.New(errs.ErrValidation, "availability: calendar window must be between 1 and 366 days")

// GetCalendarQuery reads entries and occupying bookings for [From, To]. A zero
// From means today; a zero To means sixty days after From.
type GetCalendarQuery struct {
	TargetID string
	From     time.Time
	To       time.Time
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	from := daterange.Truncate(q.From)
	if from.IsZero() {
		from = daterange.Truncate(handlersupport.Clock(h.Now))
	}
	to := daterange.Truncate(q.To)
	if to.IsZero() {
		to = from.AddDate(0, 0, defaultCalendarDays-1)
	}
	if span := daterange.DaysBetween(from, to); span < 0 || span >= maxCalendarDays {
		return dto.Calendar{}, ErrCalendarWindow
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, errs.Unavailable(err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	target, err := handlersupport.LoadTarget(execCtx, unit, "", strings.TrimSpace(q.TargetID))
	if err != nil {
		if errs.KindOf(err) == errs.ErrNotFound {
			return dto.Calendar{}, domainavailability.ErrTargetNotFound
		}
		return dto.Calendar{}, err
	}
	entries, err := unit.Availability().Range(execCtx, target.ID, from, to)
	if err != nil {
		return dto.Calendar{}, errs.Unavailable(err)
	}
	window := daterange.DateRange{CheckIn: from, CheckOut: to.AddDate(0, 0, 1)}
	occupied, err := domainbooking.Checker{Bookings: unit.Bookings()}.Overlapping(execCtx, target.ID, window, "")
	if err != nil {
		return dto.Calendar{}, err
	}

	out := dto.Calendar{
		TargetID: target.ID,
		From:     daterange.DayKey(from),
		To:       daterange.DayKey(to),
		Days:     make([]dto.CalendarDay, 0, len(entries)),
		Occupied: make([]dto.OccupiedRange, 0, len(occupied)),
	}
	for _, e := range entries {
		out.Days = append(out.Days, dto.MapCalendarDay(e))
	}
	for _, b := range occupied {
		out.Occupied = append(out.Occupied, dto.MapOccupied(b))
	}
	return out, nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
