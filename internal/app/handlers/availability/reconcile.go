package availability

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"buckler/internal/app/commands"
	"buckler/internal/app/dto"
	handlersupport "buckler/internal/app/handlers/support"
	"buckler/internal/app/outbox"
	"buckler/internal/app/uow"
	domainavailability "buckler/internal/domain/availability"
	domainbooking "buckler/internal/domain/booking"
	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/events"
	"buckler/internal/domain/shared/money"
)

const reconcileAvailabilityKey = "availability.reconcile"

var (
	ErrMinNightsOnTour = errs.New(errs.ErrValidation, "availability: min_nights_override applies to listings only")
	ErrSpotsOnListing  = errs.New(errs.ErrValidation, "availability: available_spots applies to tours only")
	ErrTargetNotOwned  = domainavailability.ErrTargetNotFound
)

type EntryInput struct {
	Date              time.Time `validate:"required"`
	IsAvailable       bool
	PriceOverride     *string `validate:"omitempty,numeric"`
	MinNightsOverride *int    `validate:"omitempty,min=1"`
	AvailableSpots    *int    `validate:"omitempty,min=0"`
}

type ReconcileAvailabilityCommand struct {
	TargetID string `validate:"required"`
	ActorID  string
	Entries  []EntryInput `validate:"required,min=1,dive"`
}

func (c ReconcileAvailabilityCommand) Key() string { return reconcileAvailabilityKey }

// ReconcileHandler merges a batch of per-day entries into a target calendar
// with one range read and one upsert, under the target lock.
type ReconcileHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ReconcileHandler) Handle(ctx context.Context, cmd ReconcileAvailabilityCommand) (*dto.ReconcileResult, error) {
	targetID := strings.TrimSpace(cmd.TargetID)
	if len(cmd.Entries) == 0 {
		return nil, domainavailability.ErrNoEntries
	}
	now := handlersupport.Clock(h.Now)

	var result *dto.ReconcileResult
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		target, err := handlersupport.LoadTarget(ctx, unit, "", targetID)
		if err != nil {
			if errs.KindOf(err) == errs.ErrNotFound {
				return domainavailability.ErrTargetNotFound
			}
			return err
		}
		if actor := strings.TrimSpace(cmd.ActorID); actor != "" && actor != target.ProviderID {
			return ErrTargetNotOwned
		}
		requested, err := toEntries(target, cmd.Entries)
		if err != nil {
			return err
		}
		if err := unit.LockTarget(ctx, target.ID); err != nil {
			return errs.Unavailable(err)
		}
		from, to, _ := domainavailability.Span(requested)
		if err := ensureClosuresFree(ctx, unit.Bookings(), target.ID, requested, from, to); err != nil {
			return err
		}
		existing, err := unit.Availability().Range(ctx, target.ID, from, to)
		if err != nil {
			return errs.Unavailable(err)
		}
		plan := domainavailability.Diff(existing, requested, now)
		if err := unit.Availability().Upsert(ctx, plan.All()); err != nil {
			return errs.Unavailable(err)
		}
		event := domainavailability.AvailabilityReconciled{
			TargetID: target.ID,
			From:     from,
			To:       to,
			Created:  len(plan.Creates),
			Updated:  len(plan.Updates),
			At:       now,
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, []events.DomainEvent{event}); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.Info("availability reconciled",
				"target_id", target.ID,
				"created", len(plan.Creates),
				"updated", len(plan.Updates))
		}
		result = &dto.ReconcileResult{
			TargetID:  target.ID,
			Processed: plan.Processed(),
			Created:   len(plan.Creates),
			Updated:   len(plan.Updates),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ensureClosuresFree refuses to close a day that a PENDING or CONFIRMED
// booking covers. Price and override changes on such days are allowed.
func ensureClosuresFree(ctx context.Context, bookings domainbooking.Repository, targetID string, requested []domainavailability.Entry, from, to time.Time) error {
	var closed []time.Time
	for _, e := range domainavailability.Index(requested) {
		if !e.IsAvailable {
			closed = append(closed, daterange.Truncate(e.Date))
		}
	}
	if len(closed) == 0 {
		return nil
	}
	slices.SortFunc(closed, time.Time.Compare)
	span := daterange.DateRange{CheckIn: from, CheckOut: to.AddDate(0, 0, 1)}
	held, err := domainbooking.Checker{Bookings: bookings}.Overlapping(ctx, targetID, span, "")
	if err != nil {
		return err
	}
	for _, d := range closed {
		for _, b := range held {
			if b.Range.ContainsDate(d) {
				return errs.Wrapf(domainavailability.ErrDateOccupied, "%s is held by booking %s", daterange.DayKey(d), b.ID)
			}
		}
	}
	return nil
}

func toEntries(target handlersupport.Target, inputs []EntryInput) ([]domainavailability.Entry, error) {
	out := make([]domainavailability.Entry, 0, len(inputs))
	for _, in := range inputs {
		e := domainavailability.Entry{
			TargetID:          target.ID,
			Date:              in.Date,
			IsAvailable:       in.IsAvailable,
			MinNightsOverride: in.MinNightsOverride,
			AvailableSpots:    in.AvailableSpots,
		}
		if in.PriceOverride != nil {
			price, err := money.Parse(*in.PriceOverride, target.Currency())
			if err != nil {
				return nil, err
			}
			e.PriceOverride = &price
		}
		if target.Vertical == domainbooking.VerticalTour && e.MinNightsOverride != nil {
			return nil, ErrMinNightsOnTour
		}
		if target.Vertical == domainbooking.VerticalRental && e.AvailableSpots != nil {
			return nil, ErrSpotsOnListing
		}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

var _ commands.Handler[ReconcileAvailabilityCommand, *dto.ReconcileResult] = (*ReconcileHandler)(nil)
