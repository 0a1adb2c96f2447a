package earnings

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"buckler/internal/app/dto"
	handlersupport "buckler/internal/app/handlers/support"
	"buckler/internal/app/queries"
	"buckler/internal/app/uow"
	domainbooking "buckler/internal/domain/booking"
	domainearnings "buckler/internal/domain/earnings"
	"buckler/internal/domain/shared/errs"
)

const computeEarningsKey = "earnings.compute"

var (
	ErrProviderRequired = errs.New(errs.ErrValidation, "earnings: provider id is required")
	ErrRatesMissing     = errs.New(errs.ErrValidation, "earnings: no rates configured for vertical")
)

type ComputeEarningsQuery struct {
	ProviderID string
	Vertical   string
	Period     string
}

func (q ComputeEarningsQuery) Key() string { return computeEarningsKey }

// ComputeEarningsHandler aggregates every booking on the provider's targets of
// one vertical. Rates are looked up per vertical.
type ComputeEarningsHandler struct {
	UoWFactory uow.UoWFactory
	Rates      map[domainbooking.Vertical]domainearnings.Rates
	Currency   string
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ComputeEarningsHandler) Handle(ctx context.Context, q ComputeEarningsQuery) (dto.Earnings, error) {
	providerID := strings.TrimSpace(q.ProviderID)
	if providerID == "" {
		return dto.Earnings{}, ErrProviderRequired
	}
	vertical, err := domainbooking.ParseVertical(q.Vertical)
	if err != nil {
		return dto.Earnings{}, err
	}
	period, err := domainearnings.ParsePeriod(q.Period)
	if err != nil {
		return dto.Earnings{}, err
	}
	rates, ok := h.Rates[vertical]
	if !ok {
		return dto.Earnings{}, errs.Wrapf(ErrRatesMissing, "%s", vertical)
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Earnings{}, errs.Unavailable(err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	targets, err := handlersupport.ProviderTargets(execCtx, unit, vertical, providerID)
	if err != nil {
		return dto.Earnings{}, err
	}
	var bookings []*domainbooking.Booking
	for _, id := range targets {
		items, err := unit.Bookings().ListByTarget(execCtx, id, domainbooking.StatusConfirmed, domainbooking.StatusCompleted)
		if err != nil {
			return dto.Earnings{}, errs.Unavailable(err)
		}
		bookings = append(bookings, items...)
	}

	aggregator := domainearnings.Aggregator{Rates: rates, Currency: h.Currency}
	report, err := aggregator.Aggregate(bookings, period, handlersupport.Clock(h.Now))
	if err != nil {
		return dto.Earnings{}, err
	}
	if h.Logger != nil {
		h.Logger.DebugContext(ctx, "earnings computed",
			"provider_id", providerID,
			"vertical", vertical,
			"period", period,
			"bookings", len(bookings),
		)
	}
	return dto.MapEarnings(providerID, string(vertical), report), nil
}

var _ queries.Handler[ComputeEarningsQuery, dto.Earnings] = (*ComputeEarningsHandler)(nil)
