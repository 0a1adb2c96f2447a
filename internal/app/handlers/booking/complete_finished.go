package booking

import (
	"context"
	"log/slog"
	"time"

	"buckler/internal/app/commands"
	handlersupport "buckler/internal/app/handlers/support"
	"buckler/internal/app/outbox"
	"buckler/internal/app/uow"
	domainbooking "buckler/internal/domain/booking"
	"buckler/internal/domain/shared/errs"
)

const completeFinishedKey = "booking.complete_finished"

type CompleteFinishedBookingsCommand struct{}

func (c CompleteFinishedBookingsCommand) Key() string { return completeFinishedKey }

type CompleteFinishedResult struct {
	Completed []string `json:"completed"`
}

// CompleteFinishedHandler completes every CONFIRMED booking whose stay or tour
// has ended.
type CompleteFinishedHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *CompleteFinishedHandler) Handle(ctx context.Context, _ CompleteFinishedBookingsCommand) (*CompleteFinishedResult, error) {
	now := handlersupport.Clock(h.Now)
	result := &CompleteFinishedResult{}
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		confirmed, err := unit.Bookings().ListByStatus(ctx, domainbooking.StatusConfirmed)
		if err != nil {
			return errs.Unavailable(err)
		}
		for _, booking := range confirmed {
			if !booking.Finished(now) {
				continue
			}
			if err := booking.Complete(now); err != nil {
				return err
			}
			if err := unit.Bookings().Update(ctx, booking); err != nil {
				return errs.Unavailable(err)
			}
			if err := outbox.RecordPulled(ctx, h.Outbox, h.Encoder, booking); err != nil {
				return err
			}
			result.Completed = append(result.Completed, string(booking.ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil && len(result.Completed) > 0 {
		h.Logger.Info("finished bookings completed", "count", len(result.Completed))
	}
	return result, nil
}

var _ commands.Handler[CompleteFinishedBookingsCommand, *CompleteFinishedResult] = (*CompleteFinishedHandler)(nil)
