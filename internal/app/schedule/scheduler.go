package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"buckler/internal/app/commands"
	bookinghandlers "buckler/internal/app/handlers/booking"
	"buckler/internal/domain/shared/errs"
)

var ErrCompleterNotConfigured = errors.New("schedule: completer requires a command bus")

// Completer periodically completes bookings whose stay or tour has ended.
// Failures are logged and the loop keeps going; only ctx cancellation stops it.
type Completer struct {
	Bus      commands.Bus
	Interval time.Duration
	Logger   *slog.Logger
}

func (c *Completer) Run(ctx context.Context) error {
	if c.Bus == nil {
		return ErrCompleterNotConfigured
	}
	ticker := time.NewTicker(c.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick runs one sweep and reports whether it succeeded.
func (c *Completer) Tick(ctx context.Context) bool {
	res, err := commands.Dispatch[bookinghandlers.CompleteFinishedBookingsCommand, *bookinghandlers.CompleteFinishedResult](
		ctx, c.Bus, bookinghandlers.CompleteFinishedBookingsCommand{})
	if err != nil {
		if c.Logger != nil {
			c.Logger.Error("completion sweep failed", "kind", errs.KindOf(err), "error", err)
		}
		return false
	}
	if c.Logger != nil && res != nil && len(res.Completed) > 0 {
		c.Logger.Info("completion sweep done", "completed", len(res.Completed))
	}
	return true
}

func (c *Completer) interval() time.Duration {
	if c.Interval <= 0 {
		return time.Minute
	}
	return c.Interval
}
