package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buckler/internal/app/commands"
	bookinghandlers "buckler/internal/app/handlers/booking"
)

func sweepBus(result *bookinghandlers.CompleteFinishedResult, err error, calls *int) commands.Bus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.HandlerFunc[bookinghandlers.CompleteFinishedBookingsCommand, *bookinghandlers.CompleteFinishedResult](
		func(context.Context, bookinghandlers.CompleteFinishedBookingsCommand) (*bookinghandlers.CompleteFinishedResult, error) {
			*calls++
			return result, err
		}))
	return bus
}

func TestTickReportsOutcome(t *testing.T) {
	calls := 0
	ok := &Completer{Bus: sweepBus(&bookinghandlers.CompleteFinishedResult{Completed: []string{"bkg-1"}}, nil, &calls)}
	assert.True(t, ok.Tick(context.Background()))

	failing := &Completer{Bus: sweepBus(nil, errors.New("db down"), &calls)}
	assert.False(t, failing.Tick(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestRunKeepsGoingAfterFailures(t *testing.T) {
	calls := 0
	c := &Completer{Bus: sweepBus(nil, errors.New("db down"), &calls), Interval: 5 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err := c.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, calls, 2)
}

func TestRunRequiresBus(t *testing.T) {
	require.ErrorIs(t, (&Completer{}).Run(context.Background()), ErrCompleterNotConfigured)
}
