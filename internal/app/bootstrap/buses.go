// Package bootstrap registers every command and query handler on the buses
// and wraps them with the middleware pipeline.
package bootstrap

import (
	"log/slog"
	"time"

	"buckler/internal/app/commands"
	"buckler/internal/app/dto"
	availabilityapp "buckler/internal/app/handlers/availability"
	bookingapp "buckler/internal/app/handlers/booking"
	catalogapp "buckler/internal/app/handlers/catalog"
	earningsapp "buckler/internal/app/handlers/earnings"
	"buckler/internal/app/middleware"
	"buckler/internal/app/outbox"
	"buckler/internal/app/policies"
	"buckler/internal/app/queries"
	"buckler/internal/app/uow"
	domainbooking "buckler/internal/domain/booking"
	domainearnings "buckler/internal/domain/earnings"
)

type Deps struct {
	UoWFactory  uow.UoWFactory
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Idempotency middleware.IdempotencyStore
	Validator   middleware.Validator
	Pricing     policies.PricingPort
	Rates       map[domainbooking.Vertical]domainearnings.Rates
	Currency    string
	Logger      *slog.Logger
	Now         func() time.Time
	IDGenerator func() string
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// Build wires the handlers. Command middleware runs outermost first, so the
// outbox is flushed only after the transaction committed.
func Build(d Deps) Buses {
	if d.Encoder == nil {
		d.Encoder = outbox.JSONEventEncoder{}
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, &bookingapp.RequestBookingHandler{
		UoWFactory:  d.UoWFactory,
		Pricing:     d.Pricing,
		Outbox:      d.Outbox,
		Encoder:     d.Encoder,
		Logger:      logger,
		Now:         d.Now,
		IDGenerator: d.IDGenerator,
	})
	lifecycle := &bookingapp.LifecycleHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     d.Outbox,
		Encoder:    d.Encoder,
		Logger:     logger,
		Now:        d.Now,
	}
	commands.RegisterHandler(commandBus, commands.HandlerFunc[bookingapp.ApproveBookingCommand, *dto.Booking](lifecycle.Approve))
	commands.RegisterHandler(commandBus, commands.HandlerFunc[bookingapp.RejectBookingCommand, *dto.Booking](lifecycle.Reject))
	commands.RegisterHandler(commandBus, commands.HandlerFunc[bookingapp.CancelBookingCommand, *dto.Booking](lifecycle.Cancel))
	commands.RegisterHandler(commandBus, commands.HandlerFunc[bookingapp.CompleteBookingCommand, *dto.Booking](lifecycle.Complete))
	commands.RegisterHandler(commandBus, &bookingapp.CompleteFinishedHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     d.Outbox,
		Encoder:    d.Encoder,
		Logger:     logger,
		Now:        d.Now,
	})
	commands.RegisterHandler(commandBus, &availabilityapp.ReconcileHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     d.Outbox,
		Encoder:    d.Encoder,
		Logger:     logger,
		Now:        d.Now,
	})
	commands.RegisterHandler(commandBus, &catalogapp.UpsertListingHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     d.Outbox,
		Encoder:    d.Encoder,
		Logger:     logger,
		Now:        d.Now,
	})
	commands.RegisterHandler(commandBus, &catalogapp.UpsertTourHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     d.Outbox,
		Encoder:    d.Encoder,
		Logger:     logger,
		Now:        d.Now,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, &bookingapp.GetBookingHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler(queryBus, &bookingapp.ListGuestBookingsHandler{UoWFactory: d.UoWFactory, Logger: logger})
	queries.RegisterHandler(queryBus, &bookingapp.ListProviderBookingsHandler{UoWFactory: d.UoWFactory, Logger: logger})
	queries.RegisterHandler(queryBus, &availabilityapp.GetCalendarHandler{UoWFactory: d.UoWFactory, Now: d.Now})
	queries.RegisterHandler(queryBus, &catalogapp.GetTargetHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler(queryBus, &earningsapp.ComputeEarningsHandler{
		UoWFactory: d.UoWFactory,
		Rates:      d.Rates,
		Currency:   d.Currency,
		Logger:     logger,
		Now:        d.Now,
	})

	mws := []middleware.CommandMiddleware{middleware.Logging(logger)}
	if d.Validator != nil {
		mws = append(mws, middleware.Validation(d.Validator))
	}
	if d.Idempotency != nil {
		mws = append(mws, middleware.Idempotency(d.Idempotency, nil))
	}
	mws = append(mws,
		middleware.OutboxFlush(d.Outbox),
		middleware.Transaction(d.UoWFactory),
	)

	var qmws []middleware.QueryMiddleware
	if d.Validator != nil {
		qmws = append(qmws, middleware.QueryValidation(d.Validator))
	}
	return Buses{
		Commands: middleware.ChainCommands(commandBus, mws...),
		Queries:  middleware.ChainQueries(queryBus, qmws...),
	}
}
