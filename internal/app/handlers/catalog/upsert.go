package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"buckler/internal/app/commands"
	"buckler/internal/app/dto"
	handlersupport "buckler/internal/app/handlers/support"
	"buckler/internal/app/outbox"
	"buckler/internal/app/uow"
	domainbooking "buckler/internal/domain/booking"
	domainlistings "buckler/internal/domain/listings"
	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/money"
	domaintours "buckler/internal/domain/tours"
)

const (
	upsertListingKey = "catalog.listing.upsert"
	upsertTourKey    = "catalog.tour.upsert"
)

var ErrProviderRequired = errs.New(errs.ErrValidation, "catalog: provider id is required")

type UpsertListingCommand struct {
	ListingID          string  `validate:"required"`
	HostID             string  `validate:"required"`
	Title              string  `validate:"required"`
	GuestsLimit        int     `validate:"min=1"`
	MinNights          int     `validate:"min=0"`
	MaxNights          int     `validate:"min=0"`
	Currency           string  `validate:"required,len=3"`
	NightlyRate        string  `validate:"required,numeric"`
	CleaningFee        *string `validate:"omitempty,numeric"`
	ServiceFee         *string `validate:"omitempty,numeric"`
	SecurityDeposit    *string `validate:"omitempty,numeric"`
	CancellationPolicy string
	InstantBook        bool
}

func (c UpsertListingCommand) Key() string { return upsertListingKey }

// UpsertListingHandler creates the listing on first write and replaces its
// terms afterwards. Only the owning host may update it.
type UpsertListingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *UpsertListingHandler) Handle(ctx context.Context, cmd UpsertListingCommand) (*dto.Listing, error) {
	params, err := listingParams(cmd)
	if err != nil {
		return nil, err
	}
	params.Now = handlersupport.Clock(h.Now)

	var result *dto.Listing
	err = handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		listing, err := unit.Listings().ByID(ctx, params.ID)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			if listing, err = domainlistings.NewListing(params); err != nil {
				return err
			}
		case err != nil:
			return errs.Unavailable(err)
		case listing.Host != params.Host:
			return domainlistings.ErrListingNotFound
		default:
			if err := listing.Update(params); err != nil {
				return err
			}
		}
		if err := unit.Listings().Save(ctx, listing); err != nil {
			return errs.Unavailable(err)
		}
		if err := outbox.RecordPulled(ctx, h.Outbox, h.Encoder, listing); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.Info("listing saved", "listing_id", listing.ID, "host_id", listing.Host, "version", listing.Version)
		}
		out := dto.MapListing(listing)
		result = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func listingParams(cmd UpsertListingCommand) (domainlistings.ListingParams, error) {
	if strings.TrimSpace(cmd.HostID) == "" {
		return domainlistings.ListingParams{}, ErrProviderRequired
	}
	if _, err := domainbooking.PolicyByName(cmd.CancellationPolicy); err != nil {
		return domainlistings.ListingParams{}, err
	}
	rate, err := money.Parse(cmd.NightlyRate, cmd.Currency)
	if err != nil {
		return domainlistings.ListingParams{}, err
	}
	params := domainlistings.ListingParams{
		ID:                 domainlistings.ListingID(strings.TrimSpace(cmd.ListingID)),
		Host:               domainlistings.HostID(strings.TrimSpace(cmd.HostID)),
		Title:              cmd.Title,
		GuestsLimit:        cmd.GuestsLimit,
		MinNights:          cmd.MinNights,
		MaxNights:          cmd.MaxNights,
		NightlyRate:        rate,
		CancellationPolicy: strings.ToLower(strings.TrimSpace(cmd.CancellationPolicy)),
		InstantBook:        cmd.InstantBook,
	}
	if params.CleaningFee, err = optionalMoney(cmd.CleaningFee, cmd.Currency); err != nil {
		return domainlistings.ListingParams{}, err
	}
	if params.ServiceFee, err = optionalMoney(cmd.ServiceFee, cmd.Currency); err != nil {
		return domainlistings.ListingParams{}, err
	}
	if params.SecurityDeposit, err = optionalMoney(cmd.SecurityDeposit, cmd.Currency); err != nil {
		return domainlistings.ListingParams{}, err
	}
	return params, nil
}

type UpsertTourCommand struct {
	TourID              string `validate:"required"`
	OperatorID          string `validate:"required"`
	Title               string `validate:"required"`
	MaxParticipants     int    `validate:"min=1"`
	Currency            string `validate:"required,len=3"`
	PricePerParticipant string `validate:"required,numeric"`
	DurationDays        int    `validate:"min=1"`
	CancellationPolicy  string
	InstantBook         bool
}

func (c UpsertTourCommand) Key() string { return upsertTourKey }

type UpsertTourHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *UpsertTourHandler) Handle(ctx context.Context, cmd UpsertTourCommand) (*dto.Tour, error) {
	if strings.TrimSpace(cmd.OperatorID) == "" {
		return nil, ErrProviderRequired
	}
	if _, err := domainbooking.PolicyByName(cmd.CancellationPolicy); err != nil {
		return nil, err
	}
	price, err := money.Parse(cmd.PricePerParticipant, cmd.Currency)
	if err != nil {
		return nil, err
	}
	params := domaintours.TourParams{
		ID:                  domaintours.TourID(strings.TrimSpace(cmd.TourID)),
		Operator:            domaintours.OperatorID(strings.TrimSpace(cmd.OperatorID)),
		Title:               cmd.Title,
		MaxParticipants:     cmd.MaxParticipants,
		PricePerParticipant: price,
		DurationDays:        cmd.DurationDays,
		CancellationPolicy:  strings.ToLower(strings.TrimSpace(cmd.CancellationPolicy)),
		InstantBook:         cmd.InstantBook,
		Now:                 handlersupport.Clock(h.Now),
	}

	var result *dto.Tour
	err = handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		tour, err := unit.Tours().ByID(ctx, params.ID)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			if tour, err = domaintours.NewTour(params); err != nil {
				return err
			}
		case err != nil:
			return errs.Unavailable(err)
		case tour.Operator != params.Operator:
			return domaintours.ErrTourNotFound
		default:
			if err := tour.Update(params); err != nil {
				return err
			}
		}
		if err := unit.Tours().Save(ctx, tour); err != nil {
			return errs.Unavailable(err)
		}
		if err := outbox.RecordPulled(ctx, h.Outbox, h.Encoder, tour); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.Info("tour saved", "tour_id", tour.ID, "operator_id", tour.Operator, "version", tour.Version)
		}
		out := dto.MapTour(tour)
		result = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func optionalMoney(raw *string, currency string) (*money.Money, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	m, err := money.Parse(*raw, currency)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

var (
	_ commands.Handler[UpsertListingCommand, *dto.Listing] = (*UpsertListingHandler)(nil)
	_ commands.Handler[UpsertTourCommand, *dto.Tour]       = (*UpsertTourHandler)(nil)
)
