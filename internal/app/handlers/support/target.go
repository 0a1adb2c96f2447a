package support

import (
	"context"
	"errors"
	"time"

	"buckler/internal/app/uow"
	domainbooking "buckler/internal/domain/booking"
	domainlistings "buckler/internal/domain/listings"
	"buckler/internal/domain/shared/errs"
	domaintours "buckler/internal/domain/tours"
)

// Target is a listing or a tour seen through what booking handlers need.
type Target struct {
	Vertical   domainbooking.Vertical
	ID         string
	ProviderID string
	Listing    *domainlistings.Listing
	Tour       *domaintours.Tour
}

// Policy is the cancellation preset name configured on the target.
func (t Target) Policy() string {
	if t.Listing != nil {
		return t.Listing.CancellationPolicy
	}
	return t.Tour.CancellationPolicy
}

func (t Target) InstantBook() bool {
	if t.Listing != nil {
		return t.Listing.InstantBook
	}
	return t.Tour.InstantBook
}

func (t Target) Currency() string {
	if t.Listing != nil {
		return t.Listing.Currency()
	}
	return t.Tour.PricePerParticipant.Currency
}

// LoadTarget fetches the target of the given vertical. With an empty vertical
// listings are tried first, then tours.
func LoadTarget(ctx context.Context, unit uow.UnitOfWork, vertical domainbooking.Vertical, id string) (Target, error) {
	if vertical == "" || vertical == domainbooking.VerticalRental {
		listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(id))
		switch {
		case err == nil:
			return Target{Vertical: domainbooking.VerticalRental, ID: id, ProviderID: string(listing.Host), Listing: listing}, nil
		case !errors.Is(err, errs.ErrNotFound):
			return Target{}, errs.Unavailable(err)
		case vertical == domainbooking.VerticalRental:
			return Target{}, err
		}
	}
	tour, err := unit.Tours().ByID(ctx, domaintours.TourID(id))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Target{}, err
		}
		return Target{}, errs.Unavailable(err)
	}
	return Target{Vertical: domainbooking.VerticalTour, ID: id, ProviderID: string(tour.Operator), Tour: tour}, nil
}

// ProviderTargets lists the ids of every target owned by provider in vertical.
func ProviderTargets(ctx context.Context, unit uow.UnitOfWork, vertical domainbooking.Vertical, providerID string) ([]string, error) {
	var ids []string
	switch vertical {
	case domainbooking.VerticalTour:
		items, err := unit.Tours().ListByOperator(ctx, domaintours.OperatorID(providerID))
		if err != nil {
			return nil, errs.Unavailable(err)
		}
		for _, t := range items {
			ids = append(ids, string(t.ID))
		}
	default:
		items, err := unit.Listings().ListByHost(ctx, domainlistings.HostID(providerID))
		if err != nil {
			return nil, errs.Unavailable(err)
		}
		for _, l := range items {
			ids = append(ids, string(l.ID))
		}
	}
	return ids, nil
}

// Clock returns now() in UTC, defaulting to time.Now.
func Clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
