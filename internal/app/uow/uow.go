package uow

import (
	"context"

	domainavailability "buckler/internal/domain/availability"
	domainbooking "buckler/internal/domain/booking"
	domainlistings "buckler/internal/domain/listings"
	domaintours "buckler/internal/domain/tours"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.ListingRepository
	Tours() domaintours.Repository
	Bookings() domainbooking.Repository
	Availability() domainavailability.Repository

	// LockTarget serializes writers on one listing or tour until the unit ends.
	LockTarget(ctx context.Context, targetID string) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
