package policies

import (
	domainlistings "buckler/internal/domain/listings"
	domainpricing "buckler/internal/domain/pricing"
	domainrange "buckler/internal/domain/shared/daterange"
	domaintours "buckler/internal/domain/tours"
)

// PricingPort quotes bookings for the intake handler.
type PricingPort interface {
	Stay(listing *domainlistings.Listing, dr domainrange.DateRange, overrides domainpricing.NightlyOverrides) (domainpricing.Breakdown, error)
	Tour(tour *domaintours.Tour, participants int) (domainpricing.Breakdown, error)
}

var _ PricingPort = domainpricing.Calculator{}
