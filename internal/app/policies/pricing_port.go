package policies

import (
	domainlistings "rentgate/internal/domain/listings"
	domainpricing "rentgate/internal/domain/pricing"
	domainrange "rentgate/internal/domain/shared/daterange"
)

// PricingPort is satisfied by pricing.Engine.
type PricingPort interface {
	Quote(listing *domainlistings.Listing, mode domainlistings.RentalMode, dr domainrange.DateRange) (domainpricing.Quote, error)
}

var _ PricingPort = domainpricing.Engine{}
