package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentgate/internal/domain/listings"
	"rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/daterange"
)

type ReservationSource interface {
	ActiveByListing(ctx context.Context, listingID listings.ListingID) ([]*reservation.Reservation, error)
}

type OverrideSource interface {
	ByListing(ctx context.Context, listingID listings.ListingID) ([]Override, error)
}

// Resolver answers calendar questions over the current reservation and override state.
// It has no side effects.
type Resolver struct {
	Reservations ReservationSource
	Overrides    OverrideSource
}

func (r Resolver) Calendar(ctx context.Context, listingID listings.ListingID) (*Calendar, error) {
	if r.Reservations == nil || r.Overrides == nil {
		return nil, errors.New("availability: resolver is not configured")
	}
	reservations, err := r.Reservations.ActiveByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("availability: load reservations: %w", err)
	}
	overrides, err := r.Overrides.ByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("availability: load overrides: %w", err)
	}
	return NewCalendar(listingID, reservations, overrides), nil
}

func (r Resolver) UnavailableDates(ctx context.Context, listingID listings.ListingID) ([]time.Time, error) {
	cal, err := r.Calendar(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return cal.UnavailableDates(), nil
}

func (r Resolver) IsRangeBookable(ctx context.Context, listingID listings.ListingID, rng daterange.DateRange) (bool, error) {
	if rng.Validate() != nil {
		return false, nil
	}
	cal, err := r.Calendar(ctx, listingID)
	if err != nil {
		return false, err
	}
	return cal.IsRangeBookable(rng), nil
}
