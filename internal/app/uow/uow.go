package uow

import (
	"context"
	"errors"

	domainavailability "rentgate/internal/domain/availability"
	domainledger "rentgate/internal/domain/ledger"
	domainlistings "rentgate/internal/domain/listings"
	domainreservation "rentgate/internal/domain/reservation"
	domainuser "rentgate/internal/domain/user"
)

// ErrConflict marks failures caused by a concurrent writer. The whole unit can be retried.
var ErrConflict = errors.New("uow: concurrent write conflict")

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.Repository
	Users() domainuser.Repository
	Overrides() domainavailability.OverrideRepository
	Reservations() domainreservation.Repository
	Transactions() domainledger.Repository

	// LockCalendar serialises writers of one listing's booked-date set until the unit ends.
	LockCalendar(ctx context.Context, listingID domainlistings.ListingID) error

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
