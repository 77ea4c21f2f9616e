package support

import (
	"context"
	"errors"
	"strings"

	"rentgate/internal/app/uow"
	domainledger "rentgate/internal/domain/ledger"
	domainreservation "rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/rejection"
)

var ErrReservationIDRequired = errors.New("reservation id is required")

// LoadReservation fetches a reservation together with its transactions, newest first.
func LoadReservation(ctx context.Context, unit uow.UnitOfWork, id string) (*domainreservation.Reservation, []*domainledger.Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil, ErrReservationIDRequired
	}
	res, err := unit.Reservations().ByID(ctx, domainreservation.ID(id))
	if err != nil {
		return nil, nil, err
	}
	txs, err := unit.Transactions().ListByReservation(ctx, res.ID)
	if err != nil {
		return nil, nil, err
	}
	domainledger.SortNewestFirst(txs)
	return res, txs, nil
}

// RequireVisibility lets parties and admins read a reservation.
func RequireVisibility(viewer actor.Actor, res *domainreservation.Reservation) error {
	if viewer.IsAdmin() || res.IsParty(viewer) {
		return nil
	}
	return rejection.New(rejection.Unauthorized, "reservation is not visible to this user")
}
