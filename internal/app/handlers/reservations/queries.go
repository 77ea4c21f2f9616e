package reservations

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"rentgate/internal/app/dto"
	"rentgate/internal/app/handlers/support"
	"rentgate/internal/app/middleware"
	"rentgate/internal/app/uow"
	"rentgate/internal/domain/access"
	domainledger "rentgate/internal/domain/ledger"
	domainlistings "rentgate/internal/domain/listings"
	domainreservation "rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/rejection"
	domainuser "rentgate/internal/domain/user"
)

const (
	getReservationKey        = "reservations.get"
	listGuestReservationsKey = "reservations.list_guest"
	listHostReservationsKey  = "reservations.list_host"
	getReservationContactKey = "reservations.contact"
	allStatusesFilterValue   = "all"
)

type GetReservationQuery struct {
	Actor         actor.Actor
	ReservationID string `validate:"required"`
}

func (q GetReservationQuery) Key() string            { return getReservationKey }
func (q GetReservationQuery) Principal() actor.Actor { return q.Actor }

type ListGuestReservationsQuery struct {
	Actor           actor.Actor
	IncludeArchived bool
}

func (q ListGuestReservationsQuery) Key() string            { return listGuestReservationsKey }
func (q ListGuestReservationsQuery) Principal() actor.Actor { return q.Actor }

type ListHostReservationsQuery struct {
	Actor           actor.Actor
	Status          string
	ListingID       string
	IncludeArchived bool
}

func (q ListHostReservationsQuery) Key() string            { return listHostReservationsKey }
func (q ListHostReservationsQuery) Principal() actor.Actor { return q.Actor }

type GetContactQuery struct {
	Actor         actor.Actor
	ReservationID string `validate:"required"`
}

func (q GetContactQuery) Key() string            { return getReservationContactKey }
func (q GetContactQuery) Principal() actor.Actor { return q.Actor }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *QueryHandler) Get(ctx context.Context, q GetReservationQuery) (dto.Reservation, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Reservation{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	res, txs, err := support.LoadReservation(execCtx, unit, q.ReservationID)
	if err != nil {
		return dto.Reservation{}, err
	}
	if err := support.RequireVisibility(q.Actor, res); err != nil {
		return dto.Reservation{}, err
	}
	return mapView(q.Actor, res, txs), nil
}

func (h *QueryHandler) ListForGuest(ctx context.Context, q ListGuestReservationsQuery) (dto.ReservationCollection, error) {
	return h.list(ctx, q.Actor, domainreservation.ListFilter{
		GuestID:         q.Actor.ID,
		IncludeArchived: q.IncludeArchived,
	})
}

func (h *QueryHandler) ListForHost(ctx context.Context, q ListHostReservationsQuery) (dto.ReservationCollection, error) {
	filter := domainreservation.ListFilter{
		HostID:          domainlistings.HostID(q.Actor.ID),
		ListingID:       domainlistings.ListingID(strings.TrimSpace(q.ListingID)),
		IncludeArchived: q.IncludeArchived,
	}
	if raw := strings.TrimSpace(q.Status); raw != "" && !strings.EqualFold(raw, allStatusesFilterValue) {
		status, ok := domainreservation.ParseStatus(raw)
		if !ok {
			return dto.ReservationCollection{}, middleware.ErrInvalidInput
		}
		filter.Status = status
	}
	return h.list(ctx, q.Actor, filter)
}

func (h *QueryHandler) list(ctx context.Context, viewer actor.Actor, filter domainreservation.ListFilter) (dto.ReservationCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Reservations().List(execCtx, filter)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	out := dto.ReservationCollection{Items: make([]dto.Reservation, 0, len(items))}
	for _, res := range items {
		txs, err := unit.Transactions().ListByReservation(execCtx, res.ID)
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		out.Items = append(out.Items, mapView(viewer, res, txs))
	}
	if h.Logger != nil {
		h.Logger.Debug("reservations listed", "actor_id", viewer.ID, "count", len(out.Items), "status", filter.Status)
	}
	return out, nil
}

// Contact releases the counterparty's details once the access gate opens.
func (h *QueryHandler) Contact(ctx context.Context, q GetContactQuery) (dto.Contact, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Contact{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	res, txs, err := support.LoadReservation(execCtx, unit, q.ReservationID)
	if err != nil {
		return dto.Contact{}, err
	}
	if !access.CanViewContact(q.Actor, res, txs) {
		return dto.Contact{}, rejection.New(rejection.Unauthorized, "contact details are not available yet")
	}
	counterparty := access.Counterparty(q.Actor, res)
	u, err := unit.Users().ByID(execCtx, domainuser.ID(counterparty))
	if err != nil {
		return dto.Contact{}, err
	}
	contact := u.Contact()
	if h.Logger != nil {
		h.Logger.Info("contact released", "reservation_id", res.ID, "viewer_id", q.Actor.ID, "counterparty_id", counterparty)
	}
	return dto.Contact{
		ReservationID: string(res.ID),
		UserID:        string(u.ID),
		Name:          contact.Name,
		Email:         contact.Email,
		Phone:         contact.Phone,
	}, nil
}

func mapView(viewer actor.Actor, res *domainreservation.Reservation, txs []*domainledger.Transaction) dto.Reservation {
	return dto.MapReservation(res, dto.ReservationView{
		Viewer:         viewer,
		Transactions:   txs,
		CanViewContact: access.CanViewContact(viewer, res, txs),
	})
}

