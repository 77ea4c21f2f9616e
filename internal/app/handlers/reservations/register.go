package reservations

import (
	"rentgate/internal/app/commands"
	"rentgate/internal/app/dto"
	"rentgate/internal/app/queries"
)

func (h *CreateReservationHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[CreateReservationCommand, *dto.Reservation](bus, createReservationKey, h)
}

func (h *TransitionHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[ConfirmReservationCommand, *dto.Reservation](bus, confirmReservationKey, commands.HandlerFunc[ConfirmReservationCommand, *dto.Reservation](h.Confirm))
	commands.RegisterHandler[CancelReservationCommand, *dto.Reservation](bus, cancelReservationKey, commands.HandlerFunc[CancelReservationCommand, *dto.Reservation](h.Cancel))
	commands.RegisterHandler[ArchiveReservationCommand, *dto.Reservation](bus, archiveReservationKey, commands.HandlerFunc[ArchiveReservationCommand, *dto.Reservation](h.Archive))
	commands.RegisterHandler[ValidateArrivalCommand, *dto.Reservation](bus, validateArrivalKey, commands.HandlerFunc[ValidateArrivalCommand, *dto.Reservation](h.ValidateArrival))
	commands.RegisterHandler[ConfirmPaymentCommand, *dto.Reservation](bus, confirmPaymentKey, commands.HandlerFunc[ConfirmPaymentCommand, *dto.Reservation](h.ConfirmPayment))
}

func (h *QueryHandler) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler[GetReservationQuery, dto.Reservation](bus, getReservationKey, queries.HandlerFunc[GetReservationQuery, dto.Reservation](h.Get))
	queries.RegisterHandler[ListGuestReservationsQuery, dto.ReservationCollection](bus, listGuestReservationsKey, queries.HandlerFunc[ListGuestReservationsQuery, dto.ReservationCollection](h.ListForGuest))
	queries.RegisterHandler[ListHostReservationsQuery, dto.ReservationCollection](bus, listHostReservationsKey, queries.HandlerFunc[ListHostReservationsQuery, dto.ReservationCollection](h.ListForHost))
	queries.RegisterHandler[GetContactQuery, dto.Contact](bus, getReservationContactKey, queries.HandlerFunc[GetContactQuery, dto.Contact](h.Contact))
}
