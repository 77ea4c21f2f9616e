package reservations

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"rentgate/internal/app/dto"
	"rentgate/internal/app/handlers/support"
	"rentgate/internal/app/outbox"
	"rentgate/internal/app/policies"
	"rentgate/internal/app/uow"
	"rentgate/internal/domain/access"
	domainledger "rentgate/internal/domain/ledger"
	domainreservation "rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/actor"
)

const (
	confirmReservationKey = "reservations.confirm"
	cancelReservationKey  = "reservations.cancel"
	archiveReservationKey = "reservations.archive"
	validateArrivalKey    = "reservations.validate_arrival"
	confirmPaymentKey     = "reservations.confirm_payment"
)

type ConfirmReservationCommand struct {
	Actor         actor.Actor
	ReservationID string `validate:"required"`
}

func (c ConfirmReservationCommand) Key() string            { return confirmReservationKey }
func (c ConfirmReservationCommand) Principal() actor.Actor { return c.Actor }

type CancelReservationCommand struct {
	Actor         actor.Actor
	ReservationID string `validate:"required"`
	Reason        string `validate:"max=500"`
}

func (c CancelReservationCommand) Key() string            { return cancelReservationKey }
func (c CancelReservationCommand) Principal() actor.Actor { return c.Actor }

type ArchiveReservationCommand struct {
	Actor         actor.Actor
	ReservationID string `validate:"required"`
}

func (c ArchiveReservationCommand) Key() string            { return archiveReservationKey }
func (c ArchiveReservationCommand) Principal() actor.Actor { return c.Actor }

type ValidateArrivalCommand struct {
	Actor         actor.Actor
	ReservationID string `validate:"required"`
}

func (c ValidateArrivalCommand) Key() string            { return validateArrivalKey }
func (c ValidateArrivalCommand) Principal() actor.Actor { return c.Actor }

type ConfirmPaymentCommand struct {
	Actor         actor.Actor
	ReservationID string `validate:"required"`
}

func (c ConfirmPaymentCommand) Key() string            { return confirmPaymentKey }
func (c ConfirmPaymentCommand) Principal() actor.Actor { return c.Actor }

// TransitionHandler applies one state machine transition per command. Every transition
// is a read-modify-write of the reservation row guarded by its version.
type TransitionHandler struct {
	Clock   policies.Clock
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

type transitionFunc func(res *domainreservation.Reservation, evidence domainreservation.PaymentEvidence, now time.Time) (bool, error)

func (h *TransitionHandler) Confirm(ctx context.Context, cmd ConfirmReservationCommand) (*dto.Reservation, error) {
	return h.apply(ctx, cmd.Actor, cmd.ReservationID, "reservation confirmed",
		func(res *domainreservation.Reservation, _ domainreservation.PaymentEvidence, now time.Time) (bool, error) {
			return true, res.Confirm(cmd.Actor, now)
		})
}

func (h *TransitionHandler) Cancel(ctx context.Context, cmd CancelReservationCommand) (*dto.Reservation, error) {
	return h.apply(ctx, cmd.Actor, cmd.ReservationID, "reservation cancelled",
		func(res *domainreservation.Reservation, _ domainreservation.PaymentEvidence, now time.Time) (bool, error) {
			return true, res.Cancel(cmd.Actor, strings.TrimSpace(cmd.Reason), now)
		})
}

func (h *TransitionHandler) Archive(ctx context.Context, cmd ArchiveReservationCommand) (*dto.Reservation, error) {
	return h.apply(ctx, cmd.Actor, cmd.ReservationID, "reservation archived",
		func(res *domainreservation.Reservation, _ domainreservation.PaymentEvidence, now time.Time) (bool, error) {
			return res.Archive(cmd.Actor, now)
		})
}

func (h *TransitionHandler) ValidateArrival(ctx context.Context, cmd ValidateArrivalCommand) (*dto.Reservation, error) {
	return h.apply(ctx, cmd.Actor, cmd.ReservationID, "arrival validated",
		func(res *domainreservation.Reservation, evidence domainreservation.PaymentEvidence, now time.Time) (bool, error) {
			return true, res.ValidateArrival(cmd.Actor, evidence, now)
		})
}

func (h *TransitionHandler) ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (*dto.Reservation, error) {
	return h.apply(ctx, cmd.Actor, cmd.ReservationID, "payment confirmed by host",
		func(res *domainreservation.Reservation, evidence domainreservation.PaymentEvidence, now time.Time) (bool, error) {
			return true, res.ConfirmPayment(cmd.Actor, evidence, now)
		})
}

func (h *TransitionHandler) apply(ctx context.Context, who actor.Actor, reservationID string, logMsg string, fn transitionFunc) (*dto.Reservation, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, err
	}
	res, txs, err := support.LoadReservation(ctx, unit, reservationID)
	if err != nil {
		return nil, err
	}
	changed, err := fn(res, domainledger.Evidence(txs), h.Clock.Now())
	if err != nil {
		return nil, err
	}
	if changed {
		if err := unit.Reservations().Save(ctx, res); err != nil {
			return nil, err
		}
		if err := outbox.Publish(ctx, h.Outbox, h.Encoder, res); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.Info(logMsg,
				"reservation_id", res.ID,
				"actor_id", who.ID,
				"status", res.Status,
				"arrival_status", res.ArrivalStatus,
				"host_payment_status", res.HostPaymentStatus,
			)
		}
	}
	out := dto.MapReservation(res, dto.ReservationView{
		Viewer:         who,
		Transactions:   txs,
		CanViewContact: access.CanViewContact(who, res, txs),
	})
	return &out, nil
}

