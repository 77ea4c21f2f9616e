package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"rentgate/internal/app/commands"
	"rentgate/internal/app/dto"
	"rentgate/internal/app/middleware"
	"rentgate/internal/app/outbox"
	"rentgate/internal/app/policies"
	"rentgate/internal/app/uow"
	domainledger "rentgate/internal/domain/ledger"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/rejection"
)

const updateTransactionStatusKey = "ledger.update_status"

// UpdateTransactionStatusCommand sets either status; empty strings leave a field untouched.
type UpdateTransactionStatusCommand struct {
	Actor            actor.Actor
	TransactionID    string `validate:"required"`
	ProcessingStatus string `validate:"omitempty,oneof=pending succeeded failed"`
	SettlementStatus string `validate:"omitempty,oneof=unpaid partial paid"`
}

func (c UpdateTransactionStatusCommand) Key() string            { return updateTransactionStatusKey }
func (c UpdateTransactionStatusCommand) Principal() actor.Actor { return c.Actor }

type UpdateTransactionStatusHandler struct {
	Clock   policies.Clock
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *UpdateTransactionStatusHandler) Handle(ctx context.Context, cmd UpdateTransactionStatusCommand) (*dto.TransactionUpdate, error) {
	if !cmd.Actor.IsAdmin() && !cmd.Actor.IsSystem() {
		return nil, rejection.New(rejection.Unauthorized, "only admins can update transaction status")
	}
	update, err := parseUpdate(cmd.ProcessingStatus, cmd.SettlementStatus)
	if err != nil {
		return nil, err
	}
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := unit.Transactions().ByID(ctx, domainledger.TransactionID(strings.TrimSpace(cmd.TransactionID)))
	if err != nil {
		return nil, err
	}
	warnings, err := tx.UpdateStatus(cmd.Actor, update, h.Clock.Now())
	if err != nil {
		return nil, err
	}
	if err := unit.Transactions().Save(ctx, tx); err != nil {
		return nil, err
	}
	if err := outbox.Publish(ctx, h.Outbox, h.Encoder, tx); err != nil {
		return nil, err
	}

	out := &dto.TransactionUpdate{Transaction: dto.MapTransaction(tx, cmd.Actor, false)}
	for _, w := range warnings {
		out.Warnings = append(out.Warnings, string(w))
		if h.Logger != nil {
			h.Logger.Warn(string(w), "transaction_id", tx.ID, "reservation_id", tx.ReservationID, "actor_id", cmd.Actor.ID)
		}
	}
	if h.Logger != nil {
		h.Logger.Info("transaction status updated",
			"transaction_id", tx.ID,
			"processing_status", tx.ProcessingStatus,
			"settlement_status", tx.SettlementStatus,
			"actor_id", cmd.Actor.ID,
		)
	}
	return out, nil
}

func parseUpdate(processing, settlement string) (domainledger.StatusUpdate, error) {
	var update domainledger.StatusUpdate
	if strings.TrimSpace(processing) != "" {
		p, err := domainledger.ParseProcessingStatus(processing)
		if err != nil {
			return update, errors.Join(middleware.ErrInvalidInput, err)
		}
		update.Processing = &p
	}
	if strings.TrimSpace(settlement) != "" {
		s, err := domainledger.ParseSettlementStatus(settlement)
		if err != nil {
			return update, errors.Join(middleware.ErrInvalidInput, err)
		}
		update.Settlement = &s
	}
	if update.Processing == nil && update.Settlement == nil {
		return update, errors.Join(middleware.ErrInvalidInput, domainledger.ErrEmptyUpdate)
	}
	return update, nil
}

var _ commands.Handler[UpdateTransactionStatusCommand, *dto.TransactionUpdate] = (*UpdateTransactionStatusHandler)(nil)
