package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"rentgate/internal/app/commands"
	"rentgate/internal/app/dto"
	"rentgate/internal/app/handlers/support"
	"rentgate/internal/app/middleware"
	"rentgate/internal/app/outbox"
	"rentgate/internal/app/policies"
	"rentgate/internal/app/uow"
	"rentgate/internal/domain/access"
	domainledger "rentgate/internal/domain/ledger"
	domainreservation "rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/money"
	"rentgate/internal/domain/shared/rejection"
)

const recordTransactionKey = "ledger.record"

// RecordTransactionCommand appends a payment attempt. Amount defaults to the
// reservation's amount due now.
type RecordTransactionCommand struct {
	Actor           actor.Actor
	ReservationID   string `validate:"required"`
	Method          string `validate:"required"`
	Amount          int64  `validate:"gte=0"`
	Currency        string `validate:"omitempty,len=3"`
	Reference       string `validate:"max=120"`
	PayerName       string `validate:"max=120"`
	PayerNumber     string `validate:"max=40"`
	IdempotencyKeyV string
}

func (c RecordTransactionCommand) Key() string            { return recordTransactionKey }
func (c RecordTransactionCommand) Principal() actor.Actor { return c.Actor }

func (c RecordTransactionCommand) IdempotencyKey() string {
	if c.IdempotencyKeyV == "" {
		return ""
	}
	return c.Actor.ID + ":" + c.IdempotencyKeyV
}

func (c RecordTransactionCommand) ResultPrototype() any { return &dto.Transaction{} }

type RecordTransactionHandler struct {
	IDs     policies.IDGenerator
	Clock   policies.Clock
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *RecordTransactionHandler) Handle(ctx context.Context, cmd RecordTransactionCommand) (*dto.Transaction, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, err
	}
	method, err := domainledger.ParseMethod(cmd.Method)
	if err != nil {
		return nil, errors.Join(middleware.ErrInvalidInput, err)
	}
	res, err := unit.Reservations().ByID(ctx, domainreservation.ID(strings.TrimSpace(cmd.ReservationID)))
	if err != nil {
		return nil, err
	}
	if !res.IsGuest(cmd.Actor) && !cmd.Actor.IsAdmin() {
		return nil, rejection.New(rejection.Unauthorized, "only the guest can record a payment")
	}
	if res.Status == domainreservation.StatusCancelled {
		return nil, rejection.New(rejection.InvalidStateTransition, "cannot record a payment on a cancelled reservation")
	}

	amount := res.Quote.AmountDueNow
	if cmd.Amount > 0 {
		currency := cmd.Currency
		if currency == "" {
			currency = amount.Currency
		}
		amount, err = money.New(cmd.Amount, currency)
		if err != nil {
			return nil, errors.Join(middleware.ErrInvalidInput, err)
		}
	}

	tx, err := domainledger.Record(domainledger.RecordParams{
		ID:            domainledger.TransactionID(h.IDs.NewID()),
		ReservationID: res.ID,
		Method:        method,
		Amount:        amount,
		Reference:     cmd.Reference,
		Payer:         domainledger.Payer{Name: cmd.PayerName, Number: cmd.PayerNumber},
		RecordedBy:    cmd.Actor.ID,
		Now:           h.Clock.Now(),
	})
	if err != nil {
		return nil, errors.Join(middleware.ErrInvalidInput, err)
	}
	if err := unit.Transactions().Create(ctx, tx); err != nil {
		return nil, err
	}
	if err := outbox.Publish(ctx, h.Outbox, h.Encoder, tx); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("transaction recorded", "transaction_id", tx.ID, "reservation_id", res.ID, "method", tx.Method, "amount", tx.Amount.Amount)
	}
	out := dto.MapTransaction(tx, cmd.Actor, false)
	return &out, nil
}

var _ commands.Handler[RecordTransactionCommand, *dto.Transaction] = (*RecordTransactionHandler)(nil)
var _ middleware.IdempotentCommand = RecordTransactionCommand{}

const listTransactionsKey = "ledger.list"

type ListTransactionsQuery struct {
	Actor         actor.Actor
	ReservationID string `validate:"required"`
}

func (q ListTransactionsQuery) Key() string            { return listTransactionsKey }
func (q ListTransactionsQuery) Principal() actor.Actor { return q.Actor }

type ListTransactionsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListTransactionsHandler) Handle(ctx context.Context, q ListTransactionsQuery) (dto.TransactionCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.TransactionCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	res, txs, err := support.LoadReservation(execCtx, unit, q.ReservationID)
	if err != nil {
		return dto.TransactionCollection{}, err
	}
	if err := support.RequireVisibility(q.Actor, res); err != nil {
		return dto.TransactionCollection{}, err
	}
	return dto.MapTransactions(txs, q.Actor, access.CanViewContact(q.Actor, res, txs)), nil
}
