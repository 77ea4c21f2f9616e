// Package wiring registers every application handler on the command and query buses
// and wraps them with the middleware pipeline.
package wiring

import (
	"errors"
	"log/slog"

	"rentgate/internal/app/commands"
	"rentgate/internal/app/handlers/availability"
	"rentgate/internal/app/handlers/ledger"
	"rentgate/internal/app/handlers/pricing"
	"rentgate/internal/app/handlers/reservations"
	"rentgate/internal/app/middleware"
	"rentgate/internal/app/outbox"
	"rentgate/internal/app/policies"
	"rentgate/internal/app/queries"
	"rentgate/internal/app/uow"
	domainreservation "rentgate/internal/domain/reservation"
)

type Deps struct {
	UoW         uow.UoWFactory
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Idempotency middleware.IdempotencyStore
	Validator   middleware.Validator
	Pricing     policies.PricingPort
	Receipts    policies.ReceiptStorage
	Codes       domainreservation.CodeGenerator
	IDs         policies.IDGenerator
	Clock       policies.Clock
	Logger      *slog.Logger
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func Build(d Deps) (Buses, error) {
	switch {
	case d.UoW == nil:
		return Buses{}, errors.New("wiring: unit of work factory required")
	case d.Outbox == nil:
		return Buses{}, errors.New("wiring: outbox required")
	case d.Idempotency == nil:
		return Buses{}, errors.New("wiring: idempotency store required")
	case d.Validator == nil:
		return Buses{}, errors.New("wiring: validator required")
	case d.Pricing == nil:
		return Buses{}, errors.New("wiring: pricing port required")
	}
	encoder := d.Encoder
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	(&reservations.CreateReservationHandler{
		Pricing: d.Pricing,
		Codes:   d.Codes,
		IDs:     d.IDs,
		Clock:   d.Clock,
		Outbox:  d.Outbox,
		Encoder: encoder,
		Logger:  logger,
	}).Register(commandBus)
	(&reservations.TransitionHandler{Clock: d.Clock, Outbox: d.Outbox, Encoder: encoder, Logger: logger}).Register(commandBus)
	(&reservations.QueryHandler{UoWFactory: d.UoW, Logger: logger}).Register(queryBus)

	(&availability.UpdateOverridesHandler{Clock: d.Clock, Outbox: d.Outbox, Encoder: encoder, Logger: logger}).Register(commandBus)
	(&availability.GetCalendarHandler{UoWFactory: d.UoW}).Register(queryBus)

	(&pricing.GetQuoteHandler{UoWFactory: d.UoW, Pricing: d.Pricing}).Register(queryBus)

	(&ledger.RecordTransactionHandler{IDs: d.IDs, Clock: d.Clock, Outbox: d.Outbox, Encoder: encoder, Logger: logger}).Register(commandBus)
	(&ledger.UpdateTransactionStatusHandler{Clock: d.Clock, Outbox: d.Outbox, Encoder: encoder, Logger: logger}).Register(commandBus)
	(&ledger.AttachReceiptHandler{Storage: d.Receipts, Clock: d.Clock, Logger: logger}).Register(commandBus)
	(&ledger.ApplyProviderOutcomeHandler{Clock: d.Clock, Outbox: d.Outbox, Encoder: encoder, Logger: logger}).Register(commandBus)
	(&ledger.ListTransactionsHandler{UoWFactory: d.UoW}).Register(queryBus)

	return Buses{
		Commands: middleware.ChainCommands(
			commandBus,
			middleware.Logging(logger),
			middleware.Validation(d.Validator),
			middleware.Authorization(middleware.RequireActor{}),
			middleware.Idempotency(d.Idempotency, nil),
			middleware.Transaction(d.UoW, nil),
			middleware.OutboxFlush(d.Outbox),
		),
		Queries: middleware.ChainQueries(
			queryBus,
			middleware.QueryValidation(d.Validator),
			middleware.QueryAuthorization(middleware.RequireActor{}),
		),
	}, nil
}
