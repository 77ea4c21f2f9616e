package ledger

import (
	"rentgate/internal/app/commands"
	"rentgate/internal/app/dto"
	"rentgate/internal/app/queries"
)

func (h *RecordTransactionHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[RecordTransactionCommand, *dto.Transaction](bus, recordTransactionKey, h)
}

func (h *UpdateTransactionStatusHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[UpdateTransactionStatusCommand, *dto.TransactionUpdate](bus, updateTransactionStatusKey, h)
}

func (h *AttachReceiptHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[AttachReceiptCommand, *dto.Transaction](bus, attachReceiptKey, h)
}

func (h *ApplyProviderOutcomeHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[ApplyProviderOutcomeCommand, *ApplyProviderOutcomeResult](bus, applyProviderOutcomeKey, h)
}

func (h *ListTransactionsHandler) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler[ListTransactionsQuery, dto.TransactionCollection](bus, listTransactionsKey, h)
}
