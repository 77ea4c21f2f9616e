package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"rentgate/internal/app/commands"
	"rentgate/internal/app/middleware"
	"rentgate/internal/app/outbox"
	"rentgate/internal/app/policies"
	"rentgate/internal/app/uow"
	domainledger "rentgate/internal/domain/ledger"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/rejection"
)

const applyProviderOutcomeKey = "ledger.apply_provider_outcome"

const providerActorName = "payments"

var ErrUnknownOutcome = errors.New("ledger: unknown provider outcome")

// ApplyProviderOutcomeCommand reflects what the mobile-money provider reported for an attempt.
// Settlement stays with admins; only the processing status moves.
type ApplyProviderOutcomeCommand struct {
	EventID       string `validate:"required"`
	TransactionID string `validate:"required"`
	Outcome       string `validate:"required"`
}

func (c ApplyProviderOutcomeCommand) Key() string { return applyProviderOutcomeKey }

type ApplyProviderOutcomeResult struct {
	TransactionID    string `json:"transaction_id"`
	ProcessingStatus string `json:"processing_status"`
	Changed          bool   `json:"changed"`
}

type ApplyProviderOutcomeHandler struct {
	Clock   policies.Clock
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *ApplyProviderOutcomeHandler) Handle(ctx context.Context, cmd ApplyProviderOutcomeCommand) (*ApplyProviderOutcomeResult, error) {
	status, err := outcomeStatus(cmd.Outcome)
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
	system := actor.System(providerActorName)
	_, err = tx.UpdateStatus(system, domainledger.StatusUpdate{Processing: &status}, h.Clock.Now())
	if errors.Is(err, rejection.ErrAlreadyInTargetState) {
		return &ApplyProviderOutcomeResult{TransactionID: string(tx.ID), ProcessingStatus: string(tx.ProcessingStatus)}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := unit.Transactions().Save(ctx, tx); err != nil {
		return nil, err
	}
	if err := outbox.Publish(ctx, h.Outbox, h.Encoder, tx); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("provider outcome applied", "event_id", cmd.EventID, "transaction_id", tx.ID, "processing_status", tx.ProcessingStatus)
	}
	return &ApplyProviderOutcomeResult{TransactionID: string(tx.ID), ProcessingStatus: string(tx.ProcessingStatus), Changed: true}, nil
}

func outcomeStatus(raw string) (domainledger.ProcessingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "succeeded", "success", "successful":
		return domainledger.ProcessingSucceeded, nil
	case "failed", "failure", "declined":
		return domainledger.ProcessingFailed, nil
	default:
		return "", errors.Join(middleware.ErrInvalidInput, fmt.Errorf("%w: %q", ErrUnknownOutcome, raw))
	}
}

var _ commands.Handler[ApplyProviderOutcomeCommand, *ApplyProviderOutcomeResult] = (*ApplyProviderOutcomeHandler)(nil)
