package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"rentgate/internal/app/commands"
	"rentgate/internal/app/handlers/ledger"
	"rentgate/internal/app/middleware"
	domainledger "rentgate/internal/domain/ledger"
	"rentgate/internal/domain/shared/rejection"
)

var ErrMalformedOutcome = errors.New("kafka: malformed payment outcome")

// Inbox deduplicates deliveries by event id.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// OutcomeHandler turns payment-provider outcome messages into ledger commands.
// Messages may be plain JSON or a CloudEvents envelope carrying the same fields in data.
type OutcomeHandler struct {
	Bus    commands.Bus
	Inbox  Inbox
	Logger *slog.Logger
}

type outcomePayload struct {
	ID            string          `json:"id"`
	EventID       string          `json:"event_id"`
	TransactionID string          `json:"transaction_id"`
	Outcome       string          `json:"outcome"`
	Status        string          `json:"status"`
	Data          json.RawMessage `json:"data"`
}

func (h *OutcomeHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	cmd, err := decodeOutcome(msg)
	if err != nil {
		// poison messages are dropped so the partition keeps moving
		if h.Logger != nil {
			h.Logger.Error("payment outcome dropped", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, cmd.EventID)
		if err != nil {
			return err
		}
		if seen {
			if h.Logger != nil {
				h.Logger.Debug("payment outcome already processed", "event_id", cmd.EventID)
			}
			return nil
		}
	}
	res, err := commands.Dispatch[ledger.ApplyProviderOutcomeCommand, *ledger.ApplyProviderOutcomeResult](ctx, h.Bus, cmd)
	if err != nil {
		if permanent(err) {
			if h.Logger != nil {
				h.Logger.Warn("payment outcome rejected", "event_id", cmd.EventID, "transaction_id", cmd.TransactionID, "error", err)
			}
			return nil
		}
		if h.Inbox != nil {
			if forgetErr := h.Inbox.Forget(ctx, cmd.EventID); forgetErr != nil {
				return errors.Join(err, forgetErr)
			}
		}
		return err
	}
	if h.Logger != nil && res != nil {
		h.Logger.Info("payment outcome consumed",
			"event_id", cmd.EventID,
			"transaction_id", res.TransactionID,
			"processing_status", res.ProcessingStatus,
			"changed", res.Changed,
		)
	}
	return nil
}

func decodeOutcome(msg *sarama.ConsumerMessage) (ledger.ApplyProviderOutcomeCommand, error) {
	var p outcomePayload
	if err := json.Unmarshal(msg.Value, &p); err != nil {
		return ledger.ApplyProviderOutcomeCommand{}, fmt.Errorf("%w: %w", ErrMalformedOutcome, err)
	}
	body := p
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &body); err != nil {
			return ledger.ApplyProviderOutcomeCommand{}, fmt.Errorf("%w: %w", ErrMalformedOutcome, err)
		}
	}
	cmd := ledger.ApplyProviderOutcomeCommand{
		EventID:       firstNonEmpty(p.ID, p.EventID, body.EventID, headerValue(msg, "ce-id")),
		TransactionID: strings.TrimSpace(body.TransactionID),
		Outcome:       firstNonEmpty(body.Outcome, body.Status),
	}
	if cmd.EventID == "" {
		cmd.EventID = fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	}
	if cmd.TransactionID == "" || cmd.Outcome == "" {
		return ledger.ApplyProviderOutcomeCommand{}, ErrMalformedOutcome
	}
	return cmd, nil
}

// permanent errors will fail the same way on redelivery.
func permanent(err error) bool {
	if _, ok := rejection.ReasonOf(err); ok {
		return true
	}
	return errors.Is(err, middleware.ErrInvalidInput) || errors.Is(err, domainledger.ErrNotFound)
}

func headerValue(msg *sarama.ConsumerMessage, key string) string {
	for _, h := range msg.Headers {
		if h != nil && strings.EqualFold(string(h.Key), key) {
			return string(h.Value)
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
