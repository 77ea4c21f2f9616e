package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentgate/internal/app/commands"
	"rentgate/internal/app/handlers/ledger"
	domainledger "rentgate/internal/domain/ledger"
	"rentgate/internal/domain/shared/rejection"
	"rentgate/internal/infra/storage/memory"
)

type recordingBus struct {
	calls []ledger.ApplyProviderOutcomeCommand
	err   error
}

func (b *recordingBus) Dispatch(_ context.Context, cmd commands.Command) (any, error) {
	c := cmd.(ledger.ApplyProviderOutcomeCommand)
	b.calls = append(b.calls, c)
	if b.err != nil {
		return nil, b.err
	}
	return &ledger.ApplyProviderOutcomeResult{TransactionID: c.TransactionID, ProcessingStatus: "succeeded", Changed: true}, nil
}

func message(value string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "payments.outcomes.v1", Partition: 0, Offset: 7, Value: []byte(value)}
}

func TestOutcomeHandlerDeduplicatesByEventID(t *testing.T) {
	bus := &recordingBus{}
	h := &OutcomeHandler{Bus: bus, Inbox: memory.NewInbox("payments")}
	msg := message(`{"event_id":"evt-1","transaction_id":"tx-1","outcome":"succeeded"}`)

	require.NoError(t, h.Handle(context.Background(), msg))
	require.NoError(t, h.Handle(context.Background(), msg))

	require.Len(t, bus.calls, 1)
	assert.Equal(t, "evt-1", bus.calls[0].EventID)
	assert.Equal(t, "tx-1", bus.calls[0].TransactionID)
}

func TestOutcomeHandlerReadsCloudEventEnvelope(t *testing.T) {
	bus := &recordingBus{}
	h := &OutcomeHandler{Bus: bus}
	msg := message(`{"specversion":"1.0","id":"ce-9","type":"payment.outcome","data":{"transaction_id":"tx-2","status":"failed"}}`)

	require.NoError(t, h.Handle(context.Background(), msg))
	require.Len(t, bus.calls, 1)
	assert.Equal(t, "ce-9", bus.calls[0].EventID)
	assert.Equal(t, "failed", bus.calls[0].Outcome)
}

func TestOutcomeHandlerFallsBackToOffsetID(t *testing.T) {
	cmd, err := decodeOutcome(message(`{"transaction_id":"tx-3","outcome":"success"}`))
	require.NoError(t, err)
	assert.Equal(t, "payments.outcomes.v1/0/7", cmd.EventID)
}

func TestOutcomeHandlerDropsMalformedMessages(t *testing.T) {
	bus := &recordingBus{}
	h := &OutcomeHandler{Bus: bus}

	assert.NoError(t, h.Handle(context.Background(), message(`not json`)))
	assert.NoError(t, h.Handle(context.Background(), message(`{"event_id":"evt-2"}`)))
	assert.Empty(t, bus.calls)
}

func TestOutcomeHandlerForgetsEventOnTransientFailure(t *testing.T) {
	bus := &recordingBus{err: errors.New("database unavailable")}
	h := &OutcomeHandler{Bus: bus, Inbox: memory.NewInbox("payments")}
	msg := message(`{"event_id":"evt-3","transaction_id":"tx-1","outcome":"succeeded"}`)

	require.Error(t, h.Handle(context.Background(), msg))
	bus.err = nil
	require.NoError(t, h.Handle(context.Background(), msg))
	assert.Len(t, bus.calls, 2)
}

func TestOutcomeHandlerAcknowledgesPermanentFailures(t *testing.T) {
	for _, err := range []error{
		rejection.New(rejection.InvalidStateTransition, "transaction is settled"),
		domainledger.ErrNotFound,
	} {
		bus := &recordingBus{err: err}
		h := &OutcomeHandler{Bus: bus, Inbox: memory.NewInbox("payments")}
		assert.NoError(t, h.Handle(context.Background(), message(`{"event_id":"evt-4","transaction_id":"tx-x","outcome":"failed"}`)))
	}
}
