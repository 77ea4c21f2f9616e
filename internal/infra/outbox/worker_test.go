package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu     sync.Mutex
	queue  []*Message
	sent   []string
	failed map[string]int
}

func (s *fakeStore) Claim(context.Context, string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, nil
	}
	msg := s.queue[0]
	s.queue = s.queue[1:]
	return msg, nil
}

func (s *fakeStore) MarkSent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeStore) MarkFailed(_ context.Context, id string, _ time.Time, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed == nil {
		s.failed = map[string]int{}
	}
	s.failed[id]++
	return nil
}

type published struct {
	topic, key string
	payload    []byte
	headers    map[string]string
}

type fakeProducer struct {
	err  error
	msgs []published
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic, key, payload, headers})
	return nil
}

func TestDrainPublishesCloudEvents(t *testing.T) {
	store := &fakeStore{queue: []*Message{{
		ID:        "evt-1",
		Name:      "reservation.confirmed",
		Aggregate: "res-1",
		Payload:   []byte(`{"reservation_id":"res-1"}`),
	}}}
	producer := &fakeProducer{}
	w := &Worker{Store: store, Producer: producer, TopicPrefix: "dev."}

	require.NoError(t, w.Drain(context.Background()))
	require.Len(t, producer.msgs, 1)
	msg := producer.msgs[0]
	assert.Equal(t, "dev.reservation.events.v1", msg.topic)
	assert.Equal(t, "res-1", msg.key)
	assert.Equal(t, "application/cloudevents+json", msg.headers["content-type"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &evt))
	assert.Equal(t, "reservation.confirmed.v1", evt["type"])
	assert.Equal(t, "evt-1", evt["id"])
	assert.Equal(t, []string{"evt-1"}, store.sent)
}

func TestFailedPublishIsRescheduled(t *testing.T) {
	store := &fakeStore{queue: []*Message{{ID: "evt-1", Name: "ledger.transaction_updated", Payload: []byte(`{}`)}}}
	w := &Worker{Store: store, Producer: &fakeProducer{err: errors.New("broker down")}}

	require.NoError(t, w.Drain(context.Background()))
	assert.Equal(t, 1, store.failed["evt-1"])
	assert.Empty(t, store.sent)
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	inner := &fakeProducer{err: errors.New("broker down")}
	p := NewBreakerProducer("test", inner, nil)
	for i := 0; i < 3; i++ {
		_ = p.Publish(context.Background(), "t", "k", nil, nil)
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())
	assert.ErrorIs(t, p.Publish(context.Background(), "t", "k", nil, nil), ErrBreakerOpen)
}
