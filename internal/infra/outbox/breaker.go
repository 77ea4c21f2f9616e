package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

var ErrBreakerOpen = errors.New("outbox: broker circuit open")

// BreakerProducer stops hammering a broker that keeps failing. While the circuit is
// open, Publish fails fast with ErrBreakerOpen and the worker backs off.
type BreakerProducer struct {
	next Producer
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerProducer(name string, next Producer, logger *slog.Logger) *BreakerProducer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			}
		},
	})
	return &BreakerProducer{next: next, cb: cb}
}

func (p *BreakerProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.next.Publish(ctx, topic, key, payload, headers)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrBreakerOpen, err)
	}
	return err
}

func (p *BreakerProducer) State() gobreaker.State {
	return p.cb.State()
}
