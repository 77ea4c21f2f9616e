package outbox

import (
	"context"
	"time"
)

// Message is an outbox row as the worker sees it, whatever the backing store.
type Message struct {
	ID          string
	Name        string
	Payload     []byte
	OccurredAt  time.Time
	Aggregate   string
	Headers     map[string]string
	Attempts    int
	NextAttempt time.Time
	LastError   string
}

// Store is implemented by every outbox backend the worker can drain.
type Store interface {
	// Claim returns the next due message, or nil when nothing is due.
	Claim(ctx context.Context, workerID string) (*Message, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}
