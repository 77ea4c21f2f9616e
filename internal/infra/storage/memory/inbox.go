package memory

import (
	"context"
	"sync"
)

// Inbox remembers processed event ids per consumer.
type Inbox struct {
	mu       sync.Mutex
	consumer string
	seen     map[string]struct{}
}

func NewInbox(consumer string) *Inbox {
	return &Inbox{consumer: consumer, seen: make(map[string]struct{})}
}

// Seen records eventID and reports whether it had been recorded before.
func (i *Inbox) Seen(ctx context.Context, eventID string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	key := i.consumer + ":" + eventID
	if _, ok := i.seen[key]; ok {
		return true, nil
	}
	i.seen[key] = struct{}{}
	return false, nil
}

// Forget removes eventID so a failed delivery can be retried.
func (i *Inbox) Forget(ctx context.Context, eventID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.seen, i.consumer+":"+eventID)
	return nil
}
