package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "rentgate/internal/app/outbox"
	"rentgate/internal/app/uow"
	infraoutbox "rentgate/internal/infra/outbox"
)

const (
	stateNew     = "new"
	stateClaimed = "claimed"
	stateSent    = "sent"
	stateFailed  = "failed"
)

type outboxEntry struct {
	msg   infraoutbox.Message
	state string
}

// Outbox keeps event records in memory. Records added inside a unit of work only
// become visible when the unit commits. Without Retain they are dropped on commit,
// which is what a broker-less dev setup wants.
type Outbox struct {
	mu      sync.Mutex
	retain  bool
	entries map[string]*outboxEntry
	order   []string
	now     func() time.Time
}

func NewOutbox(retain bool) *Outbox {
	return &Outbox{retain: retain, entries: make(map[string]*outboxEntry), now: time.Now}
}

// Retain switches the outbox to keep records for a worker.
func (o *Outbox) Retain() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retain = true
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if memUnit, ok := unit.(*Unit); ok && memUnit.factory.Outbox == o {
			memUnit.stage(record)
			return nil
		}
	}
	o.append(record)
	return nil
}

// Flush has nothing to do: committed records wait for the worker.
func (o *Outbox) Flush(context.Context) error {
	return nil
}

func (o *Outbox) append(records ...appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.retain {
		return
	}
	for _, rec := range records {
		if _, dup := o.entries[rec.ID]; dup {
			continue
		}
		o.entries[rec.ID] = &outboxEntry{
			msg: infraoutbox.Message{
				ID:          rec.ID,
				Name:        rec.Name,
				Payload:     rec.Payload,
				OccurredAt:  rec.OccurredAt,
				Aggregate:   rec.Aggregate,
				Headers:     rec.Headers,
				NextAttempt: o.now().UTC(),
			},
			state: stateNew,
		}
		o.order = append(o.order, rec.ID)
	}
}

// Pending returns the names of records not yet sent, oldest first.
func (o *Outbox) Pending() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []string
	for _, id := range o.order {
		if e := o.entries[id]; e.state != stateSent {
			out = append(out, e.msg.Name)
		}
	}
	return out
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now().UTC()
	for _, id := range o.order {
		e := o.entries[id]
		if (e.state == stateNew || e.state == stateFailed) && !e.msg.NextAttempt.After(now) {
			e.state = stateClaimed
			msg := e.msg
			return &msg, nil
		}
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.entries[id]; ok {
		e.state = stateSent
	}
	o.compact()
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.entries[id]; ok {
		e.state = stateFailed
		e.msg.Attempts++
		e.msg.NextAttempt = next
		e.msg.LastError = errMsg
	}
	return nil
}

// compact drops the sent prefix of the queue.
func (o *Outbox) compact() {
	i := 0
	for ; i < len(o.order); i++ {
		if o.entries[o.order[i]].state != stateSent {
			break
		}
		delete(o.entries, o.order[i])
	}
	o.order = append([]string(nil), o.order[i:]...)
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Store = (*Outbox)(nil)
)
