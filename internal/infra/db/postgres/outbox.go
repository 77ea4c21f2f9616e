package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appoutbox "rentgate/internal/app/outbox"
	infraoutbox "rentgate/internal/infra/outbox"
)

const (
	outboxStateNew     = "NEW"
	outboxStateClaimed = "CLAIMED"
	outboxStateSent    = "SENT"
	outboxStateFailed  = "FAILED"

	claimTimeout = time.Minute
)

// OutboxStore writes records with the caller's transaction and lets several workers
// claim rows concurrently with SKIP LOCKED.
type OutboxStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOutboxStore(db *gorm.DB) *OutboxStore {
	return &OutboxStore{db: db, now: time.Now}
}

func (s *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	headers, err := json.Marshal(record.Headers)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	m := outboxModel{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     headers,
		State:       outboxStateNew,
		NextAttempt: now,
		CreatedAt:   now,
	}
	return classify(conn(ctx, s.db).Create(&m).Error)
}

func (s *OutboxStore) Flush(context.Context) error {
	return nil
}

func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	now := s.now().UTC()
	var claimed *outboxModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m outboxModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(state IN ? AND next_attempt_at <= ?) OR (state = ? AND claimed_at <= ?)",
				[]string{outboxStateNew, outboxStateFailed}, now, outboxStateClaimed, now.Add(-claimTimeout)).
			Order("created_at ASC").
			Take(&m).Error
		if err != nil {
			return err
		}
		m.State = outboxStateClaimed
		m.ClaimedBy = workerID
		m.ClaimedAt = &now
		if err := tx.Model(&outboxModel{}).Where("id = ?", m.ID).Updates(map[string]any{
			"state":      m.State,
			"claimed_by": workerID,
			"claimed_at": now,
		}).Error; err != nil {
			return err
		}
		claimed = &m
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	headers := map[string]string{}
	if len(claimed.Headers) > 0 {
		if err := json.Unmarshal(claimed.Headers, &headers); err != nil {
			return nil, err
		}
	}
	return &infraoutbox.Message{
		ID:          claimed.ID,
		Name:        claimed.Name,
		Payload:     claimed.Payload,
		OccurredAt:  claimed.OccurredAt.UTC(),
		Aggregate:   claimed.Aggregate,
		Headers:     headers,
		Attempts:    claimed.Attempts,
		NextAttempt: claimed.NextAttempt.UTC(),
		LastError:   claimed.LastError,
	}, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).Updates(map[string]any{
		"state":   outboxStateSent,
		"sent_at": s.now().UTC(),
	}).Error
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return s.db.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).Updates(map[string]any{
		"state":           outboxStateFailed,
		"next_attempt_at": next.UTC(),
		"last_error":      errMsg,
		"attempts":        gorm.Expr("attempts + 1"),
	}).Error
}

// InboxStore deduplicates consumed events on the (event_id, consumer) primary key.
type InboxStore struct {
	db       *gorm.DB
	consumer string
}

func NewInboxStore(db *gorm.DB, consumer string) *InboxStore {
	return &InboxStore{db: db, consumer: consumer}
}

func (s *InboxStore) Seen(ctx context.Context, eventID string) (bool, error) {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&inboxModel{
		EventID:    eventID,
		Consumer:   s.consumer,
		ReceivedAt: time.Now().UTC(),
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 0, nil
}

func (s *InboxStore) Forget(ctx context.Context, eventID string) error {
	return s.db.WithContext(ctx).Where("event_id = ? AND consumer = ?", eventID, s.consumer).Delete(&inboxModel{}).Error
}

var (
	_ appoutbox.Outbox  = (*OutboxStore)(nil)
	_ infraoutbox.Store = (*OutboxStore)(nil)
)
